// Package builtin implements the built-in "builtin" WakeWord provider
// (spec §4.1/§4.6/§11): it adapts internal/wakeword.Detector's
// push-based Write+onDetect callback model onto the pull-based
// provider.WakeWord.ProcessFrame contract the coordinator drives.
package builtin

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/wakeword"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

func init() {
	provider.Register(provider.Descriptor{
		Kind: provider.KindWakeWord,
		Name: "builtin",
		Factory: func(cfg map[string]any) (any, error) {
			return New(cfg, nil, logger.BuildLogger(false))
		},
		SupportedPlatforms: []string{"linux", "darwin", "windows"},
	})
}

// Provider wraps a *wakeword.Detector, translating each ProcessFrame
// call into a Write into the detector's ring buffer, and reporting the
// most recent state the detector's background loop has produced.
//
// ProcessFrame never blocks on inference: the detector's own goroutine
// (started here at construction) drains the ring buffer at its
// configured cadence, and onDetect stores the latest DetectionState
// atomically for ProcessFrame to read back. A caller that needs the
// detector to observe a frame before polling again should expect a
// frame's detection result to surface on a later call, not the same
// one — matching the detector's real-time, non-blocking contract.
type Provider struct {
	det *wakeword.Detector

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool

	state atomic.Pointer[provider.DetectionState]
}

// New builds a Provider around a Detector for cfg's tuning parameters.
// model may be nil, in which case the detector starts disabled
// (spec §4.6 "model load failure -> detector disabled with error") and
// IsAvailable reports false.
func New(cfg map[string]any, model wakeword.Model, log *logger.Logger) (*Provider, error) {
	detCfg := wakeword.Config{
		VAD: wakeword.VADConfig{
			SampleRate:         provider.IntOpt(cfg, "sample_rate", 16000),
			FrameDurationMS:    provider.IntOpt(cfg, "frame_duration_ms", 20),
			Sensitivity:        provider.FloatOpt(cfg, "vad_sensitivity", 0.5),
			BaseThreshold:      provider.FloatOpt(cfg, "vad_base_threshold", 0.02),
			FramesForVoiceMS:   provider.IntOpt(cfg, "frames_for_voice_ms", 60),
			FramesForSilenceMS: provider.IntOpt(cfg, "frames_for_silence_ms", 400),
		},
		MFCC:                wakeword.DefaultMFCCConfig(),
		Threshold:           provider.FloatOpt(cfg, "threshold", 0.85),
		TriggerDurationMS:   provider.IntOpt(cfg, "trigger_duration_ms", 100),
		InferenceIntervalMS: provider.IntOpt(cfg, "inference_interval_ms", 100),
		TailSilenceMS:       provider.IntOpt(cfg, "tail_silence_ms", 800),
		MaxUtteranceMS:      provider.IntOpt(cfg, "max_utterance_ms", 8000),
		CooldownMS:          provider.IntOpt(cfg, "cooldown_ms", 1500),
	}

	p := &Provider{}
	p.det = wakeword.New(detCfg, model, log, p.onDetect)
	p.state.Store(&provider.DetectionState{Phase: provider.PhaseIdleListening})

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.det.Start(ctx)
	p.started = true

	return p, nil
}

func (p *Provider) onDetect(ev wakeword.DetectionEvent) {
	p.state.Store(&provider.DetectionState{
		Phase:      provider.DetectionPhase(p.det.Phase()),
		Confidence: ev.Confidence,
		Detected:   true,
		LatencyMs:  ev.LatencyMS,
	})
}

func (p *Provider) IsAvailable() bool { return p.det.Err() == nil }

func (p *Provider) GetParameterSchema() []provider.ParameterSpec {
	return []provider.ParameterSpec{
		{Name: "threshold", Kind: "float", Min: f(0), Max: f(1), Default: 0.85},
	}
}

func (p *Provider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{Realtime: true, Formats: []string{"pcm_s16le"}}
}

// ProcessFrame writes frame into the detector's ring buffer (never
// blocking, per spec §4.6) and returns the latest DetectionState the
// background loop has produced. A Detected state is consumed on read
// so a single trigger isn't reported to every subsequent poll.
func (p *Provider) ProcessFrame(frame []int16) provider.DetectionState {
	if p.det.Err() != nil {
		return provider.DetectionState{Phase: provider.PhaseIdleListening}
	}
	p.det.Write(int16ToBytes(frame))

	state := p.state.Load()
	if state.Detected {
		p.state.CompareAndSwap(state, &provider.DetectionState{
			Phase:      provider.DetectionPhase(p.det.Phase()),
			Confidence: state.Confidence,
		})
	}
	return *state
}

// Close stops the detector's background loop; providers that embed a
// long-running goroutine need an explicit teardown path distinct from
// the Base/ASR/TTS capability methods, so this is reached by the
// registry's instance lifecycle rather than the provider.WakeWord
// interface itself.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil
	}
	p.cancel()
	p.det.Stop()
	p.started = false
	return nil
}

func int16ToBytes(frame []int16) []byte {
	b := make([]byte, len(frame)*2)
	for i, s := range frame {
		b[2*i] = byte(s)
		b[2*i+1] = byte(s >> 8)
	}
	return b
}

func f(v float64) *float64 { return &v }
