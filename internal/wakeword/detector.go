package wakeword

import (
	"context"
	"sync"
	"time"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

// Model is the quantized INT8 inference contract (spec §4.6): a
// feature matrix goes in, a single confidence in [0,1] comes out.
// Concrete model loading (TFLite or otherwise) lives behind this
// interface so the detector core never depends on a specific
// inference runtime.
type Model interface {
	// Infer returns a confidence that is clamped into [0,1] by the
	// caller regardless of what the model itself returns.
	Infer(features *Matrix) (float64, error)
	Close() error
}

// DetectionEvent is emitted on a confirmed wake-word trigger.
type DetectionEvent struct {
	Confidence float64
	LatencyMS  float64
	At         time.Time
}

// Config tunes the detector's inference cadence and hysteresis.
type Config struct {
	VAD                 VADConfig
	MFCC                MFCCConfig
	Threshold           float64
	TriggerDurationMS   int
	InferenceIntervalMS int
	TailSilenceMS       int
	MaxUtteranceMS      int
	CooldownMS          int
}

// Detector wires the ring buffer, VAD, MFCC frontend, inference model,
// and the IdleListening/Streaming/Cooldown state machine together
// (spec §4.6). Audio producers call Write; the detector never blocks
// them. A background goroutine drains the ring buffer and runs the
// rest of the pipeline.
type Detector struct {
	cfg      Config
	ring     *RingBuffer
	vad      *VAD
	frontend *Frontend
	model    Model
	log      *logger.Logger
	sm       *stateMachine

	onDetect func(DetectionEvent)

	mu              sync.Mutex
	pcmAccumulator  []int16
	lastInferenceAt time.Time
	runStartedAt    time.Time
	inferenceFaults int

	modelFailed bool
	modelErr    error

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a Detector. model may be nil if loading failed upstream;
// in that case the detector starts disabled, matching spec §4.6's
// "model load failure -> detector disabled with error" failure mode.
func New(cfg Config, model Model, log *logger.Logger, onDetect func(DetectionEvent)) *Detector {
	d := &Detector{
		cfg:      cfg,
		ring:     NewRingBuffer(cfg.MFCC.InputSamples * 2 * 4), // bytes, a few seconds of headroom
		vad:      NewVAD(cfg.VAD),
		frontend: NewFrontend(cfg.MFCC),
		model:    model,
		log:      log,
		sm:       newStateMachine(),
		onDetect: onDetect,
		stop:     make(chan struct{}),
	}
	if model == nil {
		d.modelFailed = true
		d.modelErr = corerrors.New(corerrors.DependencyMissing, "wake-word model not loaded")
	}
	return d
}

// Err reports the model-load failure recorded at construction, if any.
func (d *Detector) Err() error {
	return d.modelErr
}

// Phase reports the detector's current lifecycle state, for adapters
// that need to surface it alongside a confidence reading (spec §4.6
// idle_listening/streaming/cooldown).
func (d *Detector) Phase() string {
	return d.sm.current()
}

// Write pushes raw 16kHz mono PCM16 bytes into the ring buffer. Safe to
// call from a realtime audio callback: it never blocks and never
// returns an error (spec §4.6: "Buffer overflow is logged but not
// propagated — by design — audio must not stall").
func (d *Detector) Write(pcm []byte) {
	if len(pcm) > d.ring.FreeSpace() {
		d.log.Debugw("wake-word ring buffer full, discarding oldest audio", "bytes", len(pcm))
	}
	d.ring.Write(pcm)
}

// Start launches the background drain/analyze loop. Cancelling ctx
// stops it.
func (d *Detector) Start(ctx context.Context) {
	if d.modelFailed {
		d.log.With("error", d.modelErr).Warnw("wake-word detector disabled, model unavailable")
		return
	}
	d.wg.Add(1)
	go d.loop(ctx)
}

// Stop halts the background loop and waits for it to exit.
func (d *Detector) Stop() {
	close(d.stop)
	d.wg.Wait()
}

func (d *Detector) loop(ctx context.Context) {
	defer d.wg.Done()

	frameSamples := d.cfg.VAD.SampleRate * d.cfg.VAD.FrameDurationMS / 1000
	ticker := time.NewTicker(time.Duration(d.cfg.VAD.FrameDurationMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case <-ticker.C:
			d.tick(frameSamples)
		}
	}
}

func (d *Detector) tick(frameSamples int) {
	raw := make([]byte, frameSamples*2)
	n := d.ring.Read(raw)
	if n == 0 {
		return
	}
	samples := bytesToInt16(raw[:n])

	vadResult := d.vad.Analyze(samples)
	d.sm.onFrame(vadResult.Voiced, d.cfg.TailSilenceMS, d.cfg.MaxUtteranceMS, d.cfg.CooldownMS)

	if d.sm.current() != StateIdleListening && d.sm.current() != StateStreaming {
		return
	}

	d.mu.Lock()
	d.pcmAccumulator = append(d.pcmAccumulator, samples...)
	if over := len(d.pcmAccumulator) - d.cfg.MFCC.InputSamples; over > 0 {
		d.pcmAccumulator = d.pcmAccumulator[over:]
	}
	ready := len(d.pcmAccumulator) == d.cfg.MFCC.InputSamples
	window := append([]int16(nil), d.pcmAccumulator...)
	d.mu.Unlock()

	if !ready {
		return
	}
	if time.Since(d.lastInferenceAt) < time.Duration(d.cfg.InferenceIntervalMS)*time.Millisecond {
		return
	}
	d.lastInferenceAt = time.Now()
	d.runInference(window)
}

func (d *Detector) runInference(samples []int16) {
	start := time.Now()
	features := d.frontend.Build(samples)

	confidence, err := d.model.Infer(features)
	if err != nil {
		d.inferenceFaults++
		d.log.With("error", err, "fault_count", d.inferenceFaults).Warnw("wake-word inference fault, skipping frame")
		d.sm.resetTrigger()
		return
	}
	confidence = clamp01(confidence)

	triggered := d.sm.onConfidence(confidence, d.cfg.Threshold, d.cfg.TriggerDurationMS)
	if !triggered {
		return
	}

	latency := time.Since(start).Seconds() * 1000
	event := DetectionEvent{Confidence: confidence, LatencyMS: latency, At: time.Now()}
	if d.onDetect != nil {
		d.onDetect(event)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func bytesToInt16(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return out
}
