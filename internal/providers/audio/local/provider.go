// Package local implements the built-in "local" Audio provider (spec
// §4.1, §11): it doesn't own a physical speaker device, it decodes
// Opus-compressed frames into PCM16 and fans the result out to
// whatever sink the caller wires in (an io.Writer over a local output
// device, or, in corvid's case, the same connection registry an
// httpapi WebSocket endpoint uses to stream audio back to a client).
// Opus encode/decode is grounded on MrWong99-glyphoxa's Discord voice
// opusDecoder/opusEncoder pair (pkg/audio/discord/opus.go).
package local

import (
	"context"
	"os"
	"sync"

	"layeh.com/gopus"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
)

func init() {
	provider.Register(provider.Descriptor{
		Kind: provider.KindAudio,
		Name: "local",
		Factory: func(cfg map[string]any) (any, error) {
			return New(cfg)
		},
		SupportedPlatforms: []string{"linux", "darwin", "windows"},
	})
}

// Sink receives decoded PCM16 frames. The coordinator-level audio_out
// stage wires this to whatever transport fans frames out to clients;
// a nil Sink makes PlayStream/PlayFile a no-op decode-and-drop, which
// is still useful for exercising the codec path in isolation (tests).
type Sink func(pcm []byte) error

type Provider struct {
	sampleRate int
	channels   int
	frameSize  int // samples per channel per frame, at 20ms

	mu      sync.Mutex
	dec     *gopus.Decoder
	enc     *gopus.Encoder
	volume  float32
	stopped bool

	sink Sink
}

func New(cfg map[string]any) (*Provider, error) {
	sampleRate := provider.IntOpt(cfg, "sample_rate", 48000)
	channels := provider.IntOpt(cfg, "channels", 2)
	frameMS := provider.IntOpt(cfg, "frame_ms", 20)

	dec, err := gopus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, corerrors.Wrap(corerrors.DependencyMissing, "local audio: create opus decoder", err)
	}
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, corerrors.Wrap(corerrors.DependencyMissing, "local audio: create opus encoder", err)
	}

	return &Provider{
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  sampleRate * frameMS / 1000,
		dec:        dec,
		enc:        enc,
		volume:     1.0,
	}, nil
}

// WithSink attaches the frame sink after construction, since the
// manifest Factory signature (map[string]any) (any, error) has no room
// for a function-typed dependency; callers type-assert the
// Factory-returned value to *Provider and call this once.
func (p *Provider) WithSink(sink Sink) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
	return p
}

func (p *Provider) IsAvailable() bool { return p.dec != nil && p.enc != nil }

func (p *Provider) GetParameterSchema() []provider.ParameterSpec {
	return []provider.ParameterSpec{
		{Name: "volume", Kind: "float", Min: f(0), Max: f(2.0), Default: 1.0},
	}
}

func (p *Provider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: true, Formats: []string{"opus", "pcm_s16le"}}
}

func (p *Provider) SupportedFormats() []string { return []string{"opus", "pcm_s16le"} }

// PlayFile decodes a full Opus or raw-PCM file's bytes in one shot and
// routes them through PlayStream as a single-chunk stream.
func (p *Provider) PlayFile(ctx context.Context, path string, opts provider.PlayOpts) error {
	data, err := readFile(path)
	if err != nil {
		return corerrors.Wrap(corerrors.IO, "local audio: read file", err)
	}
	ch := make(chan []byte, 1)
	ch <- data
	close(ch)
	return p.PlayStream(ctx, ch, opts)
}

// PlayStream decodes each incoming chunk (treated as one Opus packet
// unless opts.Format is pcm_s16le, in which case it is passed through
// unchanged) and emits the resulting PCM to the attached Sink.
func (p *Provider) PlayStream(ctx context.Context, chunks <-chan []byte, opts provider.PlayOpts) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			if p.stoppedNow() {
				return nil
			}

			pcm := chunk
			if opts.Format != "pcm_s16le" {
				decoded, err := p.decode(chunk)
				if err != nil {
					return corerrors.Wrap(corerrors.ProviderFaulted, "local audio: opus decode failed", err)
				}
				pcm = decoded
			}

			p.mu.Lock()
			sink := p.sink
			p.mu.Unlock()
			if sink != nil {
				if err := sink(applyVolume(pcm, p.Volume())); err != nil {
					return corerrors.Wrap(corerrors.IO, "local audio: sink write failed", err)
				}
			}
		}
	}
}

func (p *Provider) decode(opus []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pcm, err := p.dec.Decode(opus, p.frameSize, false)
	if err != nil {
		return nil, err
	}
	return int16sToBytes(pcm), nil
}

// Encode compresses a raw PCM16 chunk to Opus, exposed for callers
// (e.g. an httpapi WS handler relaying captured mic audio onward) that
// need the encode half of the same codec pair.
func (p *Provider) Encode(pcm []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	samples := bytesToInt16s(pcm)
	return p.enc.Encode(samples, p.frameSize, len(pcm))
}

func (p *Provider) SetVolume(ctx context.Context, level float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if level < 0 {
		level = 0
	}
	p.volume = level
	return nil
}

func (p *Provider) Volume() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Provider) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	return nil
}

func (p *Provider) stoppedNow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func applyVolume(pcm []byte, level float32) []byte {
	if level == 1.0 {
		return pcm
	}
	samples := bytesToInt16s(pcm)
	for i, s := range samples {
		scaled := float32(s) * level
		if scaled > 32767 {
			scaled = 32767
		}
		if scaled < -32768 {
			scaled = -32768
		}
		samples[i] = int16(scaled)
	}
	return int16sToBytes(samples)
}

func int16sToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

func bytesToInt16s(b []byte) []int16 {
	pcm := make([]int16, len(b)/2)
	for i := range pcm {
		pcm[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return pcm
}

func f(v float64) *float64 { return &v }

// readFile is a var so tests can stub file access without touching disk.
var readFile = func(path string) ([]byte, error) {
	return os.ReadFile(path)
}
