// Package piper implements the built-in "piper" TTS provider (spec
// §4.1, §11), grounded on the teacher's pkg/io/tts/piper: an HTTP
// client for a local piper-http TTS server. Adapted from the teacher's
// bare HTTP wrapper into a full provider.TTS implementation registered
// into the manifest.
package piper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/pkg/io/audio/wav"
	"github.com/corvid-assistant/corvid/pkg/io/tts/piper/stream"
)

// chunkThreshold is the text length past which Speak switches from a
// single synthesis request to stream.Synthesizer's sentence-chunked
// path, keeping any one piper-http request short.
const chunkThreshold = 200

func init() {
	provider.Register(provider.Descriptor{
		Kind: provider.KindTTS,
		Name: "piper",
		Factory: func(cfg map[string]any) (any, error) {
			return New(cfg), nil
		},
		PlatformDependencies: map[string][]string{"linux": {"piper-http"}, "darwin": {"piper-http"}},
		SupportedPlatforms:   []string{"linux", "darwin", "windows"},
	})
}

// Client is the piper-http request/response wrapper the Provider drives.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Voice    string
	Format   string // "wav" or "pcm_s16le"
	Rate     int
	Channels int
	Timeout  time.Duration
}

type ttsReq struct {
	Text      string `json:"text"`
	Voice     string `json:"voice,omitempty"`
	SpeakerID *int   `json:"speaker_id,omitempty"`
	Audio     any    `json:"audio,omitempty"`
}

// synthesize posts text to the piper-http /api/tts endpoint and returns
// the raw response body (a WAV or raw-PCM stream per c.Format) plus its
// content type; the caller must close the returned reader.
func (c *Client) synthesize(ctx context.Context, text, voiceOverride string) (io.ReadCloser, string, error) {
	if text == "" {
		return nil, "", corerrors.New(corerrors.Internal, "piper: empty text")
	}
	voice := c.Voice
	if voiceOverride != "" {
		voice = voiceOverride
	}

	body, _ := json.Marshal(ttsReq{
		Text:  text,
		Voice: voice,
		Audio: map[string]any{
			"format":   orDefault(c.Format, "wav"),
			"rate":     orDefaultInt(c.Rate, 16000),
			"channels": orDefaultInt(c.Channels, 1),
		},
	})

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.BaseURL+"/api/tts", bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, "", fmt.Errorf("piper: http %d: %s", resp.StatusCode, string(b))
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Synthesize is the exported form of synthesize, used by the stream
// package's chunked Synthesizer, which lives outside this package.
func (c *Client) Synthesize(ctx context.Context, text, voiceOverride string) (io.ReadCloser, string, error) {
	return c.synthesize(ctx, text, voiceOverride)
}

// Provider implements provider.TTS on top of Client.
type Provider struct {
	client *Client

	mu        sync.Mutex
	lastAudio []byte // most recently synthesized PCM, returned by LastAudio
}

func New(cfg map[string]any) *Provider {
	return &Provider{
		client: &Client{
			BaseURL:  provider.StringOpt(cfg, "base_url", "http://localhost:5000"),
			Voice:    provider.StringOpt(cfg, "voice", ""),
			Format:   provider.StringOpt(cfg, "format", "wav"),
			Rate:     provider.IntOpt(cfg, "rate", 16000),
			Channels: provider.IntOpt(cfg, "channels", 1),
			Timeout:  time.Duration(provider.IntOpt(cfg, "timeout_ms", 30000)) * time.Millisecond,
		},
	}
}

func (p *Provider) IsAvailable() bool { return p.client.BaseURL != "" }

func (p *Provider) GetParameterSchema() []provider.ParameterSpec {
	return []provider.ParameterSpec{
		{Name: "voice", Kind: "string"},
		{Name: "speed", Kind: "float", Min: f(0.5), Max: f(2.0), Default: 1.0},
	}
}

func (p *Provider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{Formats: []string{"wav", "pcm_s16le"}, Concurrent: true}
}

func (p *Provider) SupportedLanguages() []string { return []string{"en"} }

// Speak synthesizes text and keeps the raw PCM (WAV-stripped) available
// via LastAudio. It does not play the audio, and the pipeline's tts and
// audio_out stages do not read LastAudio. Text
// longer than chunkThreshold is synthesized in sentence-sized pieces
// via stream.Synthesizer so no single piper-http request carries a long
// response in one call.
func (p *Provider) Speak(ctx context.Context, text string, opts provider.SpeakOpts) error {
	var pcm []byte

	if len(text) > chunkThreshold {
		synth := stream.New(p.client.Synthesize)
		r, err := synth.FromText(ctx, text)
		if err != nil {
			return corerrors.Wrap(corerrors.ProviderFaulted, "piper: chunked synthesis failed", err)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return corerrors.Wrap(corerrors.IO, "piper: failed to read chunked audio", err)
		}
		pcm = data
	} else {
		rc, ct, err := p.client.synthesize(ctx, text, opts.Voice)
		if err != nil {
			return corerrors.Wrap(corerrors.ProviderFaulted, "piper: synthesis failed", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return corerrors.Wrap(corerrors.IO, "piper: failed to read synthesized audio", err)
		}
		pcm = data
		if isWAVContentType(ct) {
			pcm = wav.StripHeader(data)
		}
	}

	p.mu.Lock()
	p.lastAudio = pcm
	p.mu.Unlock()
	return nil
}

// LastAudio returns the PCM payload from the most recent Speak call.
func (p *Provider) LastAudio() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.lastAudio...)
}

func (p *Provider) ToFile(ctx context.Context, text string, path string, opts provider.SpeakOpts) error {
	rc, _, err := p.client.synthesize(ctx, text, opts.Voice)
	if err != nil {
		return corerrors.Wrap(corerrors.ProviderFaulted, "piper: synthesis failed", err)
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return corerrors.Wrap(corerrors.IO, "piper: create output file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return corerrors.Wrap(corerrors.IO, "piper: write output file", err)
	}
	return nil
}

func isWAVContentType(ct string) bool {
	return ct == "audio/wav" || ct == "audio/x-wav" || ct == "audio/wave"
}

func orDefault(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

func orDefaultInt(n, d int) int {
	if n == 0 {
		return d
	}
	return n
}

func f(v float64) *float64 { return &v }
