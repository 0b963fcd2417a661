// Package remote implements the built-in "remote" ASR provider (spec
// §11: coder/websocket as "an alternate lightweight WS dialer used by
// outbound provider clients, e.g. a streaming ASR provider talking to
// a remote recognizer"), grounded on MrWong99-glyphoxa's deepgram
// streaming provider: a single long-lived WS connection per
// TranscribeStream call, binary audio frames out, JSON transcript
// events in.
package remote

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/coder/websocket"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
)

func init() {
	provider.Register(provider.Descriptor{
		Kind: provider.KindASR,
		Name: "remote",
		Factory: func(cfg map[string]any) (any, error) {
			return New(cfg), nil
		},
		SupportedPlatforms: []string{"linux", "darwin", "windows"},
	})
}

type Provider struct {
	endpoint   string
	sampleRate int
}

func New(cfg map[string]any) *Provider {
	return &Provider{
		endpoint:   provider.StringOpt(cfg, "endpoint", "ws://localhost:9000/asr"),
		sampleRate: provider.IntOpt(cfg, "sample_rate", 16000),
	}
}

func (p *Provider) IsAvailable() bool { return p.endpoint != "" }

func (p *Provider) GetParameterSchema() []provider.ParameterSpec {
	return []provider.ParameterSpec{{Name: "language", Kind: "string"}}
}

func (p *Provider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: true, Realtime: true, Formats: []string{"pcm_s16le"}}
}

func (p *Provider) SupportedLanguages() []string { return []string{"en", "es", "fr", "de"} }
func (p *Provider) SupportedFormats() []string   { return []string{"pcm_s16le"} }

// Transcribe opens a stream, writes audio as a single frame, and waits
// for one final transcript — the non-streaming entry point delegating
// to the same wire protocol as TranscribeStream.
func (p *Provider) Transcribe(ctx context.Context, audio []byte, opts provider.TranscribeOpts) (string, error) {
	chunks := make(chan []byte, 1)
	chunks <- audio
	close(chunks)

	results, err := p.TranscribeStream(ctx, chunks, opts)
	if err != nil {
		return "", err
	}
	var last string
	for r := range results {
		if r.Err != nil {
			return "", r.Err
		}
		if r.Final {
			last = r.Text
		}
	}
	return last, nil
}

type transcriptEvent struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// TranscribeStream dials the remote recognizer once, pumps chunks as
// binary frames, and relays decoded JSON transcript events until the
// input channel closes or ctx is cancelled.
func (p *Provider) TranscribeStream(ctx context.Context, chunks <-chan []byte, opts provider.TranscribeOpts) (<-chan provider.StreamResult, error) {
	wsURL, err := p.buildURL(opts)
	if err != nil {
		return nil, corerrors.Wrap(corerrors.Internal, "remote ASR: build URL", err)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, corerrors.Wrap(corerrors.ProviderFaulted, "remote ASR: dial failed", err)
	}

	out := make(chan provider.StreamResult, 8)

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "transcription complete")
		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					return
				}
				if err := conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
					out <- provider.StreamResult{Err: corerrors.Wrap(corerrors.ProviderFaulted, "remote ASR: write failed", err), Final: true}
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(out)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var ev transcriptEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			out <- provider.StreamResult{Text: ev.Text, Final: ev.Final}
			if ev.Final {
				return
			}
		}
	}()

	return out, nil
}

func (p *Provider) buildURL(opts provider.TranscribeOpts) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	q.Set("sample_rate", strconv.Itoa(p.sampleRate))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
