// Package openai implements the built-in "openai" ASR provider (spec
// §11: the openai-go client "also usable as an ASR (Whisper API)
// provider"): raw PCM is wrapped in a WAV container and posted to the
// Whisper transcription endpoint via the same openai-go client
// construction as internal/providers/llm/openai.
package openai

import (
	"bytes"
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/pkg/io/audio/wav"
)

func init() {
	provider.Register(provider.Descriptor{
		Kind: provider.KindASR,
		Name: "openai",
		Factory: func(cfg map[string]any) (any, error) {
			return New(cfg)
		},
		CredentialKeys:     []string{"api_key"},
		SupportedPlatforms: []string{"linux", "darwin", "windows"},
	})
}

type Provider struct {
	client     openai.Client
	model      string
	sampleRate int
	channels   int
}

func New(cfg map[string]any) (*Provider, error) {
	apiKey := provider.StringOpt(cfg, "api_key", "")
	if apiKey == "" {
		return nil, corerrors.New(corerrors.DependencyMissing, "openai: providers.asr.openai.api_key is required")
	}
	return &Provider{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:      provider.StringOpt(cfg, "model", "whisper-1"),
		sampleRate: provider.IntOpt(cfg, "sample_rate", 16000),
		channels:   provider.IntOpt(cfg, "channels", 1),
	}, nil
}

func (p *Provider) IsAvailable() bool { return true }

func (p *Provider) GetParameterSchema() []provider.ParameterSpec {
	return []provider.ParameterSpec{{Name: "language", Kind: "string"}}
}

func (p *Provider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: false, Concurrent: true, Formats: []string{"pcm_s16le"}}
}

func (p *Provider) SupportedLanguages() []string {
	// Whisper supports ~100 languages; corvid only needs to declare the
	// ones the donation/textproc layer is configured for (spec §4.2
	// tie-break consults this list, not an exhaustive ISO table).
	return []string{"en", "es", "fr", "de", "ru", "pt", "it"}
}

func (p *Provider) SupportedFormats() []string { return []string{"pcm_s16le"} }

func (p *Provider) Transcribe(ctx context.Context, audio []byte, opts provider.TranscribeOpts) (string, error) {
	wavBytes := wav.EncodePCM16(audio, p.sampleRate, p.channels)

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(p.model),
		File:  openai.File(bytes.NewReader(wavBytes), "audio.wav", "audio/wav"),
	}
	if opts.Language != "" {
		params.Language = openai.String(opts.Language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", corerrors.Wrap(corerrors.ProviderFaulted, "openai transcription failed", err)
	}
	return resp.Text, nil
}

// TranscribeStream is unsupported; the coordinator buffers for us
// (spec §4.2 "streaming requested but provider not streaming").
func (p *Provider) TranscribeStream(ctx context.Context, chunks <-chan []byte, opts provider.TranscribeOpts) (<-chan provider.StreamResult, error) {
	return nil, corerrors.New(corerrors.Internal, "openai ASR provider does not implement native streaming")
}
