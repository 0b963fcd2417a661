package coordinator

import (
	"context"
	"testing"

	"github.com/corvid-assistant/corvid/internal/config"
	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/registry"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

type fakeASR struct {
	name      string
	languages []string
	faulty    bool
	streaming bool
	schema    []provider.ParameterSpec
	gotExtra  map[string]any
}

func (f *fakeASR) IsAvailable() bool                            { return true }
func (f *fakeASR) GetParameterSchema() []provider.ParameterSpec { return f.schema }
func (f *fakeASR) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{Languages: f.languages, Streaming: f.streaming}
}
func (f *fakeASR) SupportedLanguages() []string { return f.languages }
func (f *fakeASR) SupportedFormats() []string   { return []string{"wav"} }

func (f *fakeASR) Transcribe(ctx context.Context, audio []byte, opts provider.TranscribeOpts) (string, error) {
	if f.faulty {
		return "", corerrors.New(corerrors.ProviderFaulted, f.name+" is faulty")
	}
	f.gotExtra = opts.Extra
	return "hello from " + f.name, nil
}

func (f *fakeASR) TranscribeStream(ctx context.Context, chunks <-chan []byte, opts provider.TranscribeOpts) (<-chan provider.StreamResult, error) {
	out := make(chan provider.StreamResult, 1)
	out <- provider.StreamResult{Text: "streamed from " + f.name, Final: true}
	close(out)
	return out, nil
}

func buildRegistry(t *testing.T, providers map[string]*fakeASR) *registry.Registry {
	t.Helper()
	m := provider.NewManifest()
	byName := make(map[string]config.ProviderConfig, len(providers))
	for name, p := range providers {
		p := p
		m.Register(provider.Descriptor{
			Kind: provider.KindASR,
			Name: name,
			Factory: func(cfg map[string]any) (any, error) {
				return p, nil
			},
		})
		byName[name] = config.ProviderConfig{Enabled: true}
	}
	settings := &config.Settings{Providers: map[string]map[string]config.ProviderConfig{"asr": byName}}
	r := registry.New(provider.KindASR, logger.New(true))
	r.Scan(m, settings)
	return r
}

func TestASRTranscribeUsesDefault(t *testing.T) {
	reg := buildRegistry(t, map[string]*fakeASR{"primary": {name: "primary"}})
	c := New(reg, logger.New(true), "primary", nil)
	asr := NewASR(c)

	out, err := asr.Transcribe(context.Background(), nil, "", provider.TranscribeOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello from primary" {
		t.Errorf("expected default provider response, got %q", out)
	}
}

func TestASRTranscribeFallsBackOnFault(t *testing.T) {
	reg := buildRegistry(t, map[string]*fakeASR{
		"primary":   {name: "primary", faulty: true},
		"secondary": {name: "secondary"},
	})
	c := New(reg, logger.New(true), "primary", []string{"secondary"})
	asr := NewASR(c)

	out, err := asr.Transcribe(context.Background(), nil, "", provider.TranscribeOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello from secondary" {
		t.Errorf("expected fallback to secondary, got %q", out)
	}
}

func TestASRTranscribeLanguageMismatchFallsBack(t *testing.T) {
	reg := buildRegistry(t, map[string]*fakeASR{
		"en_only": {name: "en_only", languages: []string{"en"}},
		"ru_only": {name: "ru_only", languages: []string{"ru"}},
	})
	c := New(reg, logger.New(true), "en_only", []string{"ru_only"})
	asr := NewASR(c)

	out, err := asr.Transcribe(context.Background(), nil, "", provider.TranscribeOpts{Language: "ru"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello from ru_only" {
		t.Errorf("expected language-mismatch fallback to ru_only, got %q", out)
	}
}

func TestASRTranscribeExhaustedFallbackReturnsError(t *testing.T) {
	reg := buildRegistry(t, map[string]*fakeASR{
		"primary": {name: "primary", faulty: true},
	})
	c := New(reg, logger.New(true), "primary", nil)
	asr := NewASR(c)

	_, err := asr.Transcribe(context.Background(), nil, "", provider.TranscribeOpts{})
	if err == nil {
		t.Fatal("expected error when all candidates are exhausted")
	}
}

func TestASRDropsUnknownParameter(t *testing.T) {
	p := &fakeASR{name: "primary", schema: []provider.ParameterSpec{{Name: "beam_size"}}}
	reg := buildRegistry(t, map[string]*fakeASR{"primary": p})
	c := New(reg, logger.New(true), "primary", nil)
	asr := NewASR(c)

	_, err := asr.Transcribe(context.Background(), nil, "", provider.TranscribeOpts{
		Extra: map[string]any{"beam_size": 5, "unsupported_knob": true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.gotExtra["unsupported_knob"]; ok {
		t.Error("expected unknown parameter to be dropped")
	}
	if _, ok := p.gotExtra["beam_size"]; !ok {
		t.Error("expected known parameter to be preserved")
	}
}

func TestASRTranscribeStreamBuffersNonStreamingProvider(t *testing.T) {
	reg := buildRegistry(t, map[string]*fakeASR{"primary": {name: "primary", streaming: false}})
	c := New(reg, logger.New(true), "primary", nil)
	asr := NewASR(c)

	chunks := make(chan []byte, 1)
	chunks <- []byte("abc")
	close(chunks)

	results, err := asr.TranscribeStream(context.Background(), chunks, "", provider.TranscribeOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final := <-results
	if final.Text != "hello from primary" || !final.Final {
		t.Errorf("expected buffered final result, got %+v", final)
	}
}

func TestASRTranscribeStreamStrictRejectsNonStreaming(t *testing.T) {
	reg := buildRegistry(t, map[string]*fakeASR{"primary": {name: "primary", streaming: false}})
	c := New(reg, logger.New(true), "primary", nil)
	asr := NewASR(c)

	chunks := make(chan []byte)
	close(chunks)

	_, err := asr.TranscribeStream(context.Background(), chunks, "", provider.TranscribeOpts{StrictStreaming: true})
	if err == nil {
		t.Fatal("expected error for strict_streaming against a non-streaming provider")
	}
}

func TestSetDefaultValidatesName(t *testing.T) {
	reg := buildRegistry(t, map[string]*fakeASR{"primary": {name: "primary"}})
	c := New(reg, logger.New(true), "primary", nil)

	if err := c.SetDefault("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown provider name")
	}
	if err := c.SetDefault("primary"); err != nil {
		t.Fatalf("unexpected error setting a valid default: %v", err)
	}
}

func TestListProvidersReportsAvailability(t *testing.T) {
	reg := buildRegistry(t, map[string]*fakeASR{"primary": {name: "primary"}})
	c := New(reg, logger.New(true), "primary", nil)

	infos := c.ListProviders()
	if len(infos) != 1 || infos[0].Name != "primary" || !infos[0].Available {
		t.Errorf("unexpected provider listing: %+v", infos)
	}
}
