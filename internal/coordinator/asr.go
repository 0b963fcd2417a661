package coordinator

import (
	"bytes"
	"context"

	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/registry"
)

// ASR wraps the Universal Coordinator for the ASR capability.
type ASR struct {
	*Coordinator
}

func NewASR(c *Coordinator) *ASR { return &ASR{Coordinator: c} }

// Transcribe invokes transcribe on the requested (or default) provider,
// falling back on ProviderFaulted and on a language mismatch between
// opts.Language and the provider's supported_languages (spec §4.2 tie-break:
// "language mismatch ... try next fallback rather than forcing").
func (a *ASR) Transcribe(ctx context.Context, audio []byte, providerName string, opts provider.TranscribeOpts) (string, error) {
	return resolve(a.Coordinator, providerName, func(inst registry.Instance) (string, error) {
		asr, ok := inst.Value.(provider.ASR)
		if !ok {
			return "", notASR(inst)
		}
		if opts.Language != "" && !supportsLanguage(asr.SupportedLanguages(), opts.Language) {
			return "", languageMismatch(inst.Descriptor.Name)
		}
		opts.Extra = a.filterKnownParams(inst.Descriptor.Name, asr.GetParameterSchema(), opts.Extra)
		return asr.Transcribe(ctx, audio, opts)
	})
}

// TranscribeStream invokes transcribe_stream; if the resolved provider
// doesn't support streaming, chunks are buffered and served through the
// buffered Transcribe path unless opts.StrictStreaming is set, per spec
// §4.2's "streaming requested but provider not streaming" tie-break.
func (a *ASR) TranscribeStream(ctx context.Context, chunks <-chan []byte, providerName string, opts provider.TranscribeOpts) (<-chan provider.StreamResult, error) {
	return resolve(a.Coordinator, providerName, func(inst registry.Instance) (<-chan provider.StreamResult, error) {
		asr, ok := inst.Value.(provider.ASR)
		if !ok {
			return nil, notASR(inst)
		}
		if !asr.GetCapabilities().Streaming {
			if opts.StrictStreaming {
				return nil, notStreaming(inst.Descriptor.Name)
			}
			return bufferedStream(ctx, asr, chunks, opts), nil
		}
		return asr.TranscribeStream(ctx, chunks, opts)
	})
}

func bufferedStream(ctx context.Context, asr provider.ASR, chunks <-chan []byte, opts provider.TranscribeOpts) <-chan provider.StreamResult {
	out := make(chan provider.StreamResult, 1)
	go func() {
		defer close(out)
		var buf bytes.Buffer
		for {
			select {
			case c, ok := <-chunks:
				if !ok {
					text, err := asr.Transcribe(ctx, buf.Bytes(), opts)
					out <- provider.StreamResult{Text: text, Final: true, Err: err}
					return
				}
				buf.Write(c)
			case <-ctx.Done():
				out <- provider.StreamResult{Err: ctx.Err(), Final: true}
				return
			}
		}
	}()
	return out
}

func supportsLanguage(supported []string, want string) bool {
	for _, s := range supported {
		if s == want {
			return true
		}
	}
	return false
}
