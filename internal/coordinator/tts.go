package coordinator

import (
	"context"

	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/registry"
)

// TTS wraps the Universal Coordinator for the TTS capability.
type TTS struct {
	*Coordinator
}

func NewTTS(c *Coordinator) *TTS { return &TTS{Coordinator: c} }

func (t *TTS) Speak(ctx context.Context, text string, providerName string, opts provider.SpeakOpts) error {
	_, err := resolve(t.Coordinator, providerName, func(inst registry.Instance) (struct{}, error) {
		tts, ok := inst.Value.(provider.TTS)
		if !ok {
			return struct{}{}, notTTS(inst)
		}
		if opts.Language != "" && !supportsLanguage(tts.SupportedLanguages(), opts.Language) {
			return struct{}{}, languageMismatch(inst.Descriptor.Name)
		}
		opts.Extra = t.filterKnownParams(inst.Descriptor.Name, tts.GetParameterSchema(), opts.Extra)
		return struct{}{}, tts.Speak(ctx, text, opts)
	})
	return err
}

func (t *TTS) ToFile(ctx context.Context, text, path string, providerName string, opts provider.SpeakOpts) error {
	_, err := resolve(t.Coordinator, providerName, func(inst registry.Instance) (struct{}, error) {
		tts, ok := inst.Value.(provider.TTS)
		if !ok {
			return struct{}{}, notTTS(inst)
		}
		if opts.Language != "" && !supportsLanguage(tts.SupportedLanguages(), opts.Language) {
			return struct{}{}, languageMismatch(inst.Descriptor.Name)
		}
		opts.Extra = t.filterKnownParams(inst.Descriptor.Name, tts.GetParameterSchema(), opts.Extra)
		return struct{}{}, tts.ToFile(ctx, text, path, opts)
	})
	return err
}
