package coordinator

import (
	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/registry"
)

// notASR, languageMismatch, and notStreaming all return ProviderFaulted
// so resolve's fallback loop treats them as recoverable — trying the
// next candidate is exactly the tie-break spec §4.2 calls for in each
// case, not a caller-visible failure of the whole invoke.

func notASR(inst registry.Instance) error {
	return corerrors.New(corerrors.ProviderFaulted, inst.Descriptor.FullName()+" is not an ASR provider")
}

func notTTS(inst registry.Instance) error {
	return corerrors.New(corerrors.ProviderFaulted, inst.Descriptor.FullName()+" is not a TTS provider")
}

func notAudio(inst registry.Instance) error {
	return corerrors.New(corerrors.ProviderFaulted, inst.Descriptor.FullName()+" is not an Audio provider")
}

func notLLM(inst registry.Instance) error {
	return corerrors.New(corerrors.ProviderFaulted, inst.Descriptor.FullName()+" is not an LLM provider")
}

func notWakeWord(inst registry.Instance) error {
	return corerrors.New(corerrors.ProviderFaulted, inst.Descriptor.FullName()+" is not a WakeWord provider")
}

func languageMismatch(name string) error {
	return corerrors.New(corerrors.ProviderFaulted, name+" does not support requested language")
}

// notStreaming is ProviderFaulted, not ProviderUnavailable: a
// strict_streaming request should try the next fallback candidate in
// case it supports streaming, rather than giving up on the first
// non-streaming provider it happens to resolve to.
func notStreaming(name string) error {
	return corerrors.New(corerrors.ProviderFaulted, name+" does not support streaming and strict_streaming was set")
}
