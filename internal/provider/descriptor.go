// Package provider defines the capability interfaces (ASR, TTS, Audio, LLM,
// WakeWord) and the immutable descriptor metadata every built-in or
// out-of-tree implementation declares, per spec §3 and §4.1.
package provider

// Kind identifies a capability family.
type Kind string

const (
	KindASR      Kind = "asr"
	KindTTS      Kind = "tts"
	KindAudio    Kind = "audio"
	KindLLM      Kind = "llm"
	KindWakeWord Kind = "wakeword"
)

// Factory builds a provider instance from typed config. Per the shared
// per-interface contract (§4.1), New must be total and perform no I/O.
type Factory func(cfg map[string]any) (any, error)

// Descriptor is the immutable record created once at registry scan time
// (spec §3 "Provider descriptor"). It is never mutated after discovery.
type Descriptor struct {
	Namespace string
	Name      string
	Kind      Kind
	Factory   Factory

	// Declared dependency/credential metadata, surfaced without
	// instantiating the provider (spec §4.1: "The registry consumes
	// these without instantiating").
	PythonDependencies   []string
	PlatformDependencies map[string][]string // platform -> deps
	CredentialKeys       []string
	SupportedPlatforms   []string
}

// FullName is the registry key: "<kind>.<name>".
func (d Descriptor) FullName() string {
	return string(d.Kind) + "." + d.Name
}

// ParameterSpec describes one accepted per-call parameter, returned by
// GetParameterSchema (spec §4.1 shared contract).
type ParameterSpec struct {
	Name    string
	Kind    string // "string" | "int" | "float" | "bool" | "enum"
	Enum    []string
	Min     *float64
	Max     *float64
	Default any
}

// Capabilities is the static capability map returned by GetCapabilities.
type Capabilities struct {
	Languages  []string
	Formats    []string
	Streaming  bool
	Realtime   bool
	Concurrent bool // false => coordinator serializes calls to this provider
}

// Base is the shared per-interface contract every capability interface
// embeds (spec §4.1 table).
type Base interface {
	// IsAvailable must be idempotent and complete in <100ms; it may probe
	// imports/files but must not block on a model call.
	IsAvailable() bool
	GetParameterSchema() []ParameterSpec
	GetCapabilities() Capabilities
}

// MetadataFactory is implemented by the class-level discovery metadata a
// provider package exposes so the registry can reason about a provider
// without constructing one (spec §4.1: "four class-level metadata
// methods"). Built-in manifest entries carry this alongside the Factory.
type MetadataFactory struct {
	PythonDependencies   func() []string
	PlatformDependencies func(platform string) []string
	PlatformSupport      func() []string
	DefaultCredentials   func() []string
}
