package provider

import (
	"context"
	"io"
)

// ASR is the speech-to-text capability interface (spec §4.1).
type ASR interface {
	Base
	Transcribe(ctx context.Context, audio []byte, opts TranscribeOpts) (string, error)
	// TranscribeStream is optional; providers that don't support streaming
	// leave Capabilities.Streaming false and the coordinator buffers
	// (spec §4.2 "Streaming requested but provider not streaming").
	TranscribeStream(ctx context.Context, chunks <-chan []byte, opts TranscribeOpts) (<-chan StreamResult, error)
	SupportedLanguages() []string
	SupportedFormats() []string
}

type TranscribeOpts struct {
	Language        string
	Enhance         bool
	StrictStreaming bool
	Extra           map[string]any
}

type StreamResult struct {
	Text  string
	Final bool
	Err   error
}

// TTS is the text-to-speech capability interface.
type TTS interface {
	Base
	Speak(ctx context.Context, text string, opts SpeakOpts) error
	ToFile(ctx context.Context, text string, path string, opts SpeakOpts) error
	SupportedLanguages() []string
}

type SpeakOpts struct {
	Language string
	Voice    string
	Speed    float32
	Extra    map[string]any
}

// Audio is the audio-output capability interface.
type Audio interface {
	Base
	PlayFile(ctx context.Context, path string, opts PlayOpts) error
	PlayStream(ctx context.Context, chunks <-chan []byte, opts PlayOpts) error
	SetVolume(ctx context.Context, level float32) error
	Stop(ctx context.Context) error
	SupportedFormats() []string
}

type PlayOpts struct {
	Format   string
	Blocking bool
	Extra    map[string]any
}

// LLM is the large-language-model capability interface.
type LLM interface {
	Base
	Enhance(ctx context.Context, text string, task string, opts LLMOpts) (string, error)
	Chat(ctx context.Context, messages []ChatMessage, opts LLMOpts) (string, error)
	AvailableModels() []string
	SupportedTasks() []string
}

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole
	Content string
}

type LLMOpts struct {
	Model       string
	Temperature float32
	Extra       map[string]any
}

// WakeWord is the embedded-detector capability interface (spec §4.6).
type WakeWord interface {
	Base
	ProcessFrame(frame []int16) DetectionState
}

type DetectionPhase string

const (
	PhaseIdleListening DetectionPhase = "idle_listening"
	PhaseStreaming     DetectionPhase = "streaming"
	PhaseCooldown      DetectionPhase = "cooldown"
)

type DetectionState struct {
	Phase      DetectionPhase
	Confidence float64
	Detected   bool
	LatencyMs  float64
}

// StreamingASRCloser lets callers release provider-side streaming
// resources deterministically on cancellation (spec §4.4 cancellation
// never leaks a partially-committed response).
type StreamingASRCloser interface {
	io.Closer
}
