// Package config implements the hierarchical, typed configuration tree of
// spec §3/§6: TOML on disk, env-var override, and the sections that gate
// provider instantiation, text processing, intents, the web API, wake
// word, and logging.
package config

import "time"

// ProviderConfig is one [providers.<kind>.<name>] table. Every provider
// entry carries at minimum Enabled plus provider-specific Options; the
// config is the sole authority for instantiation (spec §3 Configuration
// contract / §8 invariant "P ∈ registry(K) ⇒ config.providers.K.P.enabled").
type ProviderConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Default bool           `mapstructure:"default"`
	Options map[string]any `mapstructure:",remain"`
}

type CoreConfig struct {
	Env            string `mapstructure:"env"`
	Debug          bool   `mapstructure:"debug"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
}

type ComponentsConfig struct {
	// Which high-level subsystems are active; e.g. a headless text-only
	// deployment sets IntentSystem=true, Pipeline=true, WakeWordGate=false
	// (spec §8 scenario 1: "config enables intent_system only").
	IntentSystem bool `mapstructure:"intent_system"`
	Pipeline     bool `mapstructure:"pipeline"`
	WakeWordGate bool `mapstructure:"wake_word_gate"`
}

type AssetsConfig struct {
	Root string `mapstructure:"root"`
}

type NormalizerConfig struct {
	Name    string   `mapstructure:"name"`
	Enabled bool     `mapstructure:"enabled"`
	Stages  []string `mapstructure:"stages"`
}

type TextProcessingConfig struct {
	Normalizers      []NormalizerConfig `mapstructure:"normalizers"`
	TransliterateMap string             `mapstructure:"transliterate_map"` // e.g. "ru-latin"
	Locale           string             `mapstructure:"locale"`
}

type IntentsConfig struct {
	DonationsDir string `mapstructure:"donations_dir"`
	StrictSchema bool   `mapstructure:"strict_schema"`
	// MatchThreshold below which the matcher yields IntentUnresolved
	// (spec §4.5 matcher tie-break #3).
	MatchThreshold float64 `mapstructure:"match_threshold"`
}

type WebAPIConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	AuthToken   string   `mapstructure:"auth_token"` // empty = auth disabled
}

type WakeWordConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	ModelPath         string  `mapstructure:"model_path"`
	Threshold         float64 `mapstructure:"threshold"`
	TriggerDurationMs int     `mapstructure:"trigger_duration_ms"`
	InferenceInterval int     `mapstructure:"inference_interval_ms"`
	SampleRate        int     `mapstructure:"sample_rate"`
	RingBufferBytes   int     `mapstructure:"ring_buffer_bytes"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" | "console"
}

// SessionStoreConfig selects the optional audit-trail persistence for
// the bounded session store (spec §11). Backend "" or "memory" (the
// default) keeps sessions purely in-memory and TTL-evicted per spec
// §3; Backend "postgres" additionally mirrors every interaction to a
// Postgres-backed session.Sink, keyed by DSN.
type SessionStoreConfig struct {
	Backend string `mapstructure:"backend"` // "" | "memory" | "postgres"
	DSN     string `mapstructure:"dsn"`
}

// StageDeadlines holds the per-stage cancellation deadlines of spec §5.
type StageDeadlines struct {
	ASR     time.Duration `mapstructure:"asr"`
	LLM     time.Duration `mapstructure:"llm"`
	TTS     time.Duration `mapstructure:"tts"`
	Handler time.Duration `mapstructure:"handler"`
}

func DefaultStageDeadlines() StageDeadlines {
	return StageDeadlines{
		ASR:     10 * time.Second,
		LLM:     30 * time.Second,
		TTS:     15 * time.Second,
		Handler: 5 * time.Second,
	}
}

// Settings is the full config tree (spec §3 Configuration sections).
type Settings struct {
	Core           CoreConfig                           `mapstructure:"core"`
	Components     ComponentsConfig                     `mapstructure:"components"`
	Providers      map[string]map[string]ProviderConfig `mapstructure:"providers"`
	Assets         AssetsConfig                         `mapstructure:"assets"`
	TextProcessing TextProcessingConfig                  `mapstructure:"text_processing"`
	Intents        IntentsConfig                        `mapstructure:"intents"`
	WebAPI         WebAPIConfig                          `mapstructure:"webapi"`
	WakeWord       WakeWordConfig                        `mapstructure:"wake_word"`
	Logging        LoggingConfig                         `mapstructure:"logging"`
	Deadlines      StageDeadlines                        `mapstructure:"deadlines"`
	SessionStore   SessionStoreConfig                    `mapstructure:"session_store"`
}

// ProviderEnabled reports whether a (kind, name) provider is enabled,
// the sole gate the registry consults (spec §4.1 registry algorithm).
func (s *Settings) ProviderEnabled(kind, name string) bool {
	byKind, ok := s.Providers[kind]
	if !ok {
		return false
	}
	pc, ok := byKind[name]
	return ok && pc.Enabled
}

// DefaultProviderName returns the configured default for a kind, if any
// provider in that kind is marked default: true.
func (s *Settings) DefaultProviderName(kind string) (string, bool) {
	for name, pc := range s.Providers[kind] {
		if pc.Enabled && pc.Default {
			return name, true
		}
	}
	return "", false
}
