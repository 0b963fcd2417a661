package config

import (
	"fmt"

	"github.com/corvid-assistant/corvid/internal/corerrors"
)

// Validate checks structural invariants that mapstructure unmarshalling
// cannot express on its own: at most one default per kind, thresholds in
// range, deadlines positive (spec §6 "validated before the swap").
func Validate(s *Settings) error {
	for kind, byName := range s.Providers {
		defaults := 0
		for name, pc := range byName {
			if pc.Enabled && pc.Default {
				defaults++
			}
			if defaults > 1 {
				return corerrors.New(corerrors.ConfigInvalid,
					fmt.Sprintf("providers.%s: more than one enabled provider marked default (at %q)", kind, name)).
					WithField("section", "providers."+kind)
			}
		}
	}

	if s.Intents.MatchThreshold < 0 || s.Intents.MatchThreshold > 1 {
		return corerrors.New(corerrors.ConfigInvalid,
			"intents.match_threshold must be in [0,1]").WithField("section", "intents")
	}

	if s.WakeWord.Enabled {
		if s.WakeWord.Threshold < 0 || s.WakeWord.Threshold > 1 {
			return corerrors.New(corerrors.ConfigInvalid,
				"wake_word.threshold must be in [0,1]").WithField("section", "wake_word")
		}
		if s.WakeWord.SampleRate <= 0 {
			return corerrors.New(corerrors.ConfigInvalid,
				"wake_word.sample_rate must be positive").WithField("section", "wake_word")
		}
		if s.WakeWord.RingBufferBytes <= 0 {
			return corerrors.New(corerrors.ConfigInvalid,
				"wake_word.ring_buffer_bytes must be positive").WithField("section", "wake_word")
		}
	}

	d := s.Deadlines
	if d.ASR <= 0 || d.LLM <= 0 || d.TTS <= 0 || d.Handler <= 0 {
		return corerrors.New(corerrors.ConfigInvalid,
			"deadlines: all stage deadlines must be positive").WithField("section", "deadlines")
	}

	switch s.SessionStore.Backend {
	case "", "memory":
	case "postgres":
		if s.SessionStore.DSN == "" {
			return corerrors.New(corerrors.ConfigInvalid,
				"session_store.dsn is required when session_store.backend is \"postgres\"").
				WithField("section", "session_store")
		}
	default:
		return corerrors.New(corerrors.ConfigInvalid,
			fmt.Sprintf("session_store.backend %q is not one of memory, postgres", s.SessionStore.Backend)).
			WithField("section", "session_store")
	}

	return nil
}
