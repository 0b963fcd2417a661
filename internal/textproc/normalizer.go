// Package textproc implements the stage-addressable normalizer chain of
// spec §4.3: numbers, transliteration/symbol folding, and locale-specific
// pre-synthesis cleanup, shared by the ASR-output and TTS-input paths.
package textproc

// Stage is the scope tag a normalizer declares and the processor filters
// on. Pipeline stages request normalization for exactly one Stage.
type Stage string

const (
	StageASROutput    Stage = "asr_output"
	StageTTSInput     Stage = "tts_input"
	StageCommandInput Stage = "command_input"
	StageGeneral      Stage = "general"
)

// Normalizer is pure: normalize(text, stage) -> text. Implementations
// must be deterministic and idempotent within a single stage (spec §4.3
// invariant: normalize(normalize(t, s), s) == normalize(t, s)).
type Normalizer interface {
	Name() string
	Stages() map[Stage]bool
	Normalize(text string, stage Stage) (string, error)
}

func stageSet(stages ...Stage) map[Stage]bool {
	m := make(map[Stage]bool, len(stages))
	for _, s := range stages {
		m[s] = true
	}
	return m
}
