package textproc

import "github.com/corvid-assistant/corvid/internal/config"

// BuildProcessor wires the three mandatory normalizers (spec §4.3) in the
// order and with the enable/stage overrides given by cfg.Normalizers,
// falling back to each normalizer's spec-mandated default stage set when
// a config entry doesn't override it.
func BuildProcessor(cfg config.TextProcessingConfig) *Processor {
	direction := TransliterateDirection(cfg.TransliterateMap)

	builtins := map[string]Normalizer{
		"number":          NewNumberNormalizer(),
		"prepare":         NewPrepareNormalizer(direction),
		"advanced_locale": NewAdvancedLocaleNormalizer(cfg.Locale),
	}

	order := cfg.Normalizers
	if len(order) == 0 {
		order = []config.NormalizerConfig{
			{Name: "advanced_locale", Enabled: true},
			{Name: "number", Enabled: true},
			{Name: "prepare", Enabled: true},
		}
	}

	chain := make([]Normalizer, 0, len(order))
	for _, nc := range order {
		if !nc.Enabled {
			continue
		}
		n, ok := builtins[nc.Name]
		if !ok {
			continue
		}
		if len(nc.Stages) > 0 {
			declared := n.Stages()
			stages := toStageSet(nc.Stages)
			for s := range stages {
				if !declared[s] {
					delete(stages, s)
				}
			}
			n = withStageOverride{Normalizer: n, stages: stages}
		}
		chain = append(chain, n)
	}
	return NewProcessor(chain)
}

// withStageOverride lets config narrow (but not invent) the stages a
// normalizer runs on — e.g. disabling PrepareNormalizer's general-stage
// pass while keeping it for tts_input.
type withStageOverride struct {
	Normalizer
	stages map[Stage]bool
}

func (w withStageOverride) Stages() map[Stage]bool { return w.stages }

func toStageSet(stages []string) map[Stage]bool {
	m := make(map[Stage]bool, len(stages))
	for _, s := range stages {
		m[Stage(s)] = true
	}
	return m
}
