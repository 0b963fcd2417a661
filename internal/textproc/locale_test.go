package textproc

import "testing"

func TestAdvancedLocaleNormalizerRussianOrdinal(t *testing.T) {
	n := NewAdvancedLocaleNormalizer("ru")

	out, err := n.Normalize("встреча 3-го числа", StageTTSInput)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out != "встреча третьего числа" {
		t.Errorf("expected ordinal inflection, got %q", out)
	}
}

func TestAdvancedLocaleNormalizerNonRussianPassthrough(t *testing.T) {
	n := NewAdvancedLocaleNormalizer("en")

	in := "the 3-го meeting"
	out, err := n.Normalize(in, StageTTSInput)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out != in {
		t.Errorf("expected passthrough for non-ru locale, got %q", out)
	}
}

func TestAdvancedLocaleNormalizerOnlyTTSInput(t *testing.T) {
	n := NewAdvancedLocaleNormalizer("ru")
	stages := n.Stages()
	if !stages[StageTTSInput] {
		t.Errorf("expected tts_input to be declared")
	}
	if stages[StageASROutput] || stages[StageGeneral] || stages[StageCommandInput] {
		t.Errorf("advanced_locale must only apply to tts_input, got %v", stages)
	}
}
