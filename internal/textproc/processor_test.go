package textproc

import "testing"

type upperNormalizer struct {
	stages map[Stage]bool
}

func (u upperNormalizer) Name() string             { return "upper" }
func (u upperNormalizer) Stages() map[Stage]bool   { return u.stages }
func (u upperNormalizer) Normalize(text string, _ Stage) (string, error) {
	out := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= 'a' && c <= 'z' {
			c -= 32
		}
		out[i] = c
	}
	return string(out), nil
}

func TestProcessorAppliesOnlyMatchingStage(t *testing.T) {
	n := upperNormalizer{stages: stageSet(StageASROutput)}
	p := NewProcessor([]Normalizer{n})

	out, err := p.Apply("hello", StageASROutput)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if out != "HELLO" {
		t.Errorf("expected HELLO, got %q", out)
	}

	out, err = p.Apply("hello", StageGeneral)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if out != "hello" {
		t.Errorf("expected untouched text for non-matching stage, got %q", out)
	}
}

func TestProcessorOrderIsPreserved(t *testing.T) {
	p := NewProcessor([]Normalizer{
		NewNumberNormalizer(),
		NewPrepareNormalizer(TransliterateNone),
	})

	out, err := p.Apply("there are  5   cats & dogs", StageGeneral)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	want := "there are five cats and dogs"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}
