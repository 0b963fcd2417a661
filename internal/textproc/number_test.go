package textproc

import "testing"

func TestNumberNormalizerBasic(t *testing.T) {
	n := NewNumberNormalizer()

	out, err := n.Normalize("I have 5 apples", StageASROutput)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out != "I have five apples" {
		t.Errorf("expected 'I have five apples', got %q", out)
	}
}

func TestNumberNormalizerHundreds(t *testing.T) {
	n := NewNumberNormalizer()

	out, err := n.Normalize("set timer for 125 seconds", StageGeneral)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	want := "set timer for one hundred twenty-five seconds"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestNumberNormalizerLongRunLeftAlone(t *testing.T) {
	n := NewNumberNormalizer()

	out, err := n.Normalize("call 15551234567890", StageGeneral)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out != "call 15551234567890" {
		t.Errorf("expected long digit run to pass through unchanged, got %q", out)
	}
}

func TestNumberNormalizerIdempotent(t *testing.T) {
	n := NewNumberNormalizer()

	once, err := n.Normalize("I have 5 apples", StageGeneral)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	twice, err := n.Normalize(once, StageGeneral)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if once != twice {
		t.Errorf("expected idempotence, got %q then %q", once, twice)
	}
}

func TestNumberNormalizerStages(t *testing.T) {
	n := NewNumberNormalizer()
	stages := n.Stages()
	for _, s := range []Stage{StageASROutput, StageGeneral, StageTTSInput} {
		if !stages[s] {
			t.Errorf("expected stage %s to be declared", s)
		}
	}
	if stages[StageCommandInput] {
		t.Errorf("did not expect command_input to be declared")
	}
}
