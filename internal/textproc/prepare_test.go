package textproc

import "testing"

func TestPrepareNormalizerWhitespaceCollapse(t *testing.T) {
	n := NewPrepareNormalizer(TransliterateNone)

	out, err := n.Normalize("hello    world  \t foo", StageGeneral)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out != "hello world foo" {
		t.Errorf("expected collapsed whitespace, got %q", out)
	}
}

func TestPrepareNormalizerSymbolFolding(t *testing.T) {
	n := NewPrepareNormalizer(TransliterateNone)

	out, err := n.Normalize("tom & jerry @ 5%", StageTTSInput)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out != "tom and jerry at 5 percent" {
		t.Errorf("unexpected symbol folding result: %q", out)
	}
}

func TestPrepareNormalizerCyrillicToLatin(t *testing.T) {
	n := NewPrepareNormalizer(TransliterateCyrillicToLatin)

	out, err := n.Normalize("привет", StageGeneral)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if out != "privet" {
		t.Errorf("expected 'privet', got %q", out)
	}
}

func TestPrepareNormalizerIdempotent(t *testing.T) {
	n := NewPrepareNormalizer(TransliterateCyrillicToLatin)

	once, err := n.Normalize("привет мир", StageGeneral)
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
