package pgsink

import "testing"

func TestEmbedIsDeterministic(t *testing.T) {
	a := embed("set a timer for five minutes")
	b := embed("set a timer for five minutes")
	if len(a) != embeddingDim {
		t.Fatalf("expected dimension %d, got %d", embeddingDim, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected deterministic embedding, differs at index %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestEmbedDiffersForDifferentText(t *testing.T) {
	a := embed("turn on the lights")
	b := embed("what's the weather tomorrow")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected distinct inputs to produce distinct embeddings")
	}
}

func TestEmbedHandlesEmptyString(t *testing.T) {
	v := embed("")
	if len(v) != embeddingDim {
		t.Fatalf("expected dimension %d, got %d", embeddingDim, len(v))
	}
	for i, f := range v {
		if f != 0 {
			t.Fatalf("expected zero vector for empty text, index %d = %f", i, f)
		}
	}
}
