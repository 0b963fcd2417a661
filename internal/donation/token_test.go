package donation

import "testing"

func TestTokenizeSplitsOnWhitespaceAndPunctuation(t *testing.T) {
	tokens := Tokenize("Set a timer, please!")
	want := []string{"Set", "a", "timer", "please"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Text != w {
			t.Errorf("token %d: expected text %q, got %q", i, w, tokens[i].Text)
		}
	}
}

func TestTokenizeLemmaIsLowercased(t *testing.T) {
	tokens := Tokenize("SET Timer")
	if tokens[0].Lemma != "set" {
		t.Errorf("expected lemma 'set', got %q", tokens[0].Lemma)
	}
	if tokens[1].Lemma != "timer" {
		t.Errorf("expected lemma 'timer', got %q", tokens[1].Lemma)
	}
}

func TestTokenizeHandlesCyrillic(t *testing.T) {
	tokens := Tokenize("Поставь Таймер")
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %+v", len(tokens), tokens)
	}
	if tokens[0].Lemma != "поставь" {
		t.Errorf("expected lowercased cyrillic lemma, got %q", tokens[0].Lemma)
	}
	if tokens[1].Lemma != "таймер" {
		t.Errorf("expected lowercased cyrillic lemma, got %q", tokens[1].Lemma)
	}
}

func TestTokenizeEmptyString(t *testing.T) {
	tokens := Tokenize("")
	if len(tokens) != 0 {
		t.Errorf("expected no tokens, got %+v", tokens)
	}
}

func TestTokenizeKeepsHyphenAndApostrophe(t *testing.T) {
	tokens := Tokenize("don't stop-watch")
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %+v", len(tokens), tokens)
	}
	if tokens[0].Text != "don't" {
		t.Errorf("expected apostrophe kept, got %q", tokens[0].Text)
	}
	if tokens[1].Text != "stop-watch" {
		t.Errorf("expected hyphen kept, got %q", tokens[1].Text)
	}
}
