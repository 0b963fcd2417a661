// Package donation implements the intent donation store and two-level
// matcher of spec §4.5: per-(handler, language) declarative documents
// describing how utterances map to handler methods, validated for the
// lemma-sync and cross-language parity invariants and compiled into a
// lemma-index + pattern matcher.
package donation

// TokenMatcher matches one token in an utterance against a lemma,
// surface form, part-of-speech tag, or an enumerated LEMMA.IN set (spec
// §9 donation file format). Op is an optional quantifier ("?", "+", "*";
// empty means exactly one).
type TokenMatcher struct {
	Lemma   string   `json:"lemma,omitempty"`
	LemmaIn []string `json:"lemma_in,omitempty"`
	Text    string   `json:"text,omitempty"`
	POS     string   `json:"pos,omitempty"`
	Op      string   `json:"op,omitempty"`
}

// Matches reports whether this matcher accepts the given token. A
// single Lemma constraint also accepts a close Jaro-Winkler match, so a
// mistranscribed ASR token ("timber" for "timer") still satisfies a
// pattern built around the correctly spelled lemma.
func (tm TokenMatcher) Matches(tok Token) bool {
	if tm.Lemma != "" && tok.Lemma != tm.Lemma && bestLemmaScore(tok.Lemma, []string{tm.Lemma}) < fuzzyThreshold {
		return false
	}
	if len(tm.LemmaIn) > 0 && !containsString(tm.LemmaIn, tok.Lemma) {
		return false
	}
	if tm.Text != "" && tok.Text != tm.Text {
		return false
	}
	if tm.POS != "" && tok.POS != tm.POS {
		return false
	}
	return true
}

// Lemmas returns every literal lemma this matcher references, for the
// lemma-sync invariant check.
func (tm TokenMatcher) Lemmas() []string {
	if tm.Lemma != "" {
		return []string{tm.Lemma}
	}
	if len(tm.LemmaIn) > 0 {
		return append([]string(nil), tm.LemmaIn...)
	}
	return nil
}

// TokenPattern is one candidate sequence of token matchers.
type TokenPattern []TokenMatcher

func (p TokenPattern) Lemmas() []string {
	var out []string
	for _, tm := range p {
		out = append(out, tm.Lemmas()...)
	}
	return out
}

// Example is a sample utterance with its expected parameter extraction,
// used by `validate-donations` and admin-surface regression checks.
type Example struct {
	Text       string            `json:"text"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// MethodDonation is one handler method's trigger description (spec §3).
type MethodDonation struct {
	MethodName   string                    `json:"method_name"`
	IntentSuffix string                    `json:"intent_suffix"`
	Description  string                    `json:"description,omitempty"`
	GlobalParams []string                  `json:"global_params,omitempty"`
	Lemmas       []string                  `json:"lemmas"`
	TokenPatterns []TokenPattern           `json:"token_patterns"`
	SlotPatterns map[string][]TokenPattern `json:"slot_patterns,omitempty"`
	Examples     []Example                 `json:"examples,omitempty"`
}

// ParameterNames returns the set of parameter names this method declares
// (global params plus every slot name), used for cross-language parity.
func (m MethodDonation) ParameterNames() map[string]bool {
	names := make(map[string]bool, len(m.GlobalParams)+len(m.SlotPatterns))
	for _, p := range m.GlobalParams {
		names[p] = true
	}
	for slot := range m.SlotPatterns {
		names[slot] = true
	}
	return names
}

// referencedLemmas returns the union of lemmas appearing in this
// method's token_patterns and slot_patterns (spec §4.5 lemma-sync LHS).
func (m MethodDonation) referencedLemmas() map[string]bool {
	set := make(map[string]bool)
	for _, pattern := range m.TokenPatterns {
		for _, l := range pattern.Lemmas() {
			set[l] = true
		}
	}
	for _, patterns := range m.SlotPatterns {
		for _, pattern := range patterns {
			for _, l := range pattern.Lemmas() {
				set[l] = true
			}
		}
	}
	return set
}

// Donation is a full per-(handler, language) document.
type Donation struct {
	HandlerDomain   string            `json:"handler_domain"`
	Language        string            `json:"language"`
	Description     string            `json:"description,omitempty"`
	SchemaVersion   int               `json:"schema_version"`
	DonationVersion int               `json:"donation_version"`
	MethodDonations []MethodDonation  `json:"method_donations"`
}

const CurrentSchemaVersion = 1

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
