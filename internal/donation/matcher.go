package donation

import (
	"github.com/corvid-assistant/corvid/internal/corerrors"
)

// MatchResult is the outcome of a successful match: the resolved
// handler/method and any slots the pattern extracted.
type MatchResult struct {
	HandlerDomain string
	MethodName    string
	IntentSuffix  string
	Slots         map[string]string
	Confidence    float64
}

// compiledMethod is one method's entry in the matcher, carrying its
// declaration order within the handler for the tie-break rule.
type compiledMethod struct {
	handlerDomain string
	order         int
	method        MethodDonation
}

// Matcher is the compiled two-level structure of spec §4.5: a lemma
// index that prunes candidate methods per utterance, and per-candidate
// pattern matching against token_patterns/slot_patterns.
type Matcher struct {
	threshold float64
	// lemmaIndex maps a lemma to every method that references it anywhere
	// in its token_patterns or slot_patterns.
	lemmaIndex map[string][]*compiledMethod
	// noLemmaMethods holds methods whose token_patterns and slot_patterns
	// reference no lemma at all (rare, but must still be reachable).
	noLemmaMethods []*compiledMethod
	// metaphoneIndex backs the fuzzy-lemma fallback used when an ASR
	// mistranscription prevents an exact lemma-index hit.
	metaphoneIndex map[string][]*compiledMethod
}

// Compile builds a Matcher from every donation belonging to one
// language, across all handlers.
func Compile(donations []Donation, threshold float64) *Matcher {
	m := &Matcher{threshold: threshold, lemmaIndex: make(map[string][]*compiledMethod)}

	var all []*compiledMethod
	for _, d := range donations {
		for i, method := range d.MethodDonations {
			cm := &compiledMethod{handlerDomain: d.HandlerDomain, order: i, method: method}
			all = append(all, cm)

			lemmas := method.referencedLemmas()
			if len(lemmas) == 0 {
				m.noLemmaMethods = append(m.noLemmaMethods, cm)
				continue
			}
			for l := range lemmas {
				m.lemmaIndex[l] = append(m.lemmaIndex[l], cm)
			}
		}
	}
	m.metaphoneIndex = buildMetaphoneIndex(all)
	return m
}

// Match tokenizes text with the built-in tokenizer and matches it.
func (m *Matcher) Match(text string) (MatchResult, error) {
	return m.MatchTokens(Tokenize(text))
}

// candidate is one surviving pattern match before tie-breaking.
type candidate struct {
	cm     *compiledMethod
	slots  map[string]string
	length int
}

// MatchTokens runs the compiled matcher against a pre-tokenized
// utterance, for callers with a richer lemmatizer than Tokenize.
func (m *Matcher) MatchTokens(tokens []Token) (MatchResult, error) {
	if len(tokens) == 0 {
		return MatchResult{}, corerrors.New(corerrors.IntentUnresolved, "empty utterance")
	}

	pruned := m.pruneCandidates(tokens)

	var best *candidate
	for _, cm := range pruned {
		for _, pattern := range cm.method.TokenPatterns {
			length, ok := matchPrefix(pattern, tokens)
			if !ok {
				continue
			}
			slots := extractSlots(cm.method.SlotPatterns, tokens)
			c := candidate{cm: cm, slots: slots, length: length}
			if best == nil || better(c, *best) {
				c := c
				best = &c
			}
		}
	}

	if best == nil {
		return MatchResult{}, corerrors.New(corerrors.IntentUnresolved, "no donation pattern matched")
	}

	confidence := confidenceFor(best.length, len(tokens))
	if confidence < m.threshold {
		return MatchResult{}, corerrors.New(corerrors.IntentUnresolved, "match confidence below threshold")
	}

	return MatchResult{
		HandlerDomain: best.cm.handlerDomain,
		MethodName:    best.cm.method.MethodName,
		IntentSuffix:  best.cm.method.IntentSuffix,
		Slots:         best.slots,
		Confidence:    confidence,
	}, nil
}

// pruneCandidates returns every compiled method whose lemma set
// intersects the utterance's lemmas, plus every lemma-free method (spec
// §4.5: "lemma-index that prunes candidate methods per utterance").
func (m *Matcher) pruneCandidates(tokens []Token) []*compiledMethod {
	seen := make(map[*compiledMethod]bool)
	var out []*compiledMethod
	for _, tok := range tokens {
		exact := m.lemmaIndex[tok.Lemma]
		for _, cm := range exact {
			if !seen[cm] {
				seen[cm] = true
				out = append(out, cm)
			}
		}
		if len(exact) > 0 {
			continue
		}
		// No exact lemma hit: fall back to phonetic + Jaro-Winkler
		// similarity so a mistranscribed word can still reach the
		// candidates it was probably meant to trigger.
		for _, cm := range fuzzyCandidates(m.metaphoneIndex, tok, seen) {
			if !seen[cm] {
				seen[cm] = true
				out = append(out, cm)
			}
		}
	}
	for _, cm := range m.noLemmaMethods {
		if !seen[cm] {
			seen[cm] = true
			out = append(out, cm)
		}
	}
	return out
}

// matchPrefix reports whether pattern matches some contiguous run
// starting at any offset in tokens, returning the matched length of the
// longest such run for the tie-break rule. A matcher with Op "?" may
// match zero tokens; "+"/"*" are treated as one-or-more/zero-or-more
// repeats of the same matcher.
func matchPrefix(pattern TokenPattern, tokens []Token) (int, bool) {
	best := -1
	for start := 0; start < len(tokens); start++ {
		if length, ok := matchFrom(pattern, tokens, start); ok && length > best {
			best = length
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

func matchFrom(pattern TokenPattern, tokens []Token, start int) (int, bool) {
	ti := start
	for _, tm := range pattern {
		switch tm.Op {
		case "?":
			if ti < len(tokens) && tm.Matches(tokens[ti]) {
				ti++
			}
		case "+", "*":
			matched := 0
			for ti < len(tokens) && tm.Matches(tokens[ti]) {
				ti++
				matched++
			}
			if tm.Op == "+" && matched == 0 {
				return 0, false
			}
		default:
			if ti >= len(tokens) || !tm.Matches(tokens[ti]) {
				return 0, false
			}
			ti++
		}
	}
	return ti - start, true
}

// extractSlots runs each slot's pattern list against tokens and records
// the surface text of the first contiguous match found, per slot.
func extractSlots(slotPatterns map[string][]TokenPattern, tokens []Token) map[string]string {
	if len(slotPatterns) == 0 {
		return nil
	}
	slots := make(map[string]string, len(slotPatterns))
	for slot, patterns := range slotPatterns {
		for _, pattern := range patterns {
			if text, ok := extractOne(pattern, tokens); ok {
				slots[slot] = text
				break
			}
		}
	}
	return slots
}

func extractOne(pattern TokenPattern, tokens []Token) (string, bool) {
	for start := 0; start < len(tokens); start++ {
		if length, ok := matchFrom(pattern, tokens, start); ok && length > 0 {
			words := make([]string, 0, length)
			for i := start; i < start+length; i++ {
				words = append(words, tokens[i].Text)
			}
			return joinSpace(words), true
		}
	}
	return "", false
}

func joinSpace(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}

// better implements the tie-break order of spec §4.5: (1) longest
// token-pattern match wins; (2) on equal length, the method declared
// earlier in the handler wins.
func better(a, b candidate) bool {
	if a.length != b.length {
		return a.length > b.length
	}
	return a.cm.order < b.cm.order
}

// confidenceFor is the fraction of the utterance consumed by the
// matched pattern; a full-utterance match is maximally confident, a
// partial one (trailing tokens unmatched) scores lower and may still
// clear the threshold, matching the "confidence below threshold ->
// IntentUnresolved" tie-break without pretending to a probabilistic
// model the spec never prescribes.
func confidenceFor(matchedLength, totalTokens int) float64 {
	if totalTokens == 0 {
		return 0
	}
	return float64(matchedLength) / float64(totalTokens)
}
