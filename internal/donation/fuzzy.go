package donation

import "github.com/antzucaro/matchr"

// fuzzyThreshold is the minimum Jaro-Winkler similarity a mistranscribed
// token's lemma must reach against a declared lemma before the matcher
// treats them as the same word. ASR output regularly mangles short
// content words ("timer" -> "timber", "таймер" -> "таймир"); without
// this fallback such utterances would be pruned before pattern matching
// ever sees them.
const fuzzyThreshold = 0.86

// buildMetaphoneIndex maps a Double Metaphone code to every compiled
// method that declares a lemma producing that code, used as a cheap
// phonetic pre-filter before the more expensive Jaro-Winkler scoring
// (same two-stage strategy as a phonetic entity matcher: metaphone
// narrows the candidate set, Jaro-Winkler ranks within it).
func buildMetaphoneIndex(methods []*compiledMethod) map[string][]*compiledMethod {
	index := make(map[string][]*compiledMethod)
	for _, cm := range methods {
		for _, lemma := range cm.method.Lemmas {
			for _, code := range metaphoneCodes(lemma) {
				index[code] = append(index[code], cm)
			}
		}
	}
	return index
}

func metaphoneCodes(word string) []string {
	primary, secondary := matchr.DoubleMetaphone(word)
	var codes []string
	if primary != "" {
		codes = append(codes, primary)
	}
	if secondary != "" && secondary != primary {
		codes = append(codes, secondary)
	}
	return codes
}

// fuzzyCandidates returns every compiled method phonetically close to
// tok.Lemma and not already in seen, confirmed by a Jaro-Winkler score
// at or above fuzzyThreshold against one of the method's declared
// lemmas.
func fuzzyCandidates(index map[string][]*compiledMethod, tok Token, seen map[*compiledMethod]bool) []*compiledMethod {
	var out []*compiledMethod
	considered := make(map[*compiledMethod]bool)

	for _, code := range metaphoneCodes(tok.Lemma) {
		for _, cm := range index[code] {
			if seen[cm] || considered[cm] {
				continue
			}
			considered[cm] = true
			if bestLemmaScore(tok.Lemma, cm.method.Lemmas) >= fuzzyThreshold {
				out = append(out, cm)
			}
		}
	}
	return out
}

func bestLemmaScore(lemma string, declared []string) float64 {
	var best float64
	for _, d := range declared {
		if s := matchr.JaroWinkler(lemma, d, false); s > best {
			best = s
		}
	}
	return best
}
