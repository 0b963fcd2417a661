package textproc

import "regexp"

// ordinalSuffixRe matches a digit followed by a Russian ordinal suffix
// abbreviation, e.g. "5-й", "3-го", "1-е", plus the non-letter rune (if
// any) that ends the suffix; RE2's \b only knows ASCII word characters,
// so it cannot mark the end of a Cyrillic suffix.
var ordinalSuffixRe = regexp.MustCompile(`(\d+)-(й|го|му|ой|ая|ое|ые|е)([^\p{L}\p{N}_]|$)`)

// ruOrdinals covers the ordinal word forms TTS should read in place of
// the abbreviated digit-dash-suffix form, for the small set of ordinals
// that occur in spoken assistant responses (dates, list positions).
// Stored as full inflected forms per suffix rather than derived from a
// stem, since Russian ordinals inflect irregularly (третий -> третьего,
// not a simple suffix swap). Numbers outside this table are left for
// NumberNormalizer's cardinal form, an acceptable approximation for
// synthesis.
var ruOrdinals = map[string]map[string]string{
	"1":  {"й": "первый", "го": "первого", "му": "первому", "ой": "первой", "ая": "первая", "ое": "первое", "е": "первое", "ые": "первые"},
	"2":  {"й": "второй", "го": "второго", "му": "второму", "ой": "второй", "ая": "вторая", "ое": "второе", "е": "второе", "ые": "вторые"},
	"3":  {"й": "третий", "го": "третьего", "му": "третьему", "ой": "третьей", "ая": "третья", "ое": "третье", "е": "третье", "ые": "третьи"},
	"4":  {"й": "четвёртый", "го": "четвёртого", "му": "четвёртому", "ой": "четвёртой", "ая": "четвёртая", "ое": "четвёртое", "е": "четвёртое", "ые": "четвёртые"},
	"5":  {"й": "пятый", "го": "пятого", "му": "пятому", "ой": "пятой", "ая": "пятая", "ое": "пятое", "е": "пятое", "ые": "пятые"},
	"6":  {"й": "шестой", "го": "шестого", "му": "шестому", "ой": "шестой", "ая": "шестая", "ое": "шестое", "е": "шестое", "ые": "шестые"},
	"7":  {"й": "седьмой", "го": "седьмого", "му": "седьмому", "ой": "седьмой", "ая": "седьмая", "ое": "седьмое", "е": "седьмое", "ые": "седьмые"},
	"8":  {"й": "восьмой", "го": "восьмого", "му": "восьмому", "ой": "восьмой", "ая": "восьмая", "ое": "восьмое", "е": "восьмое", "ые": "восьмые"},
	"9":  {"й": "девятый", "го": "девятого", "му": "девятому", "ой": "девятой", "ая": "девятая", "ое": "девятое", "е": "девятое", "ые": "девятые"},
	"10": {"й": "десятый", "го": "десятого", "му": "десятому", "ой": "десятой", "ая": "десятая", "ое": "десятое", "е": "десятое", "ые": "десятые"},
}

// AdvancedLocaleNormalizer applies locale-specific pre-synthesis cleanup
// (spec §4.3 #3), tts_input only. It matches digit forms, so the default
// chain in BuildProcessor runs it ahead of NumberNormalizer and
// PrepareNormalizer; it fixes up forms that are locale-specific rather
// than general (Russian ordinal suffixes here; additional locales extend
// Normalize by locale tag).
type AdvancedLocaleNormalizer struct {
	locale string
}

func NewAdvancedLocaleNormalizer(locale string) *AdvancedLocaleNormalizer {
	return &AdvancedLocaleNormalizer{locale: locale}
}

func (n *AdvancedLocaleNormalizer) Name() string { return "advanced_locale" }

func (n *AdvancedLocaleNormalizer) Stages() map[Stage]bool {
	return stageSet(StageTTSInput)
}

func (n *AdvancedLocaleNormalizer) Normalize(text string, _ Stage) (string, error) {
	switch n.locale {
	case "ru", "ru-RU":
		return n.normalizeRussian(text), nil
	default:
		return text, nil
	}
}

func (n *AdvancedLocaleNormalizer) normalizeRussian(text string) string {
	return ordinalSuffixRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := ordinalSuffixRe.FindStringSubmatch(m)
		forms, ok := ruOrdinals[parts[1]]
		if !ok {
			return m
		}
		word, ok := forms[parts[2]]
		if !ok {
			return m
		}
		return word + parts[3]
	})
}
