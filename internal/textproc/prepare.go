package textproc

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRunRe = regexp.MustCompile(`[ \t]+`)

var symbolFoldings = map[string]string{
	"&":  " and ",
	"@":  " at ",
	"%":  " percent ",
	"#":  " number ",
	"/":  " slash ",
	"+":  " plus ",
	"=":  " equals ",
}

// cyrillicToLatin is a practical transliteration table, not a full
// GOST/ISO standard: it covers the letters that appear in spoken
// assistant text (names, commands) rather than formal transliteration
// edge cases.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

var latinToCyrillic = map[rune]string{
	'a': "а", 'b': "б", 'v': "в", 'g': "г", 'd': "д", 'e': "е", 'z': "з",
	'i': "и", 'y': "й", 'k': "к", 'l': "л", 'm': "м", 'n': "н", 'o': "о",
	'p': "п", 'r': "р", 's': "с", 't': "т", 'u': "у", 'f': "ф",
}

// TransliterateDirection selects which script a PrepareNormalizer folds
// the opposite script's runes into.
type TransliterateDirection string

const (
	TransliterateNone           TransliterateDirection = ""
	TransliterateCyrillicToLatin TransliterateDirection = "ru-latin"
	TransliterateLatinToCyrillic TransliterateDirection = "latin-ru"
)

// PrepareNormalizer performs transliteration (as configured), symbol
// folding, and whitespace collapse (spec §4.3 #2), for tts_input and
// general stages.
type PrepareNormalizer struct {
	direction TransliterateDirection
}

func NewPrepareNormalizer(direction TransliterateDirection) *PrepareNormalizer {
	return &PrepareNormalizer{direction: direction}
}

func (n *PrepareNormalizer) Name() string { return "prepare" }

func (n *PrepareNormalizer) Stages() map[Stage]bool {
	return stageSet(StageTTSInput, StageGeneral)
}

func (n *PrepareNormalizer) Normalize(text string, _ Stage) (string, error) {
	out := norm.NFC.String(text)
	out = n.transliterate(out)
	out = foldSymbols(out)
	out = collapseWhitespace(out)
	return out, nil
}

func (n *PrepareNormalizer) transliterate(text string) string {
	var table map[rune]string
	switch n.direction {
	case TransliterateCyrillicToLatin:
		table = cyrillicToLatin
	case TransliterateLatinToCyrillic:
		table = latinToCyrillic
	default:
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if rep, ok := table[r]; ok {
			b.WriteString(rep)
			continue
		}
		if upper, ok := table[lowerRune(r)]; ok {
			b.WriteString(strings.ToUpper(upper))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lowerRune(r rune) rune {
	return []rune(strings.ToLower(string(r)))[0]
}

func foldSymbols(text string) string {
	for sym, word := range symbolFoldings {
		text = strings.ReplaceAll(text, sym, word)
	}
	return text
}

func collapseWhitespace(text string) string {
	text = whitespaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
