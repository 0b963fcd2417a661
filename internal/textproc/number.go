package textproc

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRunRe = regexp.MustCompile(`\d+`)

var onesWords = [...]string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tensWords = [...]string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}

var scaleWords = [...]string{"", "thousand", "million", "billion"}

// NumberNormalizer turns digit runs into English words (spec §4.3 #1)
// whatever the configured locale; it has no word tables for other
// languages. It applies to asr_output, general, and tts_input — ASR transcripts and
// TTS-bound text both read better as words than bare digits, and the
// general stage covers anything processed outside those two paths.
type NumberNormalizer struct{}

func NewNumberNormalizer() *NumberNormalizer { return &NumberNormalizer{} }

func (n *NumberNormalizer) Name() string { return "number" }

func (n *NumberNormalizer) Stages() map[Stage]bool {
	return stageSet(StageASROutput, StageGeneral, StageTTSInput)
}

func (n *NumberNormalizer) Normalize(text string, _ Stage) (string, error) {
	return digitRunRe.ReplaceAllStringFunc(text, numberToWords), nil
}

func numberToWords(digits string) string {
	// Digit runs too long to be a sane spoken number (IDs, phone numbers)
	// are left as-is rather than producing a meaningless word wall.
	if len(digits) > 12 {
		return digits
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return digits
	}
	if n == 0 {
		return onesWords[0]
	}
	return uintToWords(n)
}

func uintToWords(n uint64) string {
	if n < 20 {
		return onesWords[n]
	}
	if n < 100 {
		word := tensWords[n/10]
		if n%10 != 0 {
			word += "-" + onesWords[n%10]
		}
		return word
	}
	if n < 1000 {
		word := onesWords[n/100] + " hundred"
		if n%100 != 0 {
			word += " " + uintToWords(n%100)
		}
		return word
	}
	for scale := len(scaleWords) - 1; scale >= 1; scale-- {
		div := pow1000(scale)
		if n >= div {
			word := uintToWords(n/div) + " " + scaleWords[scale]
			if n%div != 0 {
				word += " " + uintToWords(n%div)
			}
			return word
		}
	}
	return strings.TrimSpace(strconv.FormatUint(n, 10))
}

func pow1000(n int) uint64 {
	v := uint64(1)
	for i := 0; i < n; i++ {
		v *= 1000
	}
	return v
}
