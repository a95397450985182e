package validator

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

var (
	nameWithDigits = regexp.MustCompile(`^([a-z]+)[0-9]+$`)
	nameSeparator  = regexp.MustCompile(`[._+-]+`)
)

var testWords = []string{"test", "fake", "sample", "example", "dummy", "asdf", "spam", "nobody"}

var keyboardRows = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm", "1234567890", "qwertzuiop", "azertyuiop"}

// Four-key runs common enough to flag on their own.
var keyboardShort = []string{"qwer", "asdf", "zxcv", "wasd", "hjkl", "uiop"}

var nameBigrams = []string{
	"an", "ar", "er", "el", "en", "in", "on", "ra", "ri", "ro", "la", "le", "li", "lo",
	"na", "ne", "ni", "ma", "mi", "mo", "ta", "th", "ch", "sh", "ja", "jo", "ke", "ka",
	"de", "da", "ia", "ie", "ey", "ly", "ry", "ll", "nn", "tt", "ss", "ha", "he", "sa", "se",
}

var nameStems = []string{
	"jo", "mar", "chr", "ale", "and", "dan", "dav", "mic", "ste", "kat", "eli", "sar",
	"ann", "rob", "wil", "tom", "jam", "pet", "nic", "ali", "moh", "muh", "ahm", "fra",
}

var nameEndings = []string{
	"son", "sen", "ez", "ov", "ova", "ski", "sky", "ini", "ella", "ina", "ine", "ette",
	"ton", "ley", "man", "ard", "berg", "stein", "ier", "ia", "ie", "y", "o", "a",
}

// localFeatures are the raw measurements behind the local-part score.
type localFeatures struct {
	length       int
	letters      int
	vowelRatio   float64
	digitRatio   float64
	entropy      float64
	consonantRun int
}

func measureLocal(local string) localFeatures {
	f := localFeatures{length: len(local)}
	vowels, digits, run := 0, 0, 0
	for _, r := range local {
		switch {
		case isVowel(r):
			f.letters++
			vowels++
			run = 0
		case unicode.IsLetter(r):
			f.letters++
			run++
			if run > f.consonantRun {
				f.consonantRun = run
			}
		case unicode.IsDigit(r):
			digits++
			run = 0
		default:
			run = 0
		}
	}
	if f.letters > 0 {
		f.vowelRatio = float64(vowels) / float64(f.letters)
	}
	f.digitRatio = DigitRatio(local)
	f.entropy = ShannonEntropy(local)
	return f
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// ShannonEntropy returns the per-character entropy of s in bits.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// DigitRatio returns the share of digits in s.
// > 0.5 (50% numbers) is suspicious.
func DigitRatio(s string) float64 {
	if s == "" {
		return 0
	}
	digits := 0.0
	for _, char := range s {
		if unicode.IsDigit(char) {
			digits++
		}
	}
	return digits / float64(len(s))
}

func containsTestWord(s string) (string, bool) {
	for _, w := range testWords {
		if strings.Contains(s, w) {
			return w, true
		}
	}
	return "", false
}

// hasKeyboardRun looks for five adjacent keys of one keyboard row, in
// either direction, or one of the well-known four-key runs.
func hasKeyboardRun(s string) bool {
	for _, w := range keyboardShort {
		if strings.Contains(s, w) {
			return true
		}
	}
	const window = 5
	for _, row := range keyboardRows {
		rev := reverse(row)
		for i := 0; i+window <= len(row); i++ {
			if strings.Contains(s, row[i:i+window]) || strings.Contains(s, rev[i:i+window]) {
				return true
			}
		}
	}
	return false
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// hasRepetition flags runs of one character repeated four times or a
// chunk of two to four characters repeated three times in a row.
func hasRepetition(s string) bool {
	for period := 1; period <= 4; period++ {
		need := 3
		if period == 1 {
			need = 4
		}
		for i := 0; i+period*need <= len(s); i++ {
			chunk := s[i : i+period]
			n := 1
			for j := i + period; j+period <= len(s) && s[j:j+period] == chunk; j += period {
				n++
			}
			if n >= need {
				return true
			}
		}
	}
	return false
}

// looksLikeName is a loose "could be a given name or surname" predicate.
func looksLikeName(s string) bool {
	if len(s) < 2 || len(s) > 20 {
		return false
	}
	vowels := 0
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
		if isVowel(r) {
			vowels++
		}
	}
	ratio := float64(vowels) / float64(len(s))
	if ratio < 0.15 || ratio > 0.7 {
		return false
	}
	if len(s) <= 3 {
		return vowels > 0
	}
	for _, bg := range nameBigrams {
		if strings.Contains(s, bg) {
			return true
		}
	}
	for _, stem := range nameStems {
		if strings.HasPrefix(s, stem) {
			return true
		}
	}
	for _, end := range nameEndings {
		if strings.HasSuffix(s, end) {
			return true
		}
	}
	return false
}

// nameShape classifies the local part as one of the shapes real people use
// and returns the bonus it earns.
func nameShape(local string) (string, float64) {
	parts := nameSeparator.Split(local, -1)
	if len(parts) >= 2 && looksLikeName(parts[0]) && looksLikeName(parts[1]) {
		return "name_separator_name", 30
	}
	if m := nameWithDigits.FindStringSubmatch(local); m != nil && looksLikeName(m[1]) {
		return "name_with_digits", 20
	}
	if looksLikeName(local) {
		return "single_name", 15
	}
	return "", 0
}

// scoreLocalPart rates how plausible the local part is as a human mailbox.
func scoreLocalPart(local string) (float64, []string) {
	local = strings.ToLower(local)
	f := measureLocal(local)
	score := 0.0
	var signals []string

	switch {
	case f.length < 3:
		score -= 5
		signals = append(signals, "too_short")
	case f.length > 30:
		score -= 10
		signals = append(signals, "too_long")
	default:
		score += 10
	}

	if w, ok := containsTestWord(local); ok {
		score -= 25
		signals = append(signals, "test_word:"+w)
	}
	if hasKeyboardRun(local) {
		score -= 20
		signals = append(signals, "keyboard_pattern")
	}
	if hasRepetition(local) {
		score -= 20
		signals = append(signals, "repetition")
	}
	if f.letters >= 4 && (f.vowelRatio < 0.1 || f.vowelRatio > 0.8) {
		score -= 15
		signals = append(signals, "vowel_ratio")
	}
	if f.consonantRun >= 5 {
		score -= 15
		signals = append(signals, "consonant_cluster")
	}
	if f.length > 10 && f.entropy > 3.5 {
		score -= 15
		signals = append(signals, "high_entropy")
	}
	if f.digitRatio > 0.5 {
		score -= 10
		signals = append(signals, "mostly_digits")
	}

	if shape, bonus := nameShape(local); bonus > 0 {
		score += bonus
		signals = append(signals, shape)
	}
	return score, signals
}
