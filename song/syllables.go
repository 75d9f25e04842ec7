package song

import (
	"strings"
	"unicode"
)

// vowels covers English and German vowels, including umlauts. 'y' counts as
// a vowel so words like "rhythm" don't end up with zero syllables.
const vowels = "aeiouyäöü"

func isVowel(r rune) bool {
	return strings.ContainsRune(vowels, unicode.ToLower(r))
}

// CountSyllables estimates the syllable count of a lyric line by counting
// vowel groups per word. Diphthongs (ei, au, eu, ...) form a single group, so
// they count once. Words without any vowel still count as one syllable.
func CountSyllables(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	total := 0
	for _, word := range strings.Fields(text) {
		cleaned := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if cleaned == "" {
			continue
		}

		groups := 0
		inGroup := false
		for _, r := range cleaned {
			if isVowel(r) {
				if !inGroup {
					groups++
					inGroup = true
				}
			} else {
				inGroup = false
			}
		}
		if groups == 0 {
			groups = 1
		}
		total += groups
	}
	return total
}
