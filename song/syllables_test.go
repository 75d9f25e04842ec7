package song

import "testing"

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"Empty string", "", 0},
		{"Whitespace only", "   ", 0},
		{"Single vowel word", "a", 1},
		{"Simple word", "hello", 2},
		{"Diphthong counts once", "rain", 1},
		{"Multiple words", "hello world", 3},
		{"Word without vowels", "hmm", 1},
		{"Y as vowel", "rhythm", 1},
		{"German umlauts", "schön", 1},
		{"Punctuation stripped", "hello, world!", 3},
		{"Longer line", "singing in the rain", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountSyllables(tt.text)
			if got != tt.expected {
				t.Errorf("Expected %d syllables for %q, got %d", tt.expected, tt.text, got)
			}
		})
	}
}
