package song

import (
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	sng := New("My Song")

	if sng.Title != "My Song" {
		t.Errorf("Expected title 'My Song', got %q", sng.Title)
	}
	if len(sng.Sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sng.Sections))
	}

	sec := sng.Sections[0]
	if sec.Type != TypeVerse {
		t.Errorf("Expected section type %q, got %q", TypeVerse, sec.Type)
	}
	if sec.Title != "Verse" {
		t.Errorf("Expected section title 'Verse', got %q", sec.Title)
	}
	if len(sec.Lines) != 4 {
		t.Errorf("Expected 4 empty lines, got %d", len(sec.Lines))
	}
	for i, line := range sec.Lines {
		if line.Text != "" || line.Syllables != 0 {
			t.Errorf("Expected line %d to be empty, got %+v", i, line)
		}
	}
	if sng.ID.IsRemote() {
		t.Errorf("Expected new song to have a local id")
	}
}

func TestGenerateSectionTitle(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		sections []Section
		expected string
	}{
		{
			name:     "First chorus is unnumbered",
			typ:      "chorus",
			sections: nil,
			expected: "Chorus",
		},
		{
			name:     "Second chorus is numbered",
			typ:      "chorus",
			sections: []Section{{Type: "chorus"}},
			expected: "Chorus 2",
		},
		{
			name:     "Third verse",
			typ:      "verse",
			sections: []Section{{Type: "verse"}, {Type: "verse"}, {Type: "chorus"}},
			expected: "Verse 3",
		},
		{
			name:     "Free-form type is capitalized",
			typ:      "breakdown",
			sections: nil,
			expected: "Breakdown",
		},
		{
			name:     "Pre-chorus label",
			typ:      "pre-chorus",
			sections: nil,
			expected: "Pre-Chorus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSectionTitle(tt.typ, tt.sections)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSectionLabel(t *testing.T) {
	if got := SectionLabel("note"); got != "Note" {
		t.Errorf("Expected 'Note', got %q", got)
	}
	if got := SectionLabel(""); got != "Section" {
		t.Errorf("Expected 'Section' for empty type, got %q", got)
	}
	if got := SectionLabel("hook"); got != "Hook" {
		t.Errorf("Expected 'Hook', got %q", got)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	if got := NormalizeTimestamp("2024-01-15T10:30:00Z"); got != "2024-01-15T10:30:00Z" {
		t.Errorf("Expected string timestamp to pass through, got %q", got)
	}

	structured := map[string]any{"seconds": float64(1700000000), "nanos": float64(0)}
	got := NormalizeTimestamp(structured)
	expected := time.Unix(1700000000, 0).UTC().Format(time.RFC3339)
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	// Unknown shapes fall back to the current time.
	fallback := NormalizeTimestamp(nil)
	if _, err := time.Parse(time.RFC3339, fallback); err != nil {
		t.Errorf("Expected RFC3339 fallback, got %q: %v", fallback, err)
	}
	if !strings.HasPrefix(fallback, time.Now().UTC().Format("2006")) {
		t.Errorf("Expected fallback to be near now, got %q", fallback)
	}
}

func TestInviteTTL(t *testing.T) {
	if InviteTTL != 7*24*time.Hour {
		t.Errorf("Expected invite validity of 7 days, got %v", InviteTTL)
	}
}
