package song

import (
	"fmt"
	"time"
)

// SectionType is one of the predefined section kinds. Free-form types are
// allowed; these are the ones the app offers by default.
const (
	TypeVerse     = "verse"
	TypeChorus    = "chorus"
	TypeBridge    = "bridge"
	TypePreChorus = "pre-chorus"
	TypeIntro     = "intro"
	TypeOutro     = "outro"
	TypeNote      = "note"
)

// SectionTypes lists the selectable section types in display order.
var SectionTypes = []string{
	TypeVerse, TypeChorus, TypeBridge, TypePreChorus, TypeIntro, TypeOutro, TypeNote,
}

// sectionLabels maps section types to their display labels used when
// generating section titles.
var sectionLabels = map[string]string{
	"verse":       "Verse",
	"chorus":      "Chorus",
	"bridge":      "Bridge",
	"pre-chorus":  "Pre-Chorus",
	"pre_chorus":  "Pre-Chorus",
	"post_chorus": "Post-Chorus",
	"intro":       "Intro",
	"outro":       "Outro",
	"hook":        "Hook",
	"refrain":     "Refrain",
	"note":        "Note",
}

// Recording is an audio take attached to a song or section. The payload is
// kept base64 encoded so the whole library stays JSON serializable.
type Recording struct {
	ID        ID      `json:"id"`
	Data      string  `json:"data"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration"`
}

// Line is a single lyric line with its derived syllable count and optional
// authorship tags set during collaborative editing.
type Line struct {
	ID             ID     `json:"id"`
	Text           string `json:"text"`
	Syllables      int    `json:"syllables"`
	AuthorID       string `json:"authorId,omitempty"`
	AuthorColor    string `json:"authorColor,omitempty"`
	LastModifiedBy string `json:"lastModifiedBy,omitempty"`
	LastModifiedAt string `json:"lastModifiedAt,omitempty"`
}

// Section is an ordered block of lines. Note sections carry free text in
// Content instead of lines.
type Section struct {
	ID             ID         `json:"id"`
	Title          string     `json:"title"`
	Type           string     `json:"type"`
	Lines          []Line     `json:"lines"`
	Recording      *Recording `json:"recording"`
	Content        string     `json:"content,omitempty"`
	AuthorID       string     `json:"authorId,omitempty"`
	AuthorColor    string     `json:"authorColor,omitempty"`
	LastModifiedBy string     `json:"lastModifiedBy,omitempty"`
	LastModifiedAt string     `json:"lastModifiedAt,omitempty"`
}

// Song is the top-level record owned by the song store.
type Song struct {
	ID        ID         `json:"id"`
	Title     string     `json:"title"`
	Artist    string     `json:"artist,omitempty"`
	BPM       string     `json:"bpm,omitempty"`
	Key       string     `json:"key,omitempty"`
	Sections  []Section  `json:"sections"`
	Recording *Recording `json:"recording,omitempty"`
	CreatedAt string     `json:"createdAt,omitempty"`
	UpdatedAt string     `json:"updatedAt,omitempty"`
}

// CloudSong is a Song projected for remote storage. The local id is dropped
// in favor of the remote document id, and owner plus soft-delete bookkeeping
// is added. Timestamps are kept loosely typed because the remote store may
// return either ISO strings or structured timestamp objects.
type CloudSong struct {
	ID          string     `json:"id,omitempty"`
	OwnerUserID string     `json:"ownerUserId"`
	Title       string     `json:"title"`
	Artist      string     `json:"artist,omitempty"`
	BPM         string     `json:"bpm,omitempty"`
	Key         string     `json:"key,omitempty"`
	Sections    []Section  `json:"sections"`
	Recording   *Recording `json:"recording,omitempty"`
	CreatedAt   any        `json:"createdAt,omitempty"`
	UpdatedAt   any        `json:"updatedAt,omitempty"`
	IsDeleted   bool       `json:"isDeleted"`
}

// InviteStatus values for collaboration invites. Transitions are one-way:
// pending may become accepted or declined, never the other way around.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
)

// InviteTTL is the fixed validity window of a collaboration invite.
const InviteTTL = 7 * 24 * time.Hour

// CollaborationInvite is the record created when a song is shared with
// another user by email.
type CollaborationInvite struct {
	ID            string `json:"id,omitempty"`
	SongID        string `json:"songId"`
	SongTitle     string `json:"songTitle,omitempty"`
	FromUserID    string `json:"fromUserId"`
	FromUserEmail string `json:"fromUserEmail"`
	ToUserEmail   string `json:"toUserEmail"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
	ExpiresAt     string `json:"expiresAt"`
	AcceptedAt    string `json:"acceptedAt,omitempty"`
	DeclinedAt    string `json:"declinedAt,omitempty"`
}

// New creates an empty song with one four-line verse, the shape every new
// song starts from.
func New(title string) Song {
	base := time.Now().UnixMilli()
	lines := make([]Line, 4)
	for i := range lines {
		lines[i] = Line{ID: LocalID(base + int64(i) + 2)}
	}
	return Song{
		ID:    LocalID(base),
		Title: title,
		Sections: []Section{
			{
				ID:    LocalID(base + 1),
				Type:  TypeVerse,
				Title: "Verse",
				Lines: lines,
			},
		},
	}
}

// SectionLabel returns the display label for a section type, falling back to
// a capitalized form of the raw type for free-form types.
func SectionLabel(sectionType string) string {
	if label, ok := sectionLabels[sectionType]; ok {
		return label
	}
	if sectionType == "" {
		return "Section"
	}
	return capitalize(sectionType)
}

// GenerateSectionTitle numbers sections of the same type: the first chorus is
// "Chorus", the second "Chorus 2" and so on.
func GenerateSectionTitle(sectionType string, sections []Section) string {
	sameType := 0
	for _, s := range sections {
		if s.Type == sectionType {
			sameType++
		}
	}
	base := SectionLabel(sectionType)
	if sameType > 0 {
		return fmt.Sprintf("%s %d", base, sameType+1)
	}
	return base
}

// NormalizeTimestamp converts a loosely typed remote timestamp into an
// ISO-8601 string. Strings pass through unchanged; structured timestamps
// ({"seconds": ..., "nanos": ...}) are converted; anything else falls back
// to the current time.
func NormalizeTimestamp(v any) string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case map[string]any:
		if secs, ok := t["seconds"].(float64); ok {
			nanos, _ := t["nanos"].(float64)
			return time.Unix(int64(secs), int64(nanos)).UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
