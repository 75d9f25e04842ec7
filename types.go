package main

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CredentialsRequest carries login/register credentials.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SelectSongRequest selects the current song.
type SelectSongRequest struct {
	ID string `json:"id"`
}

// AddSectionRequest adds a section to the current song.
type AddSectionRequest struct {
	Type string `json:"type"`
}

// MoveSectionRequest reorders sections of the current song.
type MoveSectionRequest struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

// LineTextRequest updates a line's text.
type LineTextRequest struct {
	Text string `json:"text"`
}

// MoveLineRequest moves a line between sections by index.
type MoveLineRequest struct {
	FromSectionID string `json:"fromSectionId"`
	ToSectionID   string `json:"toSectionId"`
	LineIndex     int    `json:"lineIndex"`
	NewIndex      int    `json:"newIndex"`
}

// RecordingRequest attaches an audio take to a section. Data is base64.
type RecordingRequest struct {
	Data     string  `json:"data"`
	Duration float64 `json:"duration"`
}

// AuthorRequest tags a line or section with authorship.
type AuthorRequest struct {
	AuthorID    string `json:"authorId"`
	AuthorColor string `json:"authorColor"`
}

// ShareRequest invites another user to collaborate on a song.
type ShareRequest struct {
	SongID    string `json:"songId"`
	SongTitle string `json:"songTitle"`
	ToEmail   string `json:"toEmail"`
	Role      string `json:"role"`
}

// PublicLinkRequest creates a public share link for a song.
type PublicLinkRequest struct {
	SongID string `json:"songId"`
}

// AssignColorRequest assigns a collaborator color in a session.
type AssignColorRequest struct {
	SessionID   string `json:"sessionId"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// DarkModeRequest toggles the persisted dark-mode preference.
type DarkModeRequest struct {
	DarkMode bool `json:"darkMode"`
}

// RestoreRequest restores the library from a named backup file.
type RestoreRequest struct {
	FileName string `json:"fileName"`
}
