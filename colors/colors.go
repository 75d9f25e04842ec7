package colors

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/logcolors"
)

// UserColors is the palette assigned to collaborators, in join order.
var UserColors = []string{
	"#3B82F6", // blue
	"#10B981", // green
	"#F59E0B", // amber
	"#EF4444", // red
	"#8B5CF6", // violet
	"#06B6D4", // cyan
	"#84CC16", // lime
	"#F97316", // orange
}

// DefaultTextColor is the gray used for text by users without an assignment.
const DefaultTextColor = "#6B7280"

var colorNames = map[string]string{
	"#3B82F6": "Blue",
	"#10B981": "Green",
	"#F59E0B": "Amber",
	"#EF4444": "Red",
	"#8B5CF6": "Violet",
	"#06B6D4": "Cyan",
	"#84CC16": "Lime",
	"#F97316": "Orange",
}

// Background tints for authorship highlighting.
var lighterColors = map[string]string{
	"#3B82F6": "#DBEAFE",
	"#10B981": "#D1FAE5",
	"#F59E0B": "#FEF3C7",
	"#EF4444": "#FEE2E2",
	"#8B5CF6": "#EDE9FE",
	"#06B6D4": "#CFFAFE",
	"#84CC16": "#ECFCCB",
	"#F97316": "#FED7AA",
}

// Higher-contrast variants for text on light backgrounds.
var darkerColors = map[string]string{
	"#3B82F6": "#1E40AF",
	"#10B981": "#047857",
	"#F59E0B": "#D97706",
	"#EF4444": "#DC2626",
	"#8B5CF6": "#7C3AED",
	"#06B6D4": "#0891B2",
	"#84CC16": "#65A30D",
	"#F97316": "#EA580C",
}

// UserColorInfo describes one collaborator's color assignment.
type UserColorInfo struct {
	UserID      string `json:"userId"`
	Color       string `json:"color"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Service hands out palette colors to collaborators per editing session.
// Assignment is by join order, wrapping around once the palette is
// exhausted, and is stable for the lifetime of the session.
type Service struct {
	mu          sync.RWMutex
	userColors  map[string]UserColorInfo // "{sessionID}_{userID}" -> assignment
	assignments map[string][]string      // sessionID -> userIDs in join order
}

// New creates an empty color service.
func New() *Service {
	return &Service{
		userColors:  make(map[string]UserColorInfo),
		assignments: make(map[string][]string),
	}
}

func sessionKey(sessionID, userID string) string {
	return sessionID + "_" + userID
}

// AssignUserColor gives a user a color in a session. Repeat calls for the
// same user return the original assignment.
func (s *Service) AssignUserColor(sessionID, userID, email, displayName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(sessionID, userID)
	if info, ok := s.userColors[key]; ok {
		return info.Color
	}

	joined := s.assignments[sessionID]
	color := UserColors[len(joined)%len(UserColors)]

	s.userColors[key] = UserColorInfo{
		UserID:      userID,
		Color:       color,
		DisplayName: displayName,
		Email:       email,
	}
	s.assignments[sessionID] = append(joined, userID)

	log.Infof("%s Assigned %s to user %s in session %s", logcolors.LogColors, ColorName(color), userID, sessionID)
	return color
}

// GetUserColor returns a user's assigned color in a session, or "".
func (s *Service) GetUserColor(sessionID, userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userColors[sessionKey(sessionID, userID)].Color
}

// SessionColors returns all color assignments in a session, keyed by user id.
func (s *Service) SessionColors(sessionID string) map[string]UserColorInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]UserColorInfo)
	prefix := sessionID + "_"
	for key, info := range s.userColors {
		if strings.HasPrefix(key, prefix) {
			out[info.UserID] = info
		}
	}
	return out
}

// RemoveUserFromSession drops a user's assignment when they leave. Colors of
// the remaining users are untouched.
func (s *Service) RemoveUserFromSession(sessionID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.userColors, sessionKey(sessionID, userID))

	joined := s.assignments[sessionID]
	remaining := joined[:0]
	for _, id := range joined {
		if id != userID {
			remaining = append(remaining, id)
		}
	}
	s.assignments[sessionID] = remaining
}

// ClearSession drops every assignment in a session.
func (s *Service) ClearSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := sessionID + "_"
	for key := range s.userColors {
		if strings.HasPrefix(key, prefix) {
			delete(s.userColors, key)
		}
	}
	delete(s.assignments, sessionID)
}

// TextColor returns the color to render a user's text with, falling back to
// the default gray for users without an assignment.
func (s *Service) TextColor(sessionID, userID string) string {
	if color := s.GetUserColor(sessionID, userID); color != "" {
		return color
	}
	return DefaultTextColor
}

// InitializeFromSession seeds assignments from an existing collaboration
// session, replacing whatever was tracked for it locally.
func (s *Service) InitializeFromSession(sessionID string, collaborators []UserColorInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userIDs := make([]string, 0, len(collaborators))
	for _, c := range collaborators {
		s.userColors[sessionKey(sessionID, c.UserID)] = c
		userIDs = append(userIDs, c.UserID)
	}
	s.assignments[sessionID] = userIDs
}

// IsValidUserColor reports whether a color belongs to the palette.
func IsValidUserColor(color string) bool {
	_, ok := colorNames[color]
	return ok
}

// ColorName returns the display name of a palette color.
func ColorName(color string) string {
	if name, ok := colorNames[color]; ok {
		return name
	}
	return "Unknown"
}

// LighterColor returns the background tint for a palette color.
func LighterColor(color string) string {
	if light, ok := lighterColors[color]; ok {
		return light
	}
	return "#F3F4F6"
}

// DarkerColor returns the high-contrast variant of a palette color.
func DarkerColor(color string) string {
	if dark, ok := darkerColors[color]; ok {
		return dark
	}
	return "#374151"
}
