package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"lyriclab-api-go/config"
	"lyriclab-api-go/song"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{}
	cfg.Configuration.LibraryDBPath = filepath.Join(dir, "library.db")
	cfg.Configuration.LibraryBackupPath = filepath.Join(dir, "backups")
	cfg.Configuration.CloudBackend = "embedded"
	cfg.Configuration.ShareBaseURL = "http://localhost:8080"
	cfg.Configuration.RetryMaxAttempts = 1
	cfg.Configuration.RetryBaseDelayMs = 1

	app, err := newApp(cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	t.Cleanup(app.Close)

	router := mux.NewRouter()
	app.setupRoutes(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]any
	decodeJSON(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", resp["status"])
	}
	if resp["cloudBackend"] != "embedded" {
		t.Errorf("Expected embedded backend, got %v", resp["cloudBackend"])
	}
}

func TestSongLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/songs", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created song.Song
	decodeJSON(t, w, &created)
	if created.Title != "New Song" {
		t.Errorf("Expected title 'New Song', got %q", created.Title)
	}

	// The new song is current.
	w = doJSON(t, router, http.MethodGet, "/songs/current", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var current song.Song
	decodeJSON(t, w, &current)
	if current.ID != created.ID {
		t.Errorf("Expected current song %v, got %v", created.ID, current.ID)
	}

	// Rename it by id.
	created.Title = "Renamed"
	w = doJSON(t, router, http.MethodPut, "/songs/"+created.ID.String(), created)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// And delete it.
	w = doJSON(t, router, http.MethodDelete, "/songs/"+created.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/songs/current", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 with an empty library, got %d", w.Code)
	}
}

func TestSectionAndLineEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/songs", nil)
	var created song.Song
	decodeJSON(t, w, &created)
	verse := created.Sections[0]

	w = doJSON(t, router, http.MethodPost, "/songs/current/sections", AddSectionRequest{Type: song.TypeChorus})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var chorus song.Section
	decodeJSON(t, w, &chorus)
	if chorus.Title != "Chorus" {
		t.Errorf("Expected title 'Chorus', got %q", chorus.Title)
	}

	linePath := "/songs/current/sections/" + verse.ID.String() + "/lines/" + verse.Lines[0].ID.String()
	w = doJSON(t, router, http.MethodPut, linePath, LineTextRequest{Text: "singing in the rain"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var line song.Line
	decodeJSON(t, w, &line)
	if line.Syllables != 5 {
		t.Errorf("Expected 5 syllables, got %d", line.Syllables)
	}

	// Unknown section yields 404.
	w = doJSON(t, router, http.MethodDelete, "/songs/current/sections/999999999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown section, got %d", w.Code)
	}
}

func TestAuthAndSyncEndpoints(t *testing.T) {
	router := newTestRouter(t)

	// Sync cannot be pushed before it is enabled.
	w := doJSON(t, router, http.MethodPost, "/sync/push", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502 while sync is off, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/auth/me", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without a user, got %d", w.Code)
	}

	doJSON(t, router, http.MethodPost, "/songs", nil)

	// Registering signs the user in and enables sync.
	w = doJSON(t, router, http.MethodPost, "/auth/register", CredentialsRequest{
		Email:    "singer@example.com",
		Password: "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/sync/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var status struct {
		Local struct {
			Enabled         bool `json:"enabled"`
			LocalSongsCount int  `json:"localSongsCount"`
		} `json:"local"`
	}
	decodeJSON(t, w, &status)
	if !status.Local.Enabled {
		t.Errorf("Expected sync enabled after register")
	}
	if status.Local.LocalSongsCount != 1 {
		t.Errorf("Expected 1 local song, got %d", status.Local.LocalSongsCount)
	}

	w = doJSON(t, router, http.MethodPost, "/auth/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/auth/me", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 after logout, got %d", w.Code)
	}
}

func TestCollabShareRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/collab/share", ShareRequest{
		SongID:  "song-1",
		ToEmail: "friend@example.com",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without a user, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/collab/share", ShareRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing fields, got %d", w.Code)
	}
}

func TestColorEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/colors/assign", AssignColorRequest{
		SessionID: "session-1",
		UserID:    "user-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var assigned map[string]string
	decodeJSON(t, w, &assigned)
	if assigned["color"] != "#3B82F6" || assigned["colorName"] != "Blue" {
		t.Errorf("Expected first palette color Blue, got %+v", assigned)
	}

	w = doJSON(t, router, http.MethodPost, "/colors/assign", AssignColorRequest{UserID: "user-2"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing sessionId, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/colors/palette", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var palette struct {
		Palette          []map[string]string `json:"palette"`
		DefaultTextColor string              `json:"defaultTextColor"`
	}
	decodeJSON(t, w, &palette)
	if len(palette.Palette) != 8 {
		t.Errorf("Expected 8 palette colors, got %d", len(palette.Palette))
	}
	if palette.DefaultTextColor != "#6B7280" {
		t.Errorf("Expected default text color #6B7280, got %s", palette.DefaultTextColor)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	// Nothing stored yet: empty settings, light mode.
	w := doJSON(t, router, http.MethodGet, "/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var settings map[string]any
	decodeJSON(t, w, &settings)
	if len(settings) != 0 {
		t.Errorf("Expected empty settings, got %v", settings)
	}

	w = doJSON(t, router, http.MethodPut, "/settings", map[string]any{
		"fontSize":      18,
		"showSyllables": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/settings", nil)
	decodeJSON(t, w, &settings)
	if settings["fontSize"] != float64(18) {
		t.Errorf("Expected fontSize 18, got %v", settings["fontSize"])
	}
	if settings["showSyllables"] != true {
		t.Errorf("Expected showSyllables true, got %v", settings["showSyllables"])
	}

	w = doJSON(t, router, http.MethodGet, "/settings/darkmode", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var mode map[string]bool
	decodeJSON(t, w, &mode)
	if mode["darkMode"] {
		t.Errorf("Expected dark mode off by default")
	}

	w = doJSON(t, router, http.MethodPut, "/settings/darkmode", DarkModeRequest{DarkMode: true})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/settings/darkmode", nil)
	decodeJSON(t, w, &mode)
	if !mode["darkMode"] {
		t.Errorf("Expected dark mode on after update")
	}
}

func TestLibraryBackupEndpoints(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/songs", nil)

	w := doJSON(t, router, http.MethodPost, "/library/backup", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/library/backups", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Backups []struct {
			FileName string `json:"fileName"`
		} `json:"backups"`
	}
	decodeJSON(t, w, &resp)
	if len(resp.Backups) != 1 {
		t.Fatalf("Expected 1 backup, got %d", len(resp.Backups))
	}

	w = doJSON(t, router, http.MethodPost, "/library/restore", RestoreRequest{FileName: resp.Backups[0].FileName})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/library/restore", RestoreRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing fileName, got %d", w.Code)
	}
}
