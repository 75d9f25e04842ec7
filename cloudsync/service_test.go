package cloudsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lyriclab-api-go/cloudstore"
	"lyriclab-api-go/config"
	"lyriclab-api-go/song"
)

func newTestService(t *testing.T) (*Service, *cloudstore.Provider) {
	t.Helper()
	cfg := config.Config{}
	cfg.Configuration.CloudBackend = "embedded"
	cfg.Configuration.RetryMaxAttempts = 1
	cfg.Configuration.RetryBaseDelayMs = 1
	provider := cloudstore.NewProvider(cfg)
	return New(cfg, provider), provider
}

func signUpTestUser(t *testing.T, provider *cloudstore.Provider, email string) *cloudstore.AuthUser {
	t.Helper()
	auth, err := provider.Auth()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	user, err := auth.SignUp(context.Background(), email, "secret123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return user
}

func setOffline(t *testing.T, provider *cloudstore.Provider, offline bool) {
	t.Helper()
	store, err := provider.Store()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	toggler, ok := store.(interface{ SetOffline(bool) })
	if !ok {
		t.Fatalf("Expected embedded store with offline toggle, got %s", store.Name())
	}
	toggler.SetOffline(offline)
}

func TestSaveSongRequiresSignIn(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.SaveSong(context.Background(), song.New("Test Song"))
	if err != ErrNotSignedIn {
		t.Errorf("Expected ErrNotSignedIn, got %v", err)
	}
}

func TestSaveSongCreatesAndUpdates(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	signUpTestUser(t, provider, "singer@example.com")

	sng := song.New("Test Song")
	cloudID, err := s.SaveSong(ctx, sng)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cloudID) != 32 {
		t.Errorf("Expected 32 character cloud id, got %q (%d)", cloudID, len(cloudID))
	}

	sng.ID = song.RemoteID(cloudID)
	sng.Title = "Renamed Song"
	updatedID, err := s.SaveSong(ctx, sng)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updatedID != cloudID {
		t.Errorf("Expected update to keep id %s, got %s", cloudID, updatedID)
	}

	songs, err := s.GetUserSongs(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("Expected 1 song, got %d", len(songs))
	}
	if songs[0].Title != "Renamed Song" {
		t.Errorf("Expected title 'Renamed Song', got %q", songs[0].Title)
	}
}

func TestSaveSongRecreatesMissingRemoteDocument(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	signUpTestUser(t, provider, "singer@example.com")

	sng := song.New("Test Song")
	sng.ID = song.RemoteID("00000000000000000000000000000000")
	cloudID, err := s.SaveSong(ctx, sng)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cloudID == sng.ID.Remote() {
		t.Errorf("Expected a fresh cloud id for a vanished document, got %s", cloudID)
	}
}

func TestDeleteSongSoftDeletes(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	user := signUpTestUser(t, provider, "singer@example.com")

	cloudID, err := s.SaveSong(ctx, song.New("Test Song"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := s.DeleteSong(ctx, cloudID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	songs, err := s.GetUserSongs(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(songs) != 0 {
		t.Errorf("Expected soft deleted song to be filtered out, got %d songs", len(songs))
	}

	// The document itself stays, flagged as deleted.
	store, _ := provider.Store()
	doc, err := store.GetDocument(ctx, songPath(user.UID, cloudID))
	if err != nil {
		t.Fatalf("Expected soft deleted document to still exist, got %v", err)
	}
	if doc.Data["isDeleted"] != true {
		t.Errorf("Expected isDeleted true, got %v", doc.Data["isDeleted"])
	}
}

func TestGetUserSongsWithoutUser(t *testing.T) {
	s, _ := newTestService(t)

	songs, err := s.GetUserSongs(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(songs) != 0 {
		t.Errorf("Expected empty list without a user, got %d songs", len(songs))
	}
}

func TestGetUserSongsSortedNewestFirst(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	user := signUpTestUser(t, provider, "singer@example.com")
	store, _ := provider.Store()

	store.SetDocument(ctx, songPath(user.UID, "older000000000000000000000000000"), map[string]any{
		"title":       "Older",
		"ownerUserId": user.UID,
		"updatedAt":   "2025-01-01T00:00:00Z",
		"isDeleted":   false,
	}, false)
	store.SetDocument(ctx, songPath(user.UID, "newer000000000000000000000000000"), map[string]any{
		"title":       "Newer",
		"ownerUserId": user.UID,
		"updatedAt":   "2025-06-01T00:00:00Z",
		"isDeleted":   false,
	}, false)

	songs, err := s.GetUserSongs(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("Expected 2 songs, got %d", len(songs))
	}
	if songs[0].Title != "Newer" || songs[1].Title != "Older" {
		t.Errorf("Expected newest first, got %q then %q", songs[0].Title, songs[1].Title)
	}
}

func TestGetUserSongsFallsBackWhenFilterRejected(t *testing.T) {
	var mu sync.Mutex
	filtered, unfiltered := 0, 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":query") {
			http.NotFound(w, r)
			return
		}
		var q struct {
			Filters []struct {
				Field string `json:"field"`
				Op    string `json:"op"`
			} `json:"filters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "malformed query", http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if len(q.Filters) > 0 {
			filtered++
			http.Error(w, "inequality filters are not supported", http.StatusBadRequest)
			return
		}
		unfiltered++
		json.NewEncoder(w).Encode(map[string]any{
			"documents": []map[string]any{
				{"id": "live0000000000000000000000000000", "data": map[string]any{
					"title":     "Live",
					"updatedAt": "2025-06-01T00:00:00Z",
					"isDeleted": false,
				}},
				{"id": "gone0000000000000000000000000000", "data": map[string]any{
					"title":     "Gone",
					"updatedAt": "2025-07-01T00:00:00Z",
					"isDeleted": true,
				}},
			},
		})
	}))
	defer server.Close()

	cfg := config.Config{}
	cfg.Configuration.CloudBackend = "rest"
	cfg.Configuration.CloudBaseURL = server.URL
	cfg.Configuration.RetryMaxAttempts = 1
	cfg.Configuration.RetryBaseDelayMs = 1
	provider := cloudstore.NewProvider(cfg)
	s := New(cfg, provider)
	signUpTestUser(t, provider, "singer@example.com")

	songs, err := s.GetUserSongs(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("Expected 1 song after client-side filtering, got %d", len(songs))
	}
	if songs[0].Title != "Live" {
		t.Errorf("Expected song 'Live', got %q", songs[0].Title)
	}

	mu.Lock()
	defer mu.Unlock()
	if filtered != 1 {
		t.Errorf("Expected 1 filtered query, got %d", filtered)
	}
	if unfiltered != 1 {
		t.Errorf("Expected 1 unfiltered fallback query, got %d", unfiltered)
	}
}

func TestSaveSongRequiresVerifiedEmail(t *testing.T) {
	// Identity backend that signs in without a verified email and without a
	// session token to lift the status from.
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "accounts:signInWithPassword") {
			json.NewEncoder(w).Encode(map[string]any{
				"localId": "uid-unverified",
				"email":   "singer@example.com",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer authServer.Close()

	cfg := config.Config{}
	cfg.Configuration.CloudBackend = "embedded"
	cfg.Configuration.AuthBaseURL = authServer.URL
	cfg.Configuration.RetryMaxAttempts = 1
	cfg.Configuration.RetryBaseDelayMs = 1
	provider := cloudstore.NewProvider(cfg)
	s := New(cfg, provider)

	auth, err := provider.Auth()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	user, err := auth.SignIn(context.Background(), "singer@example.com", "secret123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.EmailVerified {
		t.Fatal("Expected an unverified user from the identity backend")
	}

	_, err = s.SaveSong(context.Background(), song.New("Test Song"))
	if err != ErrEmailNotVerified {
		t.Errorf("Expected ErrEmailNotVerified, got %v", err)
	}

	// Nothing was written on behalf of the unverified user.
	store, err := provider.Store()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	docs, err := store.GetCollection(context.Background(), songsCollection(user.UID), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Expected no documents, got %d", len(docs))
	}
}

func TestSyncSongsToCloud(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	signUpTestUser(t, provider, "singer@example.com")

	result := s.SyncSongsToCloud(ctx, []song.Song{song.New("First"), song.New("Second")})
	if !result.Success {
		t.Errorf("Expected success, got error %q", result.Error)
	}
	if result.SongsCount != 2 {
		t.Errorf("Expected 2 synced songs, got %d", result.SongsCount)
	}
}

func TestSyncSongsToCloudReportsFailures(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	signUpTestUser(t, provider, "singer@example.com")
	setOffline(t, provider, true)

	result := s.SyncSongsToCloud(ctx, []song.Song{song.New("Test Song")})
	if result.Success {
		t.Errorf("Expected failure while offline")
	}
	if result.Error != "1 songs failed to sync" {
		t.Errorf("Expected '1 songs failed to sync', got %q", result.Error)
	}
	if result.SongsCount != 0 {
		t.Errorf("Expected 0 synced songs, got %d", result.SongsCount)
	}
}

func TestCloudSongToLocal(t *testing.T) {
	cs := song.CloudSong{
		ID:        "abcdefabcdefabcdefabcdefabcdef12",
		Title:     "Test Song",
		CreatedAt: "2025-01-01T00:00:00Z",
		UpdatedAt: map[string]any{"seconds": float64(1735689600), "nanos": float64(0)},
	}

	local := CloudSongToLocal(cs)
	if !local.ID.IsRemote() {
		t.Errorf("Expected remote id, got %v", local.ID)
	}
	if local.ID.Remote() != cs.ID {
		t.Errorf("Expected id %s, got %s", cs.ID, local.ID.Remote())
	}
	if local.CreatedAt != "2025-01-01T00:00:00Z" {
		t.Errorf("Expected passthrough timestamp, got %q", local.CreatedAt)
	}
	want := time.Unix(1735689600, 0).UTC().Format(time.RFC3339)
	if local.UpdatedAt != want {
		t.Errorf("Expected %q from structured timestamp, got %q", want, local.UpdatedAt)
	}

	// Documents without an id get a fresh local one.
	local = CloudSongToLocal(song.CloudSong{Title: "No ID"})
	if local.ID.IsRemote() || local.ID.IsZero() {
		t.Errorf("Expected fresh local id, got %v", local.ID)
	}
}

func TestIsCloudAvailable(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()

	if !s.IsCloudAvailable(ctx) {
		t.Errorf("Expected cloud to be available")
	}

	setOffline(t, provider, true)
	if s.IsCloudAvailable(ctx) {
		t.Errorf("Expected cloud to be unavailable while offline")
	}
}

func TestSyncStatus(t *testing.T) {
	s, provider := newTestService(t)
	ctx := context.Background()
	user := signUpTestUser(t, provider, "singer@example.com")
	store, _ := provider.Store()

	store.SetDocument(ctx, songPath(user.UID, "first000000000000000000000000000"), map[string]any{
		"title":       "First",
		"ownerUserId": user.UID,
		"updatedAt":   "2025-01-01T00:00:00Z",
		"isDeleted":   false,
	}, false)
	store.SetDocument(ctx, songPath(user.UID, "second00000000000000000000000000"), map[string]any{
		"title":       "Second",
		"ownerUserId": user.UID,
		"updatedAt":   "2025-06-01T00:00:00Z",
		"isDeleted":   false,
	}, false)

	status, err := s.SyncStatus(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status.TotalSongs != 2 {
		t.Errorf("Expected 2 songs, got %d", status.TotalSongs)
	}
	if status.LastSync != "2025-06-01T00:00:00Z" {
		t.Errorf("Expected last sync 2025-06-01T00:00:00Z, got %q", status.LastSync)
	}
}
