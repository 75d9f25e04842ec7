package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/cloudstore"
	"lyriclab-api-go/config"
	"lyriclab-api-go/logcolors"
	"lyriclab-api-go/retry"
	"lyriclab-api-go/song"
	"lyriclab-api-go/stats"
)

// Preconditions for cloud writes. Messages are user-facing.
var (
	ErrNotSignedIn      = errors.New("Benutzer nicht angemeldet.")
	ErrEmailNotVerified = errors.New(cloudstore.AuthErrorMessage("auth/email-not-verified"))
)

// Service reads and writes songs in the remote store on behalf of the
// signed-in user. All remote operations go through the retrier.
type Service struct {
	provider *cloudstore.Provider
	retrier  *retry.Retrier
}

// New creates a cloud sync service backed by the given provider.
func New(cfg config.Config, provider *cloudstore.Provider) *Service {
	return &Service{
		provider: provider,
		retrier: retry.New(retry.Config{
			Name:        "cloud-sync",
			MaxAttempts: cfg.Configuration.RetryMaxAttempts,
			BaseDelay:   time.Duration(cfg.Configuration.RetryBaseDelayMs) * time.Millisecond,
		}),
	}
}

func songsCollection(uid string) string {
	return "users/" + uid + "/songs"
}

func songPath(uid, id string) string {
	return songsCollection(uid) + "/" + id
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// cloudSongData flattens a CloudSong into the loosely typed document shape
// the remote store works with.
func cloudSongData(cs song.CloudSong) (map[string]any, error) {
	raw, err := json.Marshal(cs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode song: %v", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to encode song: %v", err)
	}
	delete(data, "id")
	return data, nil
}

func docToCloudSong(doc cloudstore.Document) (song.CloudSong, error) {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return song.CloudSong{}, fmt.Errorf("failed to decode song document %s: %v", doc.ID, err)
	}
	var cs song.CloudSong
	if err := json.Unmarshal(raw, &cs); err != nil {
		return song.CloudSong{}, fmt.Errorf("failed to decode song document %s: %v", doc.ID, err)
	}
	cs.ID = doc.ID
	return cs, nil
}

// GetUserSongs returns the signed-in user's songs, newest first, with soft
// deleted songs filtered out. Without a signed-in user it returns an empty
// list. Backends that cannot evaluate the inequality filter or the ordering
// get a plain collection read with filtering and sorting done client side.
func (s *Service) GetUserSongs(ctx context.Context) ([]song.CloudSong, error) {
	user := s.provider.CurrentUser(ctx)
	if user == nil {
		return []song.CloudSong{}, nil
	}
	store, err := s.provider.Store()
	if err != nil {
		return []song.CloudSong{}, nil
	}

	var docs []cloudstore.Document
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		docs, opErr = s.fetchSongs(ctx, store, user.UID)
		return opErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load songs from cloud: %v", err)
	}

	songs := make([]song.CloudSong, 0, len(docs))
	for _, doc := range docs {
		cs, err := docToCloudSong(doc)
		if err != nil {
			log.Warnf("%s Skipping malformed song document: %v", logcolors.LogSync, err)
			continue
		}
		if cs.IsDeleted {
			continue
		}
		songs = append(songs, cs)
	}

	// Server-side ordering may not have happened; sorting an already
	// ordered list is harmless.
	sort.SliceStable(songs, func(i, j int) bool {
		return song.NormalizeTimestamp(songs[i].UpdatedAt) > song.NormalizeTimestamp(songs[j].UpdatedAt)
	})

	logcolors.SyncInfof("Loaded %d songs from cloud for %s", len(songs), user.Email)
	return songs, nil
}

// fetchSongs issues the filtered, ordered query and falls back to an
// unfiltered collection read when the backend rejects it.
func (s *Service) fetchSongs(ctx context.Context, store cloudstore.DocumentStore, uid string) ([]cloudstore.Document, error) {
	if store.SupportsOrdering() {
		q := &cloudstore.Query{
			Filters:    []cloudstore.Filter{{Field: "isDeleted", Op: "!=", Value: true}},
			OrderBy:    "updatedAt",
			Descending: true,
		}
		docs, err := store.GetCollection(ctx, songsCollection(uid), q)
		if err == nil {
			return docs, nil
		}
		se, ok := err.(*cloudstore.Error)
		if !ok || se.Code != cloudstore.CodeInvalidArgument {
			return nil, err
		}
		log.Warnf("%s Filtered query rejected, fetching full collection: %v", logcolors.LogSync, err)
	}
	return store.GetCollection(ctx, songsCollection(uid), nil)
}

// SaveSong writes a song to the remote store and returns its cloud document
// id. Songs that already carry a remote id are updated in place; everything
// else becomes a new document. Requires a signed-in, email-verified user.
func (s *Service) SaveSong(ctx context.Context, sng song.Song) (string, error) {
	user := s.provider.CurrentUser(ctx)
	if user == nil {
		return "", ErrNotSignedIn
	}
	if !user.EmailVerified {
		return "", ErrEmailNotVerified
	}
	store, err := s.provider.Store()
	if err != nil {
		return "", err
	}

	cs := song.CloudSong{
		OwnerUserID: user.UID,
		Title:       sng.Title,
		Artist:      sng.Artist,
		BPM:         sng.BPM,
		Key:         sng.Key,
		Sections:    sng.Sections,
		Recording:   sng.Recording,
		CreatedAt:   sng.CreatedAt,
		UpdatedAt:   nowISO(),
		IsDeleted:   false,
	}

	var cloudID string
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		cloudID, opErr = s.saveOnce(ctx, store, user.UID, sng, cs)
		return opErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to save song to cloud: %v", err)
	}

	stats.Get().RecordCloudSave()
	logcolors.SyncInfof("Saved song %q to cloud as %s", sng.Title, cloudID)
	return cloudID, nil
}

func (s *Service) saveOnce(ctx context.Context, store cloudstore.DocumentStore, uid string, sng song.Song, cs song.CloudSong) (string, error) {
	if sng.ID.IsRemote() {
		id := sng.ID.Remote()
		_, err := store.GetDocument(ctx, songPath(uid, id))
		if err == nil {
			data, err := cloudSongData(cs)
			if err != nil {
				return "", err
			}
			if err := store.SetDocument(ctx, songPath(uid, id), data, true); err != nil {
				return "", err
			}
			logcolors.SyncInfof("Updated existing song %s", id)
			return id, nil
		}
		if !cloudstore.IsNotFound(err) {
			return "", err
		}
		// The document this id referred to is gone; recreate below.
	}

	if cs.CreatedAt == nil || cs.CreatedAt == "" {
		cs.CreatedAt = nowISO()
	}
	data, err := cloudSongData(cs)
	if err != nil {
		return "", err
	}
	return store.AddDocument(ctx, songsCollection(uid), data)
}

// DeleteSong soft deletes a song in the remote store. The document stays in
// place with isDeleted set so other devices see the deletion on next sync.
func (s *Service) DeleteSong(ctx context.Context, cloudID string) error {
	user := s.provider.CurrentUser(ctx)
	if user == nil {
		return ErrNotSignedIn
	}
	store, err := s.provider.Store()
	if err != nil {
		return err
	}

	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		return store.SetDocument(ctx, songPath(user.UID, cloudID), map[string]any{
			"isDeleted": true,
			"updatedAt": nowISO(),
		}, true)
	})
	if err != nil {
		return fmt.Errorf("failed to delete song from cloud: %v", err)
	}

	stats.Get().RecordCloudDelete()
	logcolors.SyncInfof("Soft deleted song %s in cloud", cloudID)
	return nil
}

// CloudSongToLocal projects a cloud document back into the local song shape.
// Owner and soft-delete bookkeeping are dropped; the remote document id
// becomes the song id.
func CloudSongToLocal(cs song.CloudSong) song.Song {
	id := song.RemoteID(cs.ID)
	if cs.ID == "" {
		id = song.NewLocalID()
	}
	return song.Song{
		ID:        id,
		Title:     cs.Title,
		Artist:    cs.Artist,
		BPM:       cs.BPM,
		Key:       cs.Key,
		Sections:  cs.Sections,
		Recording: cs.Recording,
		CreatedAt: song.NormalizeTimestamp(cs.CreatedAt),
		UpdatedAt: song.NormalizeTimestamp(cs.UpdatedAt),
	}
}

// IsCloudAvailable probes remote-store connectivity. Failures mean "not
// available", never an error.
func (s *Service) IsCloudAvailable(ctx context.Context) bool {
	store, err := s.provider.Store()
	if err != nil {
		return false
	}
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		return store.Ping(ctx)
	})
	if err != nil {
		log.Warnf("%s Cloud availability check failed: %v", logcolors.LogSync, err)
		return false
	}
	return true
}

// SyncResult reports the outcome of a bulk upload.
type SyncResult struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	SongsCount int    `json:"songsCount"`
}

// SyncSongsToCloud uploads songs one by one. A failing song does not stop
// the batch; the result counts only the songs that made it.
func (s *Service) SyncSongsToCloud(ctx context.Context, songs []song.Song) SyncResult {
	synced := 0
	failed := 0
	for _, sng := range songs {
		if _, err := s.SaveSong(ctx, sng); err != nil {
			log.Errorf("%s Failed to sync song %q: %v", logcolors.LogSync, sng.Title, err)
			failed++
			continue
		}
		synced++
	}

	result := SyncResult{Success: failed == 0, SongsCount: synced}
	if failed > 0 {
		result.Error = fmt.Sprintf("%d songs failed to sync", failed)
	}
	stats.Get().RecordSyncResult(result.Success)
	logcolors.SyncInfof("Synced %d/%d songs to cloud", synced, len(songs))
	return result
}

// Status summarizes the remote library: song count and the most recent
// update timestamp.
type Status struct {
	TotalSongs int    `json:"totalSongs"`
	LastSync   string `json:"lastSync,omitempty"`
}

// SyncStatus reads the remote library and summarizes it.
func (s *Service) SyncStatus(ctx context.Context) (Status, error) {
	songs, err := s.GetUserSongs(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{TotalSongs: len(songs)}
	for _, cs := range songs {
		if ts := song.NormalizeTimestamp(cs.UpdatedAt); ts > status.LastSync {
			status.LastSync = ts
		}
	}
	return status, nil
}
