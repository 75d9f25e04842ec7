package songstore

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/cloudsync"
	"lyriclab-api-go/localdb"
	"lyriclab-api-go/logcolors"
	"lyriclab-api-go/song"
	"lyriclab-api-go/stats"
)

// Sync status values exposed to clients.
const (
	SyncIdle    = "idle"
	SyncSyncing = "syncing"
	SyncError   = "error"
	SyncSuccess = "success"
)

// Store owns the local song library. Every mutation persists locally first;
// when cloud sync is enabled the change is then pushed to the cloud in the
// background, and a failing push never undoes the local change.
type Store struct {
	mu    sync.Mutex
	db    *localdb.Store
	cloud *cloudsync.Service

	songs         []song.Song
	currentSongID song.ID

	syncEnabled     bool
	syncStatus      string
	syncError       string
	lastSyncTime    string
	cloudSongsCount int
}

// New creates a song store and loads the library from local storage.
func New(db *localdb.Store, cloud *cloudsync.Service) *Store {
	s := &Store{
		db:         db,
		cloud:      cloud,
		syncStatus: SyncIdle,
	}
	s.load()
	return s
}

// Reload re-reads the library from local storage, used after a backup
// restore replaced the database file.
func (s *Store) Reload() {
	s.load()
}

func (s *Store) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.db.GetJSON(localdb.KeySongs, &s.songs) {
		s.songs = []song.Song{}
	}
	s.db.GetJSON(localdb.KeyCurrentSongID, &s.currentSongID)
	logcolors.StorageInfof("Loaded %d songs from local storage", len(s.songs))
}

// persistLocked writes the library to local storage. Callers hold the lock.
func (s *Store) persistLocked() {
	if err := s.db.SetJSON(localdb.KeySongs, s.songs); err != nil {
		log.Errorf("%s Failed to save songs: %v", logcolors.LogStorage, err)
		return
	}
	if err := s.db.SetJSON(localdb.KeyCurrentSongID, s.currentSongID); err != nil {
		log.Errorf("%s Failed to save current song id: %v", logcolors.LogStorage, err)
		return
	}
	logcolors.StorageInfof("Saved %d songs to local storage", len(s.songs))
}

func (s *Store) indexOfLocked(id song.ID) int {
	for i := range s.songs {
		if s.songs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) sectionLocked(songIdx int, sectionID song.ID) *song.Section {
	sng := &s.songs[songIdx]
	for i := range sng.Sections {
		if sng.Sections[i].ID == sectionID {
			return &sng.Sections[i]
		}
	}
	return nil
}

// Songs returns a copy of the library.
func (s *Store) Songs() []song.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]song.Song, len(s.songs))
	copy(out, s.songs)
	return out
}

// Song returns a single song by id.
func (s *Store) Song(id song.ID) (song.Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOfLocked(id); i != -1 {
		return s.songs[i], true
	}
	return song.Song{}, false
}

// CurrentSong returns the selected song, if any.
func (s *Store) CurrentSong() (song.Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOfLocked(s.currentSongID); i != -1 {
		return s.songs[i], true
	}
	return song.Song{}, false
}

// SelectSong makes a song the current one.
func (s *Store) SelectSong(id song.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOfLocked(id) == -1 {
		return fmt.Errorf("song %s not found", id)
	}
	s.currentSongID = id
	s.persistLocked()
	return nil
}

var newSongTitle = regexp.MustCompile(`^New Song(?:\s+(\d+))?$`)

// nextNewSongTitle picks the first free "New Song N" title. The unnumbered
// "New Song" counts as number 1; gaps are filled before extending.
func nextNewSongTitle(songs []song.Song) string {
	var numbers []int
	for _, sng := range songs {
		m := newSongTitle.FindStringSubmatch(sng.Title)
		if m == nil {
			continue
		}
		n := 1
		if m[1] != "" {
			n, _ = strconv.Atoi(m[1])
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return "New Song"
	}

	sort.Ints(numbers)
	next := numbers[len(numbers)-1] + 1
	for i, n := range numbers {
		if n != i+1 {
			next = i + 1
			break
		}
	}
	if next == 1 {
		return "New Song"
	}
	return fmt.Sprintf("New Song %d", next)
}

// CreateSong creates a new song with a unique default title, selects it and
// persists. With cloud sync enabled the song is pushed in the background.
func (s *Store) CreateSong(ctx context.Context) song.Song {
	s.mu.Lock()
	sng := song.New(nextNewSongTitle(s.songs))
	sng.CreatedAt = nowISO()
	sng.UpdatedAt = sng.CreatedAt
	s.songs = append(s.songs, sng)
	s.currentSongID = sng.ID
	s.persistLocked()
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return sng
}

// UpdateSong replaces a song with new content. The local write always wins;
// the cloud push happens afterwards in the background.
func (s *Store) UpdateSong(ctx context.Context, updated song.Song) error {
	s.mu.Lock()
	i := s.indexOfLocked(updated.ID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("song %s not found", updated.ID)
	}
	updated.UpdatedAt = nowISO()
	s.songs[i] = updated
	s.persistLocked()
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(updated)
	}
	return nil
}

// DeleteSong removes a song locally and, when cloud sync is enabled and the
// song has a remote counterpart, soft deletes it in the cloud.
func (s *Store) DeleteSong(ctx context.Context, id song.ID) error {
	s.mu.Lock()
	i := s.indexOfLocked(id)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("song %s not found", id)
	}
	deleted := s.songs[i]
	s.songs = append(s.songs[:i], s.songs[i+1:]...)
	if s.currentSongID == id {
		s.currentSongID = song.ID{}
		if len(s.songs) > 0 {
			s.currentSongID = s.songs[0].ID
		}
	}
	s.persistLocked()
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled && deleted.ID.IsRemote() {
		go func() {
			logcolors.SyncInfof("Auto-deleting %q from cloud", deleted.Title)
			if err := s.cloud.DeleteSong(context.Background(), deleted.ID.Remote()); err != nil {
				log.Warnf("%s Failed to delete song from cloud: %v", logcolors.LogSync, err)
			}
		}()
	}
	return nil
}

// autoSync pushes one song to the cloud in the background. Failures are
// logged; the local mutation already succeeded.
func (s *Store) autoSync(sng song.Song) {
	go func() {
		logcolors.SyncInfof("Auto-syncing %q to cloud", sng.Title)
		if _, err := s.SaveSongToCloud(context.Background(), sng); err != nil {
			log.Warnf("%s Cloud sync failed (continuing with local): %v", logcolors.LogSync, err)
		}
	}()
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// AddSection appends a section of the given type to the current song,
// numbering the title after existing sections of the same type.
func (s *Store) AddSection(ctx context.Context, sectionType string) (song.Section, error) {
	if sectionType == "" {
		sectionType = song.TypeVerse
	}

	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return song.Section{}, fmt.Errorf("no song selected")
	}

	sec := song.Section{
		ID:    song.NewLocalID(),
		Type:  sectionType,
		Title: song.GenerateSectionTitle(sectionType, s.songs[i].Sections),
		Lines: []song.Line{},
	}
	s.songs[i].Sections = append(s.songs[i].Sections, sec)
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return sec, nil
}

// DeleteSection removes a section from the current song.
func (s *Store) DeleteSection(ctx context.Context, sectionID song.ID) error {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("no song selected")
	}
	sections := s.songs[i].Sections
	idx := -1
	for j := range sections {
		if sections[j].ID == sectionID {
			idx = j
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return fmt.Errorf("section %s not found", sectionID)
	}
	s.songs[i].Sections = append(sections[:idx], sections[idx+1:]...)
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return nil
}

// MoveSection moves a section of the current song to a new position.
func (s *Store) MoveSection(ctx context.Context, fromIndex, toIndex int) error {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("no song selected")
	}
	sections := s.songs[i].Sections
	if fromIndex < 0 || fromIndex >= len(sections) || toIndex < 0 || toIndex >= len(sections) {
		s.mu.Unlock()
		return fmt.Errorf("invalid section indices %d -> %d", fromIndex, toIndex)
	}

	sec := sections[fromIndex]
	sections = append(sections[:fromIndex], sections[fromIndex+1:]...)
	sections = append(sections[:toIndex], append([]song.Section{sec}, sections[toIndex:]...)...)
	s.songs[i].Sections = sections
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return nil
}

// AddLine appends an empty line to a section of the current song.
func (s *Store) AddLine(ctx context.Context, sectionID song.ID) (song.Line, error) {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return song.Line{}, fmt.Errorf("no song selected")
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		s.mu.Unlock()
		return song.Line{}, fmt.Errorf("section %s not found", sectionID)
	}

	line := song.Line{ID: song.NewLocalID()}
	sec.Lines = append(sec.Lines, line)
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return line, nil
}

// SetLineText updates a line's text and recounts its syllables.
func (s *Store) SetLineText(ctx context.Context, sectionID, lineID song.ID, text string) (song.Line, error) {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return song.Line{}, fmt.Errorf("no song selected")
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		s.mu.Unlock()
		return song.Line{}, fmt.Errorf("section %s not found", sectionID)
	}

	var updated *song.Line
	for j := range sec.Lines {
		if sec.Lines[j].ID == lineID {
			sec.Lines[j].Text = text
			sec.Lines[j].Syllables = song.CountSyllables(text)
			updated = &sec.Lines[j]
			break
		}
	}
	if updated == nil {
		s.mu.Unlock()
		return song.Line{}, fmt.Errorf("line %s not found", lineID)
	}
	line := *updated
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return line, nil
}

// DeleteLine removes a line from a section of the current song.
func (s *Store) DeleteLine(ctx context.Context, sectionID, lineID song.ID) error {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("no song selected")
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		s.mu.Unlock()
		return fmt.Errorf("section %s not found", sectionID)
	}

	idx := -1
	for j := range sec.Lines {
		if sec.Lines[j].ID == lineID {
			idx = j
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return fmt.Errorf("line %s not found", lineID)
	}
	sec.Lines = append(sec.Lines[:idx], sec.Lines[idx+1:]...)
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return nil
}

// MoveLine moves a line between sections of the current song (or within one)
// by index.
func (s *Store) MoveLine(ctx context.Context, fromSectionID, toSectionID song.ID, lineIndex, newIndex int) error {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("no song selected")
	}
	from := s.sectionLocked(i, fromSectionID)
	to := s.sectionLocked(i, toSectionID)
	if from == nil || to == nil {
		s.mu.Unlock()
		return fmt.Errorf("section not found")
	}
	if lineIndex < 0 || lineIndex >= len(from.Lines) {
		s.mu.Unlock()
		return fmt.Errorf("invalid line index %d", lineIndex)
	}

	line := from.Lines[lineIndex]
	from.Lines = append(from.Lines[:lineIndex], from.Lines[lineIndex+1:]...)
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(to.Lines) {
		newIndex = len(to.Lines)
	}
	to.Lines = append(to.Lines[:newIndex], append([]song.Line{line}, to.Lines[newIndex:]...)...)
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return nil
}

// SaveRecording attaches an audio take to a section of the current song. The
// payload arrives base64 encoded and is stored as-is.
func (s *Store) SaveRecording(ctx context.Context, sectionID song.ID, data string, duration float64) (song.Recording, error) {
	if data == "" {
		return song.Recording{}, fmt.Errorf("empty recording payload")
	}

	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return song.Recording{}, fmt.Errorf("no song selected")
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		s.mu.Unlock()
		return song.Recording{}, fmt.Errorf("section %s not found", sectionID)
	}

	rec := song.Recording{
		ID:        song.NewLocalID(),
		Data:      data,
		Timestamp: nowISO(),
		Duration:  duration,
	}
	sec.Recording = &rec
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	log.Infof("%s Recording saved for section %s (%.1fs)", logcolors.LogAudio, sectionID, duration)
	if enabled {
		s.autoSync(sng)
	}
	return rec, nil
}

// DeleteRecording removes the audio take from a section of the current song.
func (s *Store) DeleteRecording(ctx context.Context, sectionID song.ID) error {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("no song selected")
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		s.mu.Unlock()
		return fmt.Errorf("section %s not found", sectionID)
	}
	sec.Recording = nil
	s.songs[i].UpdatedAt = nowISO()
	s.persistLocked()
	sng := s.songs[i]
	enabled := s.syncEnabled
	s.mu.Unlock()

	if enabled {
		s.autoSync(sng)
	}
	return nil
}

// SetLineAuthor tags a line with authorship. The original author sticks; only
// the last-modified fields move on subsequent edits.
func (s *Store) SetLineAuthor(ctx context.Context, sectionID, lineID song.ID, authorID, authorColor string) error {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("no song selected")
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		s.mu.Unlock()
		return fmt.Errorf("section %s not found", sectionID)
	}

	found := false
	for j := range sec.Lines {
		if sec.Lines[j].ID == lineID {
			if sec.Lines[j].AuthorID == "" {
				sec.Lines[j].AuthorID = authorID
				sec.Lines[j].AuthorColor = authorColor
			}
			sec.Lines[j].LastModifiedBy = authorID
			sec.Lines[j].LastModifiedAt = nowISO()
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("line %s not found", lineID)
	}
	s.persistLocked()
	s.mu.Unlock()
	return nil
}

// SetSectionAuthor tags a note section with authorship, same stickiness rules
// as lines.
func (s *Store) SetSectionAuthor(ctx context.Context, sectionID song.ID, authorID, authorColor string) error {
	s.mu.Lock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("no song selected")
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		s.mu.Unlock()
		return fmt.Errorf("section %s not found", sectionID)
	}

	if sec.AuthorID == "" {
		sec.AuthorID = authorID
		sec.AuthorColor = authorColor
	}
	sec.LastModifiedBy = authorID
	sec.LastModifiedAt = nowISO()
	s.persistLocked()
	s.mu.Unlock()
	return nil
}

// LineAuthorColor returns a line's author color, or "".
func (s *Store) LineAuthorColor(sectionID, lineID song.ID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		return ""
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		return ""
	}
	for j := range sec.Lines {
		if sec.Lines[j].ID == lineID {
			return sec.Lines[j].AuthorColor
		}
	}
	return ""
}

// SectionAuthorColor returns a section's author color, or "".
func (s *Store) SectionAuthorColor(sectionID song.ID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(s.currentSongID)
	if i == -1 {
		return ""
	}
	sec := s.sectionLocked(i, sectionID)
	if sec == nil {
		return ""
	}
	return sec.AuthorColor
}

// EnableCloudSync turns on dual storage: existing local songs are pushed to
// the cloud, then the cloud library is pulled and replaces the local one.
// Any failure turns sync back off.
func (s *Store) EnableCloudSync(ctx context.Context) error {
	s.mu.Lock()
	s.syncEnabled = true
	count := len(s.songs)
	s.mu.Unlock()

	logcolors.SyncInfof("Cloud sync enabled, syncing %d existing local songs", count)

	if count > 0 {
		result := s.SyncSongsToCloud(ctx)
		if !result.Success {
			s.disableAfterFailure(result.Error)
			return fmt.Errorf("failed to enable cloud sync: %s", result.Error)
		}
		logcolors.SyncInfof("Background sync: all local songs synchronized to cloud")
	}

	if err := s.LoadSongsFromCloud(ctx); err != nil {
		s.disableAfterFailure(err.Error())
		return fmt.Errorf("failed to enable cloud sync: %v", err)
	}
	logcolors.SyncInfof("Background sync: cloud songs loaded to local storage")
	return nil
}

func (s *Store) disableAfterFailure(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnabled = false
	s.syncStatus = SyncError
	s.syncError = reason
}

// DisableCloudSync turns off cloud sync. The local library is untouched.
func (s *Store) DisableCloudSync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnabled = false
	s.syncStatus = SyncIdle
	s.syncError = ""
	log.Infof("%s Cloud sync disabled", logcolors.LogSync)
}

// SyncSongsToCloud pushes every local song to the cloud. Songs that gain a
// remote id on first upload are updated in place. One failing song does not
// stop the batch.
func (s *Store) SyncSongsToCloud(ctx context.Context) cloudsync.SyncResult {
	s.mu.Lock()
	if !s.syncEnabled {
		s.mu.Unlock()
		return cloudsync.SyncResult{Success: false, Error: "cloud sync not enabled"}
	}
	s.syncStatus = SyncSyncing
	s.syncError = ""
	songs := make([]song.Song, len(s.songs))
	copy(songs, s.songs)
	s.mu.Unlock()

	synced := 0
	failed := 0
	for _, sng := range songs {
		if _, err := s.SaveSongToCloud(ctx, sng); err != nil {
			log.Errorf("%s Failed to sync song %q: %v", logcolors.LogSync, sng.Title, err)
			failed++
			continue
		}
		synced++
	}

	result := cloudsync.SyncResult{Success: failed == 0, SongsCount: synced}
	if failed > 0 {
		result.Error = fmt.Sprintf("%d songs failed to sync", failed)
	}
	stats.Get().RecordSyncResult(result.Success)

	s.mu.Lock()
	if result.Success {
		s.syncStatus = SyncSuccess
		s.lastSyncTime = nowISO()
		s.cloudSongsCount = result.SongsCount
	} else {
		s.syncStatus = SyncError
		s.syncError = result.Error
	}
	s.mu.Unlock()

	logcolors.SyncInfof("Synced %d/%d songs to cloud", synced, len(songs))
	return result
}

// LoadSongsFromCloud pulls the cloud library and replaces the local one.
// Local songs with a newer timestamp than their cloud copy are overwritten
// anyway; a warning names them so the loss is at least visible.
func (s *Store) LoadSongsFromCloud(ctx context.Context) error {
	s.mu.Lock()
	if !s.syncEnabled {
		s.mu.Unlock()
		return fmt.Errorf("cloud sync not enabled")
	}
	s.syncStatus = SyncSyncing
	s.syncError = ""
	s.mu.Unlock()

	cloudSongs, err := s.cloud.GetUserSongs(ctx)
	if err != nil {
		s.mu.Lock()
		s.syncStatus = SyncError
		s.syncError = err.Error()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(cloudSongs) > 0 {
		incoming := make([]song.Song, 0, len(cloudSongs))
		byRemoteID := make(map[string]string, len(cloudSongs))
		for _, cs := range cloudSongs {
			local := cloudsync.CloudSongToLocal(cs)
			incoming = append(incoming, local)
			byRemoteID[cs.ID] = local.UpdatedAt
		}
		for _, existing := range s.songs {
			cloudUpdated, inCloud := byRemoteID[existing.ID.Remote()]
			if inCloud && existing.UpdatedAt > cloudUpdated {
				log.Warnf("%s Local song %q is newer than its cloud copy and will be overwritten",
					logcolors.LogSync, existing.Title)
			}
		}
		s.songs = incoming
		if s.indexOfLocked(s.currentSongID) == -1 {
			s.currentSongID = song.ID{}
			if len(s.songs) > 0 {
				s.currentSongID = s.songs[0].ID
			}
		}
		s.persistLocked()
		s.cloudSongsCount = len(cloudSongs)
		logcolors.SyncInfof("Loaded %d songs from cloud", len(cloudSongs))
	}

	s.syncStatus = SyncSuccess
	s.lastSyncTime = nowISO()
	return nil
}

// SaveSongToCloud pushes one song and rewrites its local id with the remote
// document id on first upload. Returns the cloud id, or "" when sync is off.
func (s *Store) SaveSongToCloud(ctx context.Context, sng song.Song) (string, error) {
	s.mu.Lock()
	enabled := s.syncEnabled
	s.mu.Unlock()
	if !enabled {
		return "", nil
	}

	cloudID, err := s.cloud.SaveSong(ctx, sng)
	if err != nil {
		return "", err
	}

	if !sng.ID.IsRemote() && cloudID != "" {
		s.mu.Lock()
		if i := s.indexOfLocked(sng.ID); i != -1 {
			s.songs[i].ID = song.RemoteID(cloudID)
			if s.currentSongID == sng.ID {
				s.currentSongID = s.songs[i].ID
			}
			s.persistLocked()
		}
		s.mu.Unlock()
	}
	return cloudID, nil
}

// SyncState is the sync status surface exposed to clients.
type SyncState struct {
	Enabled         bool   `json:"enabled"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	LastSyncTime    string `json:"lastSyncTime,omitempty"`
	CloudSongsCount int    `json:"cloudSongsCount"`
	LocalSongsCount int    `json:"localSongsCount"`
}

// State returns the current sync state.
func (s *Store) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SyncState{
		Enabled:         s.syncEnabled,
		Status:          s.syncStatus,
		Error:           s.syncError,
		LastSyncTime:    s.lastSyncTime,
		CloudSongsCount: s.cloudSongsCount,
		LocalSongsCount: len(s.songs),
	}
}

// ResetSyncStatus puts the sync status back to idle without touching the
// enabled flag.
func (s *Store) ResetSyncStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncStatus = SyncIdle
	s.syncError = ""
}

// CloudSyncStatus reads the remote library summary. Nil when sync is off or
// the lookup fails.
func (s *Store) CloudSyncStatus(ctx context.Context) *cloudsync.Status {
	s.mu.Lock()
	enabled := s.syncEnabled
	s.mu.Unlock()
	if !enabled {
		return nil
	}
	status, err := s.cloud.SyncStatus(ctx)
	if err != nil {
		log.Warnf("%s Failed to get cloud sync status: %v", logcolors.LogSync, err)
		return nil
	}
	return &status
}

// CheckCloudAvailability probes whether the cloud backend is reachable.
func (s *Store) CheckCloudAvailability(ctx context.Context) bool {
	return s.cloud.IsCloudAvailable(ctx)
}
