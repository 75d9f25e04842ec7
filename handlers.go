package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lyriclab-api-go/cloudstore"
	"lyriclab-api-go/cloudsync"
	"lyriclab-api-go/colors"
	"lyriclab-api-go/localdb"
	"lyriclab-api-go/song"
	"lyriclab-api-go/stats"
)

// parseID interprets a path segment as a song/section/line id: numeric ids
// are local, everything else is a remote document id.
func parseID(raw string) song.ID {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return song.LocalID(n)
	}
	return song.RemoteID(raw)
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, cloudsync.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, cloudsync.ErrEmailNotVerified):
		return http.StatusForbidden
	}
	var authErr *cloudstore.AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "expired") || strings.Contains(msg, "already"):
		return http.StatusConflict
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "no song selected"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (a *App) helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"name": "lyriclab-api",
		"help": "Song library with cloud sync and collaboration. See /songs, /sync, /auth, /collab, /colors, /library, /health, /stats.",
	})
}

func (a *App) getHealthStatus(w http.ResponseWriter, r *http.Request) {
	numKeys, sizeKB := a.db.Stats()
	Respond(w, r).JSON(map[string]interface{}{
		"status":        "ok",
		"time":          time.Now().UTC().Format(time.RFC3339),
		"libraryKeys":   numKeys,
		"librarySizeKB": sizeKB,
		"cloudBackend":  a.cfg.Configuration.CloudBackend,
	})
}

func (a *App) getStats(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(stats.Get().GetSnapshot())
}

// ==================== songs ====================

func (a *App) listSongs(w http.ResponseWriter, r *http.Request) {
	current, _ := a.songs.CurrentSong()
	Respond(w, r).JSON(map[string]interface{}{
		"songs":         a.songs.Songs(),
		"currentSongId": current.ID,
	})
}

func (a *App) createSong(w http.ResponseWriter, r *http.Request) {
	sng := a.songs.CreateSong(r.Context())
	Respond(w, r).Status(http.StatusCreated, sng)
}

func (a *App) getSong(w http.ResponseWriter, r *http.Request) {
	id := parseID(mux.Vars(r)["id"])
	sng, ok := a.songs.Song(id)
	if !ok {
		Respond(w, r).Error(http.StatusNotFound, "song not found")
		return
	}
	Respond(w, r).JSON(sng)
}

func (a *App) updateSong(w http.ResponseWriter, r *http.Request) {
	var sng song.Song
	if !decodeBody(w, r, &sng) {
		return
	}
	sng.ID = parseID(mux.Vars(r)["id"])
	if err := a.songs.UpdateSong(r.Context(), sng); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	updated, _ := a.songs.Song(sng.ID)
	Respond(w, r).JSON(updated)
}

func (a *App) deleteSong(w http.ResponseWriter, r *http.Request) {
	id := parseID(mux.Vars(r)["id"])
	if err := a.songs.DeleteSong(r.Context(), id); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"deleted": true})
}

func (a *App) getCurrentSong(w http.ResponseWriter, r *http.Request) {
	sng, ok := a.songs.CurrentSong()
	if !ok {
		Respond(w, r).Error(http.StatusNotFound, "no song selected")
		return
	}
	Respond(w, r).JSON(sng)
}

func (a *App) selectSong(w http.ResponseWriter, r *http.Request) {
	var req SelectSongRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.songs.SelectSong(parseID(req.ID)); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	sng, _ := a.songs.CurrentSong()
	Respond(w, r).JSON(sng)
}

// ==================== sections and lines ====================

func (a *App) addSection(w http.ResponseWriter, r *http.Request) {
	var req AddSectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sec, err := a.songs.AddSection(r.Context(), req.Type)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).Status(http.StatusCreated, sec)
}

func (a *App) deleteSection(w http.ResponseWriter, r *http.Request) {
	id := parseID(mux.Vars(r)["sectionId"])
	if err := a.songs.DeleteSection(r.Context(), id); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"deleted": true})
}

func (a *App) moveSection(w http.ResponseWriter, r *http.Request) {
	var req MoveSectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.songs.MoveSection(r.Context(), req.FromIndex, req.ToIndex); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	sng, _ := a.songs.CurrentSong()
	Respond(w, r).JSON(sng)
}

func (a *App) addLine(w http.ResponseWriter, r *http.Request) {
	sectionID := parseID(mux.Vars(r)["sectionId"])
	line, err := a.songs.AddLine(r.Context(), sectionID)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).Status(http.StatusCreated, line)
}

func (a *App) setLineText(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req LineTextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	line, err := a.songs.SetLineText(r.Context(), parseID(vars["sectionId"]), parseID(vars["lineId"]), req.Text)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(line)
}

func (a *App) deleteLine(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := a.songs.DeleteLine(r.Context(), parseID(vars["sectionId"]), parseID(vars["lineId"])); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"deleted": true})
}

func (a *App) moveLine(w http.ResponseWriter, r *http.Request) {
	var req MoveLineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.songs.MoveLine(r.Context(), parseID(req.FromSectionID), parseID(req.ToSectionID), req.LineIndex, req.NewIndex)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	sng, _ := a.songs.CurrentSong()
	Respond(w, r).JSON(sng)
}

func (a *App) saveRecording(w http.ResponseWriter, r *http.Request) {
	sectionID := parseID(mux.Vars(r)["sectionId"])
	var req RecordingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := a.songs.SaveRecording(r.Context(), sectionID, req.Data, req.Duration)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).Status(http.StatusCreated, rec)
}

func (a *App) deleteRecording(w http.ResponseWriter, r *http.Request) {
	sectionID := parseID(mux.Vars(r)["sectionId"])
	if err := a.songs.DeleteRecording(r.Context(), sectionID); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"deleted": true})
}

func (a *App) setLineAuthor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req AuthorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.songs.SetLineAuthor(r.Context(), parseID(vars["sectionId"]), parseID(vars["lineId"]), req.AuthorID, req.AuthorColor)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"updated": true})
}

func (a *App) setSectionAuthor(w http.ResponseWriter, r *http.Request) {
	var req AuthorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.songs.SetSectionAuthor(r.Context(), parseID(mux.Vars(r)["sectionId"]), req.AuthorID, req.AuthorColor)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"updated": true})
}

// ==================== cloud sync ====================

func (a *App) enableCloudSync(w http.ResponseWriter, r *http.Request) {
	if err := a.songs.EnableCloudSync(r.Context()); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(a.songs.State())
}

func (a *App) disableCloudSync(w http.ResponseWriter, r *http.Request) {
	a.songs.DisableCloudSync()
	Respond(w, r).JSON(a.songs.State())
}

func (a *App) pushToCloud(w http.ResponseWriter, r *http.Request) {
	result := a.songs.SyncSongsToCloud(r.Context())
	if !result.Success {
		Respond(w, r).Status(http.StatusBadGateway, result)
		return
	}
	Respond(w, r).JSON(result)
}

func (a *App) pullFromCloud(w http.ResponseWriter, r *http.Request) {
	if err := a.songs.LoadSongsFromCloud(r.Context()); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(a.songs.State())
}

func (a *App) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"local": a.songs.State(),
	}
	if cloud := a.songs.CloudSyncStatus(r.Context()); cloud != nil {
		resp["cloud"] = cloud
	}
	Respond(w, r).JSON(resp)
}

func (a *App) getSyncAvailability(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]bool{
		"available": a.songs.CheckCloudAvailability(r.Context()),
	})
}

// ==================== auth ====================

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := a.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).Status(http.StatusCreated, user)
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := a.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(user)
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.users.Logout(r.Context()); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"loggedOut": true})
}

func (a *App) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := a.users.CurrentUser()
	if user == nil {
		Respond(w, r).Error(http.StatusUnauthorized, "not signed in")
		return
	}
	Respond(w, r).JSON(user)
}

func (a *App) sendEmailVerification(w http.ResponseWriter, r *http.Request) {
	if err := a.users.SendEmailVerification(r.Context()); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"sent": true})
}

func (a *App) refreshVerification(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]bool{
		"emailVerified": a.users.RefreshVerificationStatus(r.Context()),
	})
}

// ==================== collaboration ====================

func (a *App) shareSong(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SongID == "" || req.ToEmail == "" {
		Respond(w, r).Error(http.StatusBadRequest, "songId and toEmail are required")
		return
	}
	inv, err := a.collab.ShareWithUser(r.Context(), req.SongID, req.SongTitle, req.ToEmail, req.Role)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).Status(http.StatusCreated, inv)
}

func (a *App) listInvites(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"invites": a.collab.UserInvites(r.Context()),
	})
}

func (a *App) acceptInvite(w http.ResponseWriter, r *http.Request) {
	inv, err := a.collab.AcceptInvite(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(inv)
}

func (a *App) declineInvite(w http.ResponseWriter, r *http.Request) {
	inv, err := a.collab.DeclineInvite(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).JSON(inv)
}

func (a *App) createPublicLink(w http.ResponseWriter, r *http.Request) {
	var req PublicLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SongID == "" {
		Respond(w, r).Error(http.StatusBadRequest, "songId is required")
		return
	}
	share, err := a.collab.GeneratePublicLink(r.Context(), req.SongID)
	if err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	Respond(w, r).Status(http.StatusCreated, share)
}

func (a *App) getCollabAvailability(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]bool{
		"available": a.collab.IsCollaborationAvailable(r.Context()),
	})
}

// ==================== collaborator colors ====================

func (a *App) assignColor(w http.ResponseWriter, r *http.Request) {
	var req AssignColorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.UserID == "" {
		Respond(w, r).Error(http.StatusBadRequest, "sessionId and userId are required")
		return
	}
	color := a.colors.AssignUserColor(req.SessionID, req.UserID, req.Email, req.DisplayName)
	Respond(w, r).JSON(map[string]string{
		"color":     color,
		"colorName": colors.ColorName(color),
		"lighter":   colors.LighterColor(color),
		"darker":    colors.DarkerColor(color),
	})
}

func (a *App) getSessionColors(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(a.colors.SessionColors(mux.Vars(r)["sessionId"]))
}

func (a *App) clearSessionColors(w http.ResponseWriter, r *http.Request) {
	a.colors.ClearSession(mux.Vars(r)["sessionId"])
	Respond(w, r).JSON(map[string]bool{"cleared": true})
}

func (a *App) removeUserColor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	a.colors.RemoveUserFromSession(vars["sessionId"], vars["userId"])
	Respond(w, r).JSON(map[string]bool{"removed": true})
}

func (a *App) getPalette(w http.ResponseWriter, r *http.Request) {
	palette := make([]map[string]string, 0, len(colors.UserColors))
	for _, c := range colors.UserColors {
		palette = append(palette, map[string]string{
			"color":   c,
			"name":    colors.ColorName(c),
			"lighter": colors.LighterColor(c),
			"darker":  colors.DarkerColor(c),
		})
	}
	Respond(w, r).JSON(map[string]interface{}{
		"palette":          palette,
		"defaultTextColor": colors.DefaultTextColor,
	})
}

// ==================== client settings ====================

func (a *App) getSettings(w http.ResponseWriter, r *http.Request) {
	settings := map[string]interface{}{}
	a.db.GetJSON(localdb.KeySettings, &settings)
	Respond(w, r).JSON(settings)
}

func (a *App) updateSettings(w http.ResponseWriter, r *http.Request) {
	var settings map[string]interface{}
	if !decodeBody(w, r, &settings) {
		return
	}
	if err := a.db.SetJSON(localdb.KeySettings, settings); err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}
	Respond(w, r).JSON(settings)
}

func (a *App) getDarkMode(w http.ResponseWriter, r *http.Request) {
	darkMode := false
	a.db.GetJSON(localdb.KeyDarkMode, &darkMode)
	Respond(w, r).JSON(map[string]bool{"darkMode": darkMode})
}

func (a *App) setDarkMode(w http.ResponseWriter, r *http.Request) {
	var req DarkModeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.db.SetJSON(localdb.KeyDarkMode, req.DarkMode); err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}
	Respond(w, r).JSON(map[string]bool{"darkMode": req.DarkMode})
}

// ==================== library backups ====================

func (a *App) backupLibrary(w http.ResponseWriter, r *http.Request) {
	path, err := a.db.Backup()
	if err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}
	Respond(w, r).Status(http.StatusCreated, map[string]string{"backupPath": path})
}

func (a *App) listLibraryBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := a.db.ListBackups()
	if err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}
	Respond(w, r).JSON(map[string]interface{}{"backups": backups})
}

func (a *App) restoreLibrary(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FileName == "" {
		Respond(w, r).Error(http.StatusBadRequest, "fileName is required")
		return
	}
	if err := a.db.RestoreFromBackup(req.FileName); err != nil {
		Respond(w, r).Error(statusForError(err), err.Error())
		return
	}
	a.songs.Reload()
	Respond(w, r).JSON(map[string]bool{"restored": true})
}
