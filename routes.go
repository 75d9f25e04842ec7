package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func (a *App) setupRoutes(router *mux.Router) {
	// Song library
	router.HandleFunc("/songs", a.listSongs).Methods(http.MethodGet)
	router.HandleFunc("/songs", a.createSong).Methods(http.MethodPost)
	router.HandleFunc("/songs/select", a.selectSong).Methods(http.MethodPost)
	router.HandleFunc("/songs/current", a.getCurrentSong).Methods(http.MethodGet)

	// Sections and lines of the current song
	router.HandleFunc("/songs/current/sections", a.addSection).Methods(http.MethodPost)
	router.HandleFunc("/songs/current/sections/move", a.moveSection).Methods(http.MethodPost)
	router.HandleFunc("/songs/current/sections/{sectionId}", a.deleteSection).Methods(http.MethodDelete)
	router.HandleFunc("/songs/current/sections/{sectionId}/author", a.setSectionAuthor).Methods(http.MethodPut)
	router.HandleFunc("/songs/current/sections/{sectionId}/recording", a.saveRecording).Methods(http.MethodPut)
	router.HandleFunc("/songs/current/sections/{sectionId}/recording", a.deleteRecording).Methods(http.MethodDelete)
	router.HandleFunc("/songs/current/sections/{sectionId}/lines", a.addLine).Methods(http.MethodPost)
	router.HandleFunc("/songs/current/sections/{sectionId}/lines/{lineId}", a.setLineText).Methods(http.MethodPut)
	router.HandleFunc("/songs/current/sections/{sectionId}/lines/{lineId}", a.deleteLine).Methods(http.MethodDelete)
	router.HandleFunc("/songs/current/sections/{sectionId}/lines/{lineId}/author", a.setLineAuthor).Methods(http.MethodPut)
	router.HandleFunc("/songs/current/lines/move", a.moveLine).Methods(http.MethodPost)

	// Songs by id (after the more specific /songs/... routes)
	router.HandleFunc("/songs/{id}", a.getSong).Methods(http.MethodGet)
	router.HandleFunc("/songs/{id}", a.updateSong).Methods(http.MethodPut)
	router.HandleFunc("/songs/{id}", a.deleteSong).Methods(http.MethodDelete)

	// Cloud sync
	router.HandleFunc("/sync/enable", a.enableCloudSync).Methods(http.MethodPost)
	router.HandleFunc("/sync/disable", a.disableCloudSync).Methods(http.MethodPost)
	router.HandleFunc("/sync/push", a.pushToCloud).Methods(http.MethodPost)
	router.HandleFunc("/sync/pull", a.pullFromCloud).Methods(http.MethodPost)
	router.HandleFunc("/sync/status", a.getSyncStatus).Methods(http.MethodGet)
	router.HandleFunc("/sync/availability", a.getSyncAvailability).Methods(http.MethodGet)

	// Auth
	router.HandleFunc("/auth/register", a.register).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", a.login).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", a.logout).Methods(http.MethodPost)
	router.HandleFunc("/auth/me", a.getCurrentUser).Methods(http.MethodGet)
	router.HandleFunc("/auth/verification/send", a.sendEmailVerification).Methods(http.MethodPost)
	router.HandleFunc("/auth/verification/refresh", a.refreshVerification).Methods(http.MethodPost)

	// Collaboration
	router.HandleFunc("/collab/share", a.shareSong).Methods(http.MethodPost)
	router.HandleFunc("/collab/invites", a.listInvites).Methods(http.MethodGet)
	router.HandleFunc("/collab/invites/{id}/accept", a.acceptInvite).Methods(http.MethodPost)
	router.HandleFunc("/collab/invites/{id}/decline", a.declineInvite).Methods(http.MethodPost)
	router.HandleFunc("/collab/links", a.createPublicLink).Methods(http.MethodPost)
	router.HandleFunc("/collab/availability", a.getCollabAvailability).Methods(http.MethodGet)

	// Collaborator colors
	router.HandleFunc("/colors/assign", a.assignColor).Methods(http.MethodPost)
	router.HandleFunc("/colors/palette", a.getPalette).Methods(http.MethodGet)
	router.HandleFunc("/colors/sessions/{sessionId}", a.getSessionColors).Methods(http.MethodGet)
	router.HandleFunc("/colors/sessions/{sessionId}", a.clearSessionColors).Methods(http.MethodDelete)
	router.HandleFunc("/colors/sessions/{sessionId}/users/{userId}", a.removeUserColor).Methods(http.MethodDelete)

	// Client settings
	router.HandleFunc("/settings", a.getSettings).Methods(http.MethodGet)
	router.HandleFunc("/settings", a.updateSettings).Methods(http.MethodPut)
	router.HandleFunc("/settings/darkmode", a.getDarkMode).Methods(http.MethodGet)
	router.HandleFunc("/settings/darkmode", a.setDarkMode).Methods(http.MethodPut)

	// Library backups
	router.HandleFunc("/library/backup", a.backupLibrary).Methods(http.MethodPost)
	router.HandleFunc("/library/backups", a.listLibraryBackups).Methods(http.MethodGet)
	router.HandleFunc("/library/restore", a.restoreLibrary).Methods(http.MethodPost)

	// Health and stats endpoints
	router.HandleFunc("/health", a.getHealthStatus).Methods(http.MethodGet)
	router.HandleFunc("/stats", a.getStats).Methods(http.MethodGet)

	// Help endpoint
	router.HandleFunc("/", a.helpHandler)
}
