package main

import (
	"fmt"

	"lyriclab-api-go/cloudstore"
	"lyriclab-api-go/cloudsync"
	"lyriclab-api-go/collab"
	"lyriclab-api-go/colors"
	"lyriclab-api-go/config"
	"lyriclab-api-go/localdb"
	"lyriclab-api-go/logcolors"
	"lyriclab-api-go/songstore"
	"lyriclab-api-go/userstore"

	log "github.com/sirupsen/logrus"
)

// App holds the wired application components.
type App struct {
	cfg      config.Config
	db       *localdb.Store
	provider *cloudstore.Provider
	cloud    *cloudsync.Service
	collab   *collab.Service
	colors   *colors.Service
	songs    *songstore.Store
	users    *userstore.Store
}

// newApp wires every component from configuration: local library storage,
// the cloud provider, sync and collaboration services, and the stores on
// top of them.
func newApp(cfg config.Config) (*App, error) {
	logcolors.SetVerbose(cfg.FeatureFlags.VerboseSyncLogs)

	db, err := localdb.Open(
		cfg.Configuration.LibraryDBPath,
		cfg.Configuration.LibraryBackupPath,
		cfg.FeatureFlags.StorageCompression,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %v", err)
	}

	provider := cloudstore.NewProvider(cfg)
	cloudSvc := cloudsync.New(cfg, provider)
	songs := songstore.New(db, cloudSvc)

	app := &App{
		cfg:      cfg,
		db:       db,
		provider: provider,
		cloud:    cloudSvc,
		collab:   collab.New(cfg, provider),
		colors:   colors.New(),
		songs:    songs,
		users:    userstore.New(provider, db, songs),
	}

	log.Infof("%s Components initialized (cloud backend: %s)", logcolors.LogServer, cfg.Configuration.CloudBackend)
	return app, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		log.Warnf("%s Failed to close library: %v", logcolors.LogServer, err)
	}
}
