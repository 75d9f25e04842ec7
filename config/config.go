package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                string `envconfig:"PORT" default:"8080"`
		RateLimitPerSecond  int    `envconfig:"RATE_LIMIT_PER_SECOND" default:"5"`
		RateLimitBurstLimit int    `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"10"`

		// Local library storage
		LibraryDBPath     string `envconfig:"LIBRARY_DB_PATH" default:"./data/library.db"`
		LibraryBackupPath string `envconfig:"LIBRARY_BACKUP_PATH" default:"./data/backups"`

		// Cloud backend selection: "rest" talks to a hosted document
		// database, "embedded" keeps everything in-process.
		CloudBackend string `envconfig:"CLOUD_BACKEND" default:"embedded"`

		// Hosted document database (rest backend)
		CloudBaseURL    string `envconfig:"CLOUD_BASE_URL" default:""`
		CloudProjectKey string `envconfig:"CLOUD_PROJECT_KEY" default:""`

		// Hosted identity provider
		AuthBaseURL string `envconfig:"AUTH_BASE_URL" default:""`
		AuthAPIKey  string `envconfig:"AUTH_API_KEY" default:""`

		// Public share links are built from this origin
		ShareBaseURL string `envconfig:"SHARE_BASE_URL" default:"http://localhost:8080"`

		// Retry behavior for remote-store operations
		RetryMaxAttempts int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
		RetryBaseDelayMs int `envconfig:"RETRY_BASE_DELAY_MS" default:"1000"`
	}

	FeatureFlags struct {
		StorageCompression bool `envconfig:"FF_STORAGE_COMPRESSION" default:"true"`
		VerboseSyncLogs    bool `envconfig:"FF_VERBOSE_SYNC_LOGS" default:"false"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
