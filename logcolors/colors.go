package logcolors

import (
	"strings"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
	Yellow = "\033[33m"
)

// Category log prefixes, one per app area
const (
	LogGeneral = Blue + "[General]" + Reset
	LogSync    = Cyan + "[Sync]" + Reset
	LogStorage = Yellow + "[Storage]" + Reset
	LogCollab  = Green + "[Collab]" + Reset
	LogAudio   = Red + "[Audio]" + Reset
	LogAuth    = Purple + "[Auth]" + Reset
	LogColors  = Green + "[Colors]" + Reset
	LogRetry   = Purple + "[Retry]" + Reset
	LogCloud   = Cyan + "[Cloud]" + Reset
)

// Server/init log prefixes
const (
	LogServer    = Green + "[Server]" + Reset
	LogConfig    = Cyan + "[Config]" + Reset
	LogStats     = Blue + "[Stats]" + Reset
	LogRateLimit = Purple + "[RateLimit]" + Reset
)

// quiet suppresses routine sync/storage chatter unless verbose logging is
// enabled. Default on.
var quiet atomic.Bool

func init() {
	quiet.Store(true)
}

// SetVerbose enables (true) or disables (false) routine sync/storage
// messages.
func SetVerbose(verbose bool) {
	quiet.Store(!verbose)
}

// routineSubstrings marks messages that show up on every mutation when cloud
// sync is enabled. They carry no signal in normal operation.
var routineSubstrings = []string{
	"synced",
	"saved",
	"loaded",
	"updated existing song",
	"background sync",
	"auto-syncing",
	"successfully",
	"cloud sync enabled",
}

func suppressed(msg string) bool {
	if !quiet.Load() {
		return false
	}
	msg = strings.ToLower(msg)
	for _, sub := range routineSubstrings {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

// SyncInfof logs an info message under the Sync category, applying quiet-mode
// suppression.
func SyncInfof(format string, args ...interface{}) {
	if suppressed(format) {
		return
	}
	log.Infof("%s "+format, append([]interface{}{LogSync}, args...)...)
}

// StorageInfof logs an info message under the Storage category, applying
// quiet-mode suppression.
func StorageInfof(format string, args ...interface{}) {
	if suppressed(format) {
		return
	}
	log.Infof("%s "+format, append([]interface{}{LogStorage}, args...)...)
}
