package stats

import (
	"strings"
	"sync/atomic"
	"time"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests  atomic.Int64
	SongRequests   atomic.Int64
	SyncRequests   atomic.Int64
	CollabRequests atomic.Int64
	AuthRequests   atomic.Int64
	OtherRequests  atomic.Int64

	// Cloud sync activity
	CloudSaves    atomic.Int64
	CloudDeletes  atomic.Int64
	SyncSuccesses atomic.Int64
	SyncFailures  atomic.Int64
	RetryAttempts atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64
}

// Global stats instance
var global = &Stats{
	StartTime: time.Now(),
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest records a request by endpoint group
func (s *Stats) RecordRequest(path string) {
	s.TotalRequests.Add(1)
	switch {
	case strings.HasPrefix(path, "/songs"):
		s.SongRequests.Add(1)
	case strings.HasPrefix(path, "/sync"):
		s.SyncRequests.Add(1)
	case strings.HasPrefix(path, "/collab") || strings.HasPrefix(path, "/share"):
		s.CollabRequests.Add(1)
	case strings.HasPrefix(path, "/auth"):
		s.AuthRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordCloudSave records a song written to the remote store
func (s *Stats) RecordCloudSave() {
	s.CloudSaves.Add(1)
}

// RecordCloudDelete records a soft delete in the remote store
func (s *Stats) RecordCloudDelete() {
	s.CloudDeletes.Add(1)
}

// RecordSyncResult records the outcome of a sync batch
func (s *Stats) RecordSyncResult(success bool) {
	if success {
		s.SyncSuccesses.Add(1)
	} else {
		s.SyncFailures.Add(1)
	}
}

// RecordRetry records one retried remote-store attempt
func (s *Stats) RecordRetry() {
	s.RetryAttempts.Add(1)
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// Snapshot is the JSON shape served by /stats
type Snapshot struct {
	UptimeSeconds int64 `json:"uptime_seconds"`

	Requests struct {
		Total  int64 `json:"total"`
		Songs  int64 `json:"songs"`
		Sync   int64 `json:"sync"`
		Collab int64 `json:"collab"`
		Auth   int64 `json:"auth"`
		Other  int64 `json:"other"`
	} `json:"requests"`

	Cloud struct {
		Saves         int64 `json:"saves"`
		Deletes       int64 `json:"deletes"`
		SyncSuccesses int64 `json:"sync_successes"`
		SyncFailures  int64 `json:"sync_failures"`
		RetryAttempts int64 `json:"retry_attempts"`
	} `json:"cloud"`

	StatusCodes struct {
		Code2xx int64 `json:"2xx"`
		Code4xx int64 `json:"4xx"`
		Code5xx int64 `json:"5xx"`
	} `json:"status_codes"`
}

// GetSnapshot returns a point-in-time copy of all counters
func (s *Stats) GetSnapshot() Snapshot {
	var snap Snapshot
	snap.UptimeSeconds = int64(time.Since(s.StartTime).Seconds())
	snap.Requests.Total = s.TotalRequests.Load()
	snap.Requests.Songs = s.SongRequests.Load()
	snap.Requests.Sync = s.SyncRequests.Load()
	snap.Requests.Collab = s.CollabRequests.Load()
	snap.Requests.Auth = s.AuthRequests.Load()
	snap.Requests.Other = s.OtherRequests.Load()
	snap.Cloud.Saves = s.CloudSaves.Load()
	snap.Cloud.Deletes = s.CloudDeletes.Load()
	snap.Cloud.SyncSuccesses = s.SyncSuccesses.Load()
	snap.Cloud.SyncFailures = s.SyncFailures.Load()
	snap.Cloud.RetryAttempts = s.RetryAttempts.Load()
	snap.StatusCodes.Code2xx = s.Status2xx.Load()
	snap.StatusCodes.Code4xx = s.Status4xx.Load()
	snap.StatusCodes.Code5xx = s.Status5xx.Load()
	return snap
}
