package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/cloudstore"
	"lyriclab-api-go/cloudsync"
	"lyriclab-api-go/config"
	"lyriclab-api-go/logcolors"
	"lyriclab-api-go/retry"
	"lyriclab-api-go/song"
)

const (
	invitesCollection = "collaborationInvites"
	sharesCollection  = "publicShares"
)

// Service manages collaboration invites and public share links.
type Service struct {
	provider     *cloudstore.Provider
	retrier      *retry.Retrier
	shareBaseURL string
}

// New creates a collaboration service backed by the given provider.
func New(cfg config.Config, provider *cloudstore.Provider) *Service {
	return &Service{
		provider:     provider,
		shareBaseURL: strings.TrimSuffix(cfg.Configuration.ShareBaseURL, "/"),
		retrier: retry.New(retry.Config{
			Name:        "collab",
			MaxAttempts: cfg.Configuration.RetryMaxAttempts,
			BaseDelay:   time.Duration(cfg.Configuration.RetryBaseDelayMs) * time.Millisecond,
		}),
	}
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func docToInvite(doc cloudstore.Document) (song.CollaborationInvite, error) {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return song.CollaborationInvite{}, fmt.Errorf("failed to decode invite %s: %v", doc.ID, err)
	}
	var inv song.CollaborationInvite
	if err := json.Unmarshal(raw, &inv); err != nil {
		return song.CollaborationInvite{}, fmt.Errorf("failed to decode invite %s: %v", doc.ID, err)
	}
	inv.ID = doc.ID
	return inv, nil
}

func inviteData(inv song.CollaborationInvite) (map[string]any, error) {
	raw, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invite: %v", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to encode invite: %v", err)
	}
	delete(data, "id")
	return data, nil
}

// ShareWithUser invites another user to collaborate on a song. The invite is
// pending until the recipient accepts or declines, and expires after seven
// days. Requires a signed-in, email-verified user.
func (s *Service) ShareWithUser(ctx context.Context, songID, songTitle, toEmail, role string) (song.CollaborationInvite, error) {
	user := s.provider.CurrentUser(ctx)
	if user == nil {
		return song.CollaborationInvite{}, cloudsync.ErrNotSignedIn
	}
	if !user.EmailVerified {
		return song.CollaborationInvite{}, cloudsync.ErrEmailNotVerified
	}
	store, err := s.provider.Store()
	if err != nil {
		return song.CollaborationInvite{}, err
	}

	if role == "" {
		role = "editor"
	}
	now := time.Now().UTC()
	inv := song.CollaborationInvite{
		SongID:        songID,
		SongTitle:     songTitle,
		FromUserID:    user.UID,
		FromUserEmail: user.Email,
		ToUserEmail:   strings.ToLower(strings.TrimSpace(toEmail)),
		Role:          role,
		Status:        song.InvitePending,
		CreatedAt:     now.Format(time.RFC3339),
		ExpiresAt:     now.Add(song.InviteTTL).Format(time.RFC3339),
	}
	data, err := inviteData(inv)
	if err != nil {
		return song.CollaborationInvite{}, err
	}

	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		inv.ID, opErr = store.AddDocument(ctx, invitesCollection, data)
		return opErr
	})
	if err != nil {
		return song.CollaborationInvite{}, fmt.Errorf("failed to create invite: %v", err)
	}

	log.Infof("%s Shared song %q with %s as %s", logcolors.LogCollab, songTitle, inv.ToUserEmail, role)
	return inv, nil
}

// UserInvites returns the pending invites addressed to the signed-in user,
// newest first. Lookup failures yield an empty list, not an error, so the
// invite inbox never blocks the app.
func (s *Service) UserInvites(ctx context.Context) []song.CollaborationInvite {
	user := s.provider.CurrentUser(ctx)
	if user == nil {
		return []song.CollaborationInvite{}
	}
	store, err := s.provider.Store()
	if err != nil {
		return []song.CollaborationInvite{}
	}

	q := &cloudstore.Query{
		Filters: []cloudstore.Filter{
			{Field: "toUserEmail", Op: "==", Value: strings.ToLower(user.Email)},
			{Field: "status", Op: "==", Value: song.InvitePending},
		},
	}
	var docs []cloudstore.Document
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		docs, opErr = store.GetCollection(ctx, invitesCollection, q)
		return opErr
	})
	if err != nil {
		log.Warnf("%s Failed to load invites for %s: %v", logcolors.LogCollab, user.Email, err)
		return []song.CollaborationInvite{}
	}

	invites := make([]song.CollaborationInvite, 0, len(docs))
	for _, doc := range docs {
		inv, err := docToInvite(doc)
		if err != nil {
			log.Warnf("%s Skipping malformed invite: %v", logcolors.LogCollab, err)
			continue
		}
		invites = append(invites, inv)
	}
	sort.SliceStable(invites, func(i, j int) bool {
		return invites[i].CreatedAt > invites[j].CreatedAt
	})
	return invites
}

// loadPendingInvite fetches an invite and verifies it is still actionable:
// pending and not expired.
func (s *Service) loadPendingInvite(ctx context.Context, store cloudstore.DocumentStore, inviteID string) (song.CollaborationInvite, error) {
	var doc *cloudstore.Document
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		doc, opErr = store.GetDocument(ctx, invitesCollection+"/"+inviteID)
		return opErr
	})
	if err != nil {
		return song.CollaborationInvite{}, fmt.Errorf("failed to load invite: %v", err)
	}
	inv, err := docToInvite(*doc)
	if err != nil {
		return song.CollaborationInvite{}, err
	}

	if inv.Status != song.InvitePending {
		return song.CollaborationInvite{}, fmt.Errorf("invite %s is already %s", inviteID, inv.Status)
	}
	if expires, err := time.Parse(time.RFC3339, inv.ExpiresAt); err == nil && time.Now().After(expires) {
		return song.CollaborationInvite{}, fmt.Errorf("invite %s has expired", inviteID)
	}
	return inv, nil
}

// AcceptInvite marks a pending invite accepted. Invites that were already
// resolved or have expired are rejected.
func (s *Service) AcceptInvite(ctx context.Context, inviteID string) (song.CollaborationInvite, error) {
	return s.resolveInvite(ctx, inviteID, song.InviteAccepted)
}

// DeclineInvite marks a pending invite declined. Invites that were already
// resolved or have expired are rejected.
func (s *Service) DeclineInvite(ctx context.Context, inviteID string) (song.CollaborationInvite, error) {
	return s.resolveInvite(ctx, inviteID, song.InviteDeclined)
}

func (s *Service) resolveInvite(ctx context.Context, inviteID, status string) (song.CollaborationInvite, error) {
	user := s.provider.CurrentUser(ctx)
	if user == nil {
		return song.CollaborationInvite{}, cloudsync.ErrNotSignedIn
	}
	store, err := s.provider.Store()
	if err != nil {
		return song.CollaborationInvite{}, err
	}

	inv, err := s.loadPendingInvite(ctx, store, inviteID)
	if err != nil {
		return song.CollaborationInvite{}, err
	}

	now := nowISO()
	update := map[string]any{"status": status}
	inv.Status = status
	if status == song.InviteAccepted {
		update["acceptedAt"] = now
		inv.AcceptedAt = now
	} else {
		update["declinedAt"] = now
		inv.DeclinedAt = now
	}

	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		return store.SetDocument(ctx, invitesCollection+"/"+inviteID, update, true)
	})
	if err != nil {
		return song.CollaborationInvite{}, fmt.Errorf("failed to update invite: %v", err)
	}

	log.Infof("%s Invite %s for song %q %s by %s", logcolors.LogCollab, inviteID, inv.SongTitle, status, user.Email)
	return inv, nil
}

// PublicShare is an active read-only share link for a song.
type PublicShare struct {
	ShareID   string `json:"shareId"`
	SongID    string `json:"songId"`
	URL       string `json:"url"`
	CreatedBy string `json:"createdBy"`
	CreatedAt string `json:"createdAt"`
	IsActive  bool   `json:"isActive"`
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.Intn(len(base36))]
	}
	return string(b)
}

// newShareID builds a share id from the current millisecond timestamp and a
// random base36 suffix, e.g. "1714050000000-k3j9x2m1q".
func newShareID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), randBase36(9))
}

// GeneratePublicLink creates an active public share record for a song and
// returns the share with its full URL. Requires a signed-in user.
func (s *Service) GeneratePublicLink(ctx context.Context, songID string) (PublicShare, error) {
	user := s.provider.CurrentUser(ctx)
	if user == nil {
		return PublicShare{}, cloudsync.ErrNotSignedIn
	}
	store, err := s.provider.Store()
	if err != nil {
		return PublicShare{}, err
	}

	share := PublicShare{
		ShareID:   newShareID(),
		SongID:    songID,
		CreatedBy: user.UID,
		CreatedAt: nowISO(),
		IsActive:  true,
	}
	share.URL = s.shareBaseURL + "/share/" + share.ShareID

	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		return store.SetDocument(ctx, sharesCollection+"/"+share.ShareID, map[string]any{
			"songId":    share.SongID,
			"createdBy": share.CreatedBy,
			"createdAt": share.CreatedAt,
			"isActive":  share.IsActive,
		}, false)
	})
	if err != nil {
		return PublicShare{}, fmt.Errorf("failed to create public share: %v", err)
	}

	log.Infof("%s Created public link %s for song %s", logcolors.LogCollab, share.URL, songID)
	return share, nil
}

// IsCollaborationAvailable reports whether invites can currently be created:
// a signed-in verified user plus a reachable remote store.
func (s *Service) IsCollaborationAvailable(ctx context.Context) bool {
	user := s.provider.CurrentUser(ctx)
	if user == nil || !user.EmailVerified {
		return false
	}
	store, err := s.provider.Store()
	if err != nil {
		return false
	}
	if err := store.Ping(ctx); err != nil {
		log.Warnf("%s Collaboration availability check failed: %v", logcolors.LogCollab, err)
		return false
	}
	return true
}
