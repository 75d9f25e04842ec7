package userstore

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/cloudstore"
	"lyriclab-api-go/localdb"
	"lyriclab-api-go/logcolors"
)

// SyncController is the slice of the song store the user store drives:
// cloud sync follows the login state.
type SyncController interface {
	EnableCloudSync(ctx context.Context) error
	DisableCloudSync()
}

// Store tracks the signed-in user. A snapshot of the user is persisted
// locally so the app knows who was signed in across restarts, but the auth
// backend stays the source of truth.
type Store struct {
	provider *cloudstore.Provider
	db       *localdb.Store
	sync     SyncController

	mu      sync.RWMutex
	current *cloudstore.AuthUser
}

// New creates a user store. The persisted user snapshot, if any, is loaded
// but not trusted until the auth backend confirms it.
func New(provider *cloudstore.Provider, db *localdb.Store, sync SyncController) *Store {
	s := &Store{provider: provider, db: db, sync: sync}

	var stored cloudstore.AuthUser
	if db.GetJSON(localdb.KeyUser, &stored) && stored.UID != "" {
		log.Infof("%s Found stored user %s, awaiting auth confirmation", logcolors.LogAuth, stored.Email)
	}
	return s
}

// CurrentUser returns the signed-in user, or nil.
func (s *Store) CurrentUser() *cloudstore.AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// setUser updates the current user and its persisted snapshot, and flips
// cloud sync to follow the login state.
func (s *Store) setUser(ctx context.Context, user *cloudstore.AuthUser) {
	s.mu.Lock()
	previous := s.current
	s.current = user
	s.mu.Unlock()

	if user != nil {
		if err := s.db.SetJSON(localdb.KeyUser, user); err != nil {
			log.Warnf("%s Failed to persist user snapshot: %v", logcolors.LogAuth, err)
		}
		if previous == nil || previous.UID != user.UID {
			logcolors.SyncInfof("User logged in, enabling cloud sync")
			if err := s.sync.EnableCloudSync(ctx); err != nil {
				log.Warnf("%s Failed to enable cloud sync after login: %v", logcolors.LogSync, err)
			}
		}
		return
	}

	if err := s.db.Delete(localdb.KeyUser); err != nil {
		log.Warnf("%s Failed to clear user snapshot: %v", logcolors.LogAuth, err)
	}
	if previous != nil {
		logcolors.SyncInfof("User logged out, disabling cloud sync")
		s.sync.DisableCloudSync()
	}
}

// Login signs a user in and enables cloud sync.
func (s *Store) Login(ctx context.Context, email, password string) (*cloudstore.AuthUser, error) {
	auth, err := s.provider.Auth()
	if err != nil {
		return nil, err
	}
	user, err := auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setUser(ctx, user)
	log.Infof("%s User %s logged in", logcolors.LogAuth, user.Email)
	return user, nil
}

// Register creates an account, signs the user in and enables cloud sync.
func (s *Store) Register(ctx context.Context, email, password string) (*cloudstore.AuthUser, error) {
	auth, err := s.provider.Auth()
	if err != nil {
		return nil, err
	}
	user, err := auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setUser(ctx, user)
	log.Infof("%s User %s registered", logcolors.LogAuth, user.Email)
	return user, nil
}

// Logout signs the user out and disables cloud sync.
func (s *Store) Logout(ctx context.Context) error {
	auth, err := s.provider.Auth()
	if err != nil {
		return err
	}
	if err := auth.SignOut(ctx); err != nil {
		return err
	}
	s.setUser(ctx, nil)
	log.Infof("%s User logged out", logcolors.LogAuth)
	return nil
}

// SendEmailVerification asks the auth backend to mail a verification link to
// the signed-in user.
func (s *Store) SendEmailVerification(ctx context.Context) error {
	auth, err := s.provider.Auth()
	if err != nil {
		return err
	}
	return auth.SendEmailVerification(ctx)
}

// RefreshVerificationStatus reloads the user from the auth backend and
// reports the fresh verification status. Failures read as not-verified.
func (s *Store) RefreshVerificationStatus(ctx context.Context) bool {
	auth, err := s.provider.Auth()
	if err != nil {
		log.Warnf("%s Failed to refresh verification status: %v", logcolors.LogAuth, err)
		return false
	}

	verified := auth.ReloadUser(ctx)
	if verified {
		s.mu.Lock()
		if s.current != nil && !s.current.EmailVerified {
			log.Infof("%s Email verification confirmed for %s", logcolors.LogAuth, s.current.Email)
			s.current.EmailVerified = true
			if err := s.db.SetJSON(localdb.KeyUser, s.current); err != nil {
				log.Warnf("%s Failed to persist user snapshot: %v", logcolors.LogAuth, err)
			}
		}
		s.mu.Unlock()
	}
	return verified
}

// ReconcileAuthState resolves disagreements between the locally tracked user
// and the auth backend. The backend wins: a stale local user is cleared, a
// backend user missing locally is adopted.
func (s *Store) ReconcileAuthState(ctx context.Context) bool {
	backendUser := s.provider.CurrentUser(ctx)
	current := s.CurrentUser()

	switch {
	case backendUser == nil && current != nil:
		log.Warnf("%s Auth state mismatch: local user %s not known to backend, clearing", logcolors.LogAuth, current.Email)
		s.setUser(ctx, nil)
		return false
	case backendUser != nil && current == nil:
		log.Infof("%s Adopting backend user %s into local state", logcolors.LogAuth, backendUser.Email)
		s.setUser(ctx, backendUser)
		return true
	}
	return backendUser != nil
}
