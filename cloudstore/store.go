package cloudstore

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/config"
	"lyriclab-api-go/logcolors"
)

// Remote-store error codes. The retry helper treats unavailable and
// permission-denied as transient.
const (
	CodeUnavailable      = "unavailable"
	CodePermissionDenied = "permission-denied"
	CodeNotFound         = "not-found"
	CodeInvalidArgument  = "invalid-argument"
	CodeInternal         = "internal"
)

// Error is a remote-store failure with a structured code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the structured error code.
func (e *Error) ErrorCode() string {
	return e.Code
}

// IsNotFound reports whether err is a not-found remote-store error.
func IsNotFound(err error) bool {
	se, ok := err.(*Error)
	return ok && se.Code == CodeNotFound
}

// Document is a single record in the remote store.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter is a single field comparison in a collection query.
type Filter struct {
	Field string
	Op    string // "==" or "!="
	Value any
}

// Query narrows and orders a collection read. Not every backend supports
// every feature; callers must check SupportsOrdering and be prepared for
// invalid-argument on inequality filters.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
}

// DocumentStore is the uniform surface over the hosted document database.
// Two implementations exist: a REST client for the hosted backend and an
// embedded in-process store. The variant is selected once at startup so call
// sites stay backend-agnostic.
type DocumentStore interface {
	// Name identifies the backend ("rest" or "embedded").
	Name() string

	// SupportsOrdering reports whether GetCollection honors Query.OrderBy.
	SupportsOrdering() bool

	// GetDocument reads a single document by path
	// (e.g. "users/{uid}/songs/{id}"). Missing documents return a
	// not-found Error.
	GetDocument(ctx context.Context, path string) (*Document, error)

	// SetDocument writes a document at a known path. With merge, fields
	// absent from data are preserved.
	SetDocument(ctx context.Context, path string, data map[string]any, merge bool) error

	// AddDocument creates a document in a collection and returns the
	// generated id.
	AddDocument(ctx context.Context, collection string, data map[string]any) (string, error)

	// GetCollection reads documents from a collection, optionally
	// narrowed by a query.
	GetCollection(ctx context.Context, collection string, q *Query) ([]Document, error)

	// Ping probes backend connectivity.
	Ping(ctx context.Context) error
}

// Provider lazily initializes the configured document store and auth client.
// Initialization happens once, shared across concurrent first callers; a
// failed initialization is remembered and reported by Store.
type Provider struct {
	cfg config.Config

	once    sync.Once
	store   DocumentStore
	auth    *AuthClient
	initErr error
}

// NewProvider creates an uninitialized provider. Nothing is dialed until the
// first Store, Auth or CurrentUser call.
func NewProvider(cfg config.Config) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) initialize() {
	p.once.Do(func() {
		switch p.cfg.Configuration.CloudBackend {
		case "rest":
			if p.cfg.Configuration.CloudBaseURL == "" {
				p.initErr = fmt.Errorf("rest backend selected but CLOUD_BASE_URL is not set")
				log.Errorf("%s %v", logcolors.LogCloud, p.initErr)
				return
			}
			p.store = newRESTStore(p.cfg)
			log.Infof("%s Using rest document store at %s", logcolors.LogCloud, p.cfg.Configuration.CloudBaseURL)
		case "embedded", "":
			p.store = newMemStore()
			log.Infof("%s Using embedded document store", logcolors.LogCloud)
		default:
			p.initErr = fmt.Errorf("unknown cloud backend %q", p.cfg.Configuration.CloudBackend)
			log.Errorf("%s %v", logcolors.LogCloud, p.initErr)
			return
		}

		p.auth = newAuthClient(p.cfg)
	})
}

// Store returns the document store, failing explicitly if backend
// initialization failed.
func (p *Provider) Store() (DocumentStore, error) {
	p.initialize()
	if p.initErr != nil {
		return nil, p.initErr
	}
	return p.store, nil
}

// Auth returns the auth client, failing if backend initialization failed.
func (p *Provider) Auth() (*AuthClient, error) {
	p.initialize()
	if p.initErr != nil {
		return nil, p.initErr
	}
	return p.auth, nil
}

// CurrentUser returns the signed-in user, or nil when nobody is signed in or
// the lookup fails. It never returns an error.
func (p *Provider) CurrentUser(ctx context.Context) *AuthUser {
	auth, err := p.Auth()
	if err != nil {
		log.Warnf("%s Failed to get current user: %v", logcolors.LogAuth, err)
		return nil
	}
	return auth.CurrentUser()
}
