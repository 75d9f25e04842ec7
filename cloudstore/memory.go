package cloudstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// memStore is the embedded document store. It keeps everything in process
// memory and mirrors the hosted backend's semantics closely enough to run
// the full sync flow without a network, which also makes it the store used
// by tests. Like the native mobile client it cannot evaluate inequality
// filters or server-side ordering.
type memStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	offline     bool
}

func newMemStore() *memStore {
	return &memStore{
		collections: make(map[string]map[string]map[string]any),
	}
}

func (s *memStore) Name() string { return "embedded" }

func (s *memStore) SupportsOrdering() bool { return false }

// SetOffline toggles simulated connectivity loss. While offline every
// operation fails with an unavailable error.
func (s *memStore) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

func (s *memStore) checkOnline() error {
	if s.offline {
		return &Error{Code: CodeUnavailable, Message: "client is offline"}
	}
	return nil
}

// splitPath splits "users/u1/songs/s1" into the collection "users/u1/songs"
// and the document id "s1".
func splitPath(path string) (string, string, error) {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return "", "", &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf("invalid document path %q", path)}
	}
	return path[:idx], path[idx+1:], nil
}

func newDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func (s *memStore) GetDocument(_ context.Context, path string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	collection, id, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	docs, ok := s.collections[collection]
	if !ok {
		return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("document %s not found", path)}
	}
	data, ok := docs[id]
	if !ok {
		return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("document %s not found", path)}
	}
	return &Document{ID: id, Data: cloneData(data)}, nil
}

func (s *memStore) SetDocument(_ context.Context, path string, data map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return err
	}

	collection, id, err := splitPath(path)
	if err != nil {
		return err
	}
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}

	if merge {
		if existing, ok := docs[id]; ok {
			merged := cloneData(existing)
			for k, v := range data {
				merged[k] = v
			}
			docs[id] = merged
			return nil
		}
	}
	docs[id] = cloneData(data)
	return nil
}

func (s *memStore) AddDocument(_ context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return "", err
	}

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}
	id := newDocumentID()
	docs[id] = cloneData(data)
	return id, nil
}

func (s *memStore) GetCollection(_ context.Context, collection string, q *Query) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	if q != nil {
		for _, f := range q.Filters {
			if f.Op != "==" {
				return nil, &Error{
					Code:    CodeInvalidArgument,
					Message: fmt.Sprintf("filter op %q is not supported by the embedded store", f.Op),
				}
			}
		}
	}

	var out []Document
	for id, data := range s.collections[collection] {
		if q != nil && !matchesFilters(data, q.Filters) {
			continue
		}
		out = append(out, Document{ID: id, Data: cloneData(data)})
	}
	return out, nil
}

func matchesFilters(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if data[f.Field] != f.Value {
			return false
		}
	}
	return true
}

func (s *memStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkOnline()
}
