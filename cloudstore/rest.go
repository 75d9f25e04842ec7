package cloudstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"lyriclab-api-go/config"
	"lyriclab-api-go/logcolors"
)

// restStore talks to the hosted document database over its JSON REST API.
type restStore struct {
	baseURL    string
	projectKey string
	client     *http.Client
}

func newRESTStore(cfg config.Config) *restStore {
	return &restStore{
		baseURL:    strings.TrimSuffix(cfg.Configuration.CloudBaseURL, "/"),
		projectKey: cfg.Configuration.CloudProjectKey,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *restStore) Name() string { return "rest" }

// The hosted backend evaluates order-by server side.
func (s *restStore) SupportsOrdering() bool { return true }

type restDocument struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

type restQueryRequest struct {
	Filters    []restFilter `json:"filters,omitempty"`
	OrderBy    string       `json:"orderBy,omitempty"`
	Descending bool         `json:"descending,omitempty"`
}

type restFilter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

type restQueryResponse struct {
	Documents []restDocument `json:"documents"`
}

type restAddResponse struct {
	ID string `json:"id"`
}

func (s *restStore) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Code: CodeInternal, Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/v1/"+path, reqBody)
	if err != nil {
		return &Error{Code: CodeInternal, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.projectKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.projectKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &Error{Code: CodeUnavailable, Message: fmt.Sprintf("transport error: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return statusError(resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Code: CodeInternal, Message: fmt.Sprintf("failed to parse response: %v", err)}
		}
	}
	return nil
}

// statusError maps HTTP status codes onto the remote-store error taxonomy.
func statusError(status int, body string) *Error {
	msg := strings.TrimSpace(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusNotFound:
		return &Error{Code: CodeNotFound, Message: msg}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Code: CodePermissionDenied, Message: msg}
	case status == http.StatusBadRequest:
		return &Error{Code: CodeInvalidArgument, Message: msg}
	case status == http.StatusTooManyRequests || status >= 500:
		return &Error{Code: CodeUnavailable, Message: msg}
	default:
		return &Error{Code: CodeInternal, Message: fmt.Sprintf("unexpected status %d: %s", status, msg)}
	}
}

func (s *restStore) GetDocument(ctx context.Context, path string) (*Document, error) {
	var doc restDocument
	if err := s.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &Document{ID: doc.ID, Data: doc.Data}, nil
}

func (s *restStore) SetDocument(ctx context.Context, path string, data map[string]any, merge bool) error {
	p := path
	if merge {
		p += "?merge=true"
	}
	return s.do(ctx, http.MethodPatch, p, map[string]any{"data": data}, nil)
}

func (s *restStore) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	var resp restAddResponse
	if err := s.do(ctx, http.MethodPost, collection, map[string]any{"data": data}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &Error{Code: CodeInternal, Message: "backend returned no document id"}
	}
	return resp.ID, nil
}

func (s *restStore) GetCollection(ctx context.Context, collection string, q *Query) ([]Document, error) {
	req := restQueryRequest{}
	if q != nil {
		for _, f := range q.Filters {
			req.Filters = append(req.Filters, restFilter{Field: f.Field, Op: f.Op, Value: f.Value})
		}
		req.OrderBy = q.OrderBy
		req.Descending = q.Descending
	}

	var resp restQueryResponse
	if err := s.do(ctx, http.MethodPost, collection+":query", req, &resp); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		docs = append(docs, Document{ID: d.ID, Data: d.Data})
	}
	return docs, nil
}

// Ping issues a benign single-document read. Not-found still proves the
// backend answered.
func (s *restStore) Ping(ctx context.Context) error {
	_, err := s.GetDocument(ctx, "test/connectivity")
	if err != nil && !IsNotFound(err) {
		log.Warnf("%s Connectivity probe failed: %v", logcolors.LogCloud, err)
		return err
	}
	return nil
}
