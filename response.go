package main

import (
	"encoding/json"
	"net/http"
)

// APIResponse centralizes header setting and JSON encoding for handlers.
type APIResponse struct {
	w http.ResponseWriter
	r *http.Request
}

// Respond creates a response helper for the request.
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")
}

// JSON writes data as a 200 response.
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Status writes data with an explicit status code.
func (a *APIResponse) Status(statusCode int, data interface{}) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes an error payload with the given status code.
func (a *APIResponse) Error(statusCode int, message string) error {
	return a.Status(statusCode, ErrorResponse{Error: message})
}
