package api

import (
	"encoding/json"
	"fmt"
)

// Pagination is the optional paging block some list endpoints return.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// envelope is the uniform response wrapper every backend endpoint uses.
// Data is left raw here and decoded into an endpoint-specific shape at
// the call site, so shape variations are handled once at the boundary.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// Error is a failed API call: the HTTP status plus the server-supplied
// human-readable message, when one was present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: request failed with status %d", e.Status)
}
