package client

import (
	"encoding/json"
	"fmt"

	"github.com/mektebapp/go-mekteb-client/internal/errors"
)

// Pagination is the paging block domain endpoints attach to list
// responses.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// Envelope is the response wrapper used by all domain endpoints.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
	Count      *int            `json:"count,omitempty"`
	Date       string          `json:"date,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// Decode unmarshals the envelope's data payload into out.
func (e *Envelope) Decode(out any) error {
	if len(e.Data) == 0 {
		return errors.Wrapf(errors.ErrInternal, "envelope has no data payload")
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return errors.Wrapf(err, "client: decoding envelope data")
	}
	return nil
}

// APIError is a non-2xx response from the API with its server-side
// message preserved for display.
type APIError struct {
	Status  int
	Message string
	err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// Unwrap exposes sentinel errors for status codes callers branch on.
func (e *APIError) Unwrap() error {
	return e.err
}
