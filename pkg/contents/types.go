package contents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ContentItem mirrors one addressable remote content object. Items are never
// fabricated locally; every instance is a validated copy of what the server
// returned. Timestamps are passed through untouched.
type ContentItem struct {
	Name         string          `json:"name,omitempty"`
	Path         string          `json:"path,omitempty"`
	Type         string          `json:"type,omitempty"`
	Writable     *bool           `json:"writable,omitempty"`
	Created      string          `json:"created,omitempty"`
	LastModified string          `json:"last_modified,omitempty"`
	Mimetype     string          `json:"mimetype,omitempty"`
	Content      json.RawMessage `json:"content,omitempty"`
	Format       string          `json:"format,omitempty"`
}

// IsWritable reports whether the server marked the item writable. Absence of
// the field means unknown, which is treated as not writable.
func (c *ContentItem) IsWritable() bool {
	return c != nil && c.Writable != nil && *c.Writable
}

// Checkpoint records one server-assigned snapshot of a content item.
type Checkpoint struct {
	ID           string `json:"id"`
	LastModified string `json:"last_modified"`
}

// Options are per-call request parameters. Only fields explicitly set
// influence the outgoing request; zero-valued fields are omitted entirely.
type Options struct {
	Type    string
	Format  string
	Content *bool  // when set to false, payload inclusion is suppressed
	Ext     string // extension hint for NewUntitled
	Name    string // name hint for NewUntitled
}

// ErrDirectoryNotFound reports a delete that failed with HTTP 400. The
// remote protocol cannot yet distinguish delete failure causes precisely,
// so this mapping is best-effort; every other status keeps its generic form.
var ErrDirectoryNotFound = errors.New("contents: directory not found")

// StatusError reports a response whose status fell outside the accepted set
// for the operation, carrying the transport's status text.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("contents: %s: unexpected status %s", e.Op, status)
}

// Request is one protocol-level call handed to a Backend. Path is relative
// to the server root, already percent-encoded, and may carry a query string.
type Request struct {
	Method   string
	Path     string
	Body     []byte
	JSONBody bool
}

// Response is the completed outcome of a Backend call regardless of status
// code. Transport-level failures are returned as errors instead.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Backend executes protocol requests. The HTTP backend talks to a real
// server; mock backends serve from memory.
type Backend interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}
