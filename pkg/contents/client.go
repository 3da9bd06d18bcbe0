package contents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nbhub/contents_sdk_go/internal/contentsapi"
	"github.com/nbhub/contents_sdk_go/internal/httpx"
	"github.com/nbhub/contents_sdk_go/internal/pathutil"
)

// apiNamespace is joined onto the server root once at construction; every
// operation URL is built under it.
const apiNamespace = "api/contents"

// Client provides access to a remote contents API. It holds no mutable
// state beyond the immutable API root; concurrent calls are independent and
// the caller is responsible for serializing writes that must not race.
type Client struct {
	apiRoot string
	backend Backend
}

// New constructs a Client for the server at baseURL. Retries are disabled
// unless explicitly enabled through httpx options: each call issues one
// request and surfaces exactly one outcome.
func New(baseURL string, opts ...httpx.Option) (*Client, error) {
	cl, err := httpx.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client) *Client {
	return NewWithBackend(&httpBackend{client: httpClient})
}

// NewWithBackend allows callers to supply a custom backend (e.g., mocks).
func NewWithBackend(b Backend) *Client {
	return &Client{
		apiRoot: pathutil.JoinPath("/", apiNamespace),
		backend: b,
	}
}

type returnKind int

const (
	returnNone returnKind = iota
	returnContent
	returnCheckpoint
	returnCheckpointList
)

// operation pins down the protocol contract of one client call: method,
// accepted statuses, body presence, and the shape of the returned payload.
type operation struct {
	name     string
	method   string
	accepted []int
	returns  returnKind
}

var (
	opGet               = operation{"get", http.MethodGet, []int{http.StatusOK}, returnContent}
	opNewUntitled       = operation{"new_untitled", http.MethodPost, []int{http.StatusCreated}, returnContent}
	opSave              = operation{"save", http.MethodPut, []int{http.StatusOK, http.StatusCreated}, returnContent}
	opRename            = operation{"rename", http.MethodPatch, []int{http.StatusOK}, returnContent}
	opCopy              = operation{"copy", http.MethodPost, []int{http.StatusCreated}, returnContent}
	opDelete            = operation{"delete", http.MethodDelete, []int{http.StatusNoContent}, returnNone}
	opCreateCheckpoint  = operation{"create_checkpoint", http.MethodPost, []int{http.StatusCreated}, returnCheckpoint}
	opListCheckpoints   = operation{"list_checkpoints", http.MethodGet, []int{http.StatusOK}, returnCheckpointList}
	opRestoreCheckpoint = operation{"restore_checkpoint", http.MethodPost, []int{http.StatusNoContent}, returnNone}
	opDeleteCheckpoint  = operation{"delete_checkpoint", http.MethodDelete, []int{http.StatusNoContent}, returnNone}
)

func (op operation) accepts(status int) bool {
	for _, s := range op.accepted {
		if s == status {
			return true
		}
	}
	return false
}

// Get retrieves the content item at path. Options narrow the request; unset
// fields are omitted from the query string entirely.
func (c *Client) Get(ctx context.Context, path string, opts *Options) (*ContentItem, error) {
	raw, err := c.call(ctx, opGet, []string{path}, queryParams(opts), nil)
	if err != nil {
		return nil, err
	}
	return decodeContentItem(raw)
}

// List retrieves the directory listing at path. It is Get constrained to
// the directory variant.
func (c *Client) List(ctx context.Context, path string) (*ContentItem, error) {
	return c.Get(ctx, path, &Options{Type: "directory"})
}

// NewUntitled creates a new untitled file or directory inside the directory
// at path. The server picks the name; opts supply type, extension, and name
// hints.
func (c *Client) NewUntitled(ctx context.Context, path string, opts *Options) (*ContentItem, error) {
	var payload any
	if opts != nil {
		body := struct {
			Ext  string `json:"ext,omitempty"`
			Type string `json:"type,omitempty"`
			Name string `json:"name,omitempty"`
		}{Ext: opts.Ext, Type: opts.Type, Name: opts.Name}
		payload = body
	}
	raw, err := c.call(ctx, opNewUntitled, []string{path}, nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeContentItem(raw)
}

// Save writes model to path, creating the item when it does not yet exist.
func (c *Client) Save(ctx context.Context, path string, model *ContentItem) (*ContentItem, error) {
	if model == nil {
		return nil, errors.New("contents: save model is required")
	}
	raw, err := c.call(ctx, opSave, []string{path}, nil, model)
	if err != nil {
		return nil, err
	}
	return decodeContentItem(raw)
}

// Rename moves the item at path to newPath.
func (c *Client) Rename(ctx context.Context, path, newPath string) (*ContentItem, error) {
	payload := struct {
		Path string `json:"path"`
	}{Path: newPath}
	raw, err := c.call(ctx, opRename, []string{path}, nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeContentItem(raw)
}

// Copy duplicates the item at fromPath into the directory toDir. The server
// assigns the new name.
func (c *Client) Copy(ctx context.Context, fromPath, toDir string) (*ContentItem, error) {
	payload := struct {
		CopyFrom string `json:"copy_from"`
	}{CopyFrom: fromPath}
	raw, err := c.call(ctx, opCopy, []string{toDir}, nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeContentItem(raw)
}

// Delete removes the item at path. A 400 response is reported as
// ErrDirectoryNotFound; see the error's doc for why this mapping is
// best-effort.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.call(ctx, opDelete, []string{path}, nil, nil)
	return err
}

// CreateCheckpoint asks the server to snapshot the item at path.
func (c *Client) CreateCheckpoint(ctx context.Context, path string) (*Checkpoint, error) {
	raw, err := c.call(ctx, opCreateCheckpoint, []string{path, "checkpoints"}, nil, nil)
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := contentsapi.DecodeCheckpoint(raw, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// ListCheckpoints returns the checkpoints for the item at path in server
// order. The payload must be a sequence; a lone object is a failure.
func (c *Client) ListCheckpoints(ctx context.Context, path string) ([]Checkpoint, error) {
	raw, err := c.call(ctx, opListCheckpoints, []string{path, "checkpoints"}, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := contentsapi.ValidateCheckpointList(raw); err != nil {
		return nil, err
	}
	var cps []Checkpoint
	if err := json.Unmarshal(raw, &cps); err != nil {
		return nil, fmt.Errorf("contents: decode checkpoint list: %w", err)
	}
	return cps, nil
}

// RestoreCheckpoint reverts the item at path to the named checkpoint.
func (c *Client) RestoreCheckpoint(ctx context.Context, path, checkpointID string) error {
	_, err := c.call(ctx, opRestoreCheckpoint, []string{path, "checkpoints", checkpointID}, nil, nil)
	return err
}

// DeleteCheckpoint discards the named checkpoint of the item at path.
func (c *Client) DeleteCheckpoint(ctx context.Context, path, checkpointID string) error {
	_, err := c.call(ctx, opDeleteCheckpoint, []string{path, "checkpoints", checkpointID}, nil, nil)
	return err
}

// call drives one operation through the backend and applies the status
// gate. It returns the raw body for accepted statuses; shape validation is
// the caller's concern.
func (c *Client) call(ctx context.Context, op operation, segments []string, query map[string]string, payload any) ([]byte, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("contents: client is nil")
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, c.apiRoot)
	for _, seg := range segments {
		parts = append(parts, pathutil.EncodeSegments(seg))
	}
	urlPath := pathutil.JoinPath(parts...)
	if query != nil {
		urlPath += pathutil.QueryString(query)
	}

	req := &Request{Method: op.method, Path: urlPath}
	if payload != nil {
		body, err := encodeJSON(payload)
		if err != nil {
			return nil, fmt.Errorf("contents: encode %s body: %w", op.name, err)
		}
		req.Body = body
		req.JSONBody = true
	}

	resp, err := c.backend.Do(ctx, req)
	if err != nil {
		// The transport never completed; surface its failure as-is.
		return nil, err
	}
	if !op.accepts(resp.StatusCode) {
		if op.name == opDelete.name && resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, firstSegment(segments))
		}
		return nil, &StatusError{Op: op.name, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if op.returns == returnNone {
		return nil, nil
	}
	return resp.Body, nil
}

// queryParams builds the GET query from only the explicitly-set options.
// Content inclusion is expressed solely as content=0 when suppressed.
func queryParams(opts *Options) map[string]string {
	if opts == nil {
		return nil
	}
	params := make(map[string]string)
	if opts.Type != "" {
		params["type"] = opts.Type
	}
	if opts.Format != "" {
		params["format"] = opts.Format
	}
	if opts.Content != nil && !*opts.Content {
		params["content"] = "0"
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func decodeContentItem(raw []byte) (*ContentItem, error) {
	var item ContentItem
	if err := contentsapi.DecodeContent(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func firstSegment(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

func encodeJSON(payload any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// httpBackend drives internal/httpx. Completed 4xx/5xx responses are folded
// back into Responses so the client's status gate owns their meaning;
// genuine transport failures stay errors.
type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) Do(ctx context.Context, req *Request) (*Response, error) {
	if b == nil || b.client == nil {
		return nil, errors.New("contents: http backend not configured")
	}
	hreq := &httpx.Request{
		Method: req.Method,
		Path:   req.Path,
		Body:   req.Body,
	}
	if req.JSONBody {
		hreq.ContentType = "application/json"
	}

	result, err := b.client.Do(ctx, hreq)
	if err != nil {
		var httpErr *httpx.HTTPError
		if errors.As(err, &httpErr) {
			return &Response{
				StatusCode: httpErr.StatusCode,
				Status:     httpErr.Status,
				Header:     httpErr.Header,
				Body:       httpErr.Body,
			}, nil
		}
		return nil, err
	}
	return &Response{
		StatusCode: result.StatusCode,
		Status:     result.Status,
		Header:     result.Header,
		Body:       result.Body,
	}, nil
}
