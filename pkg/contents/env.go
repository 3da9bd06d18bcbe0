package contents

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/nbhub/contents_sdk_go/internal/devseed"
	"github.com/nbhub/contents_sdk_go/pkg/contents/mock"
)

const (
	envMode     = "NBHUB_RUNTIME_MODE"
	envAPIURL   = "NBHUB_CONTENTS_API_URL"
	envMockSeed = "NBHUB_MOCK_CONTENTS_SEED"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client from environment variables and returns
// the resolved mode ("http" or "mock"). NBHUB_RUNTIME_MODE selects the
// mode; auto picks http when NBHUB_CONTENTS_API_URL is set and falls back
// to an in-memory mock, optionally seeded from NBHUB_MOCK_CONTENTS_SEED.
func NewFromEnv() (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	baseURL := strings.TrimSpace(os.Getenv(envAPIURL))

	switch mode {
	case "", modeAuto:
		if baseURL != "" {
			return newHTTPClient(baseURL)
		}
		return newMockClient()
	case modeHTTP:
		if baseURL == "" {
			return nil, "", fmt.Errorf("contents: HTTP mode requires %s", envAPIURL)
		}
		return newHTTPClient(baseURL)
	case modeMock:
		return newMockClient()
	default:
		return nil, "", fmt.Errorf("contents: unsupported %s value %q", envMode, mode)
	}
}

func newHTTPClient(baseURL string) (*Client, string, error) {
	client, err := New(baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("contents: init HTTP client: %w", err)
	}
	return client, modeHTTP, nil
}

func newMockClient() (*Client, string, error) {
	store := mock.New()
	if path := strings.TrimSpace(os.Getenv(envMockSeed)); path != "" {
		entries, err := devseed.LoadContentsSeed(path)
		if err != nil {
			return nil, "", fmt.Errorf("contents: load mock seed: %w", err)
		}
		if err := store.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("contents: apply mock seed: %w", err)
		}
	}
	return NewWithBackend(NewMockBackend(store)), modeMock, nil
}

// NewMockBackend wraps an in-memory store as a Backend by routing requests
// through the mock's REST handler, so mock mode exercises the exact same
// protocol surface as a real server.
func NewMockBackend(store *mock.Store) Backend {
	return &handlerBackend{handler: mock.Handler(store)}
}

type handlerBackend struct {
	handler http.Handler
}

func (b *handlerBackend) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	if req.JSONBody {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	rec := &memoryResponse{header: make(http.Header), status: http.StatusOK}
	b.handler.ServeHTTP(rec, httpReq)
	return &Response{
		StatusCode: rec.status,
		Status:     fmt.Sprintf("%d %s", rec.status, http.StatusText(rec.status)),
		Header:     rec.header,
		Body:       rec.body.Bytes(),
	}, nil
}

// memoryResponse is a minimal in-process http.ResponseWriter.
type memoryResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (m *memoryResponse) Header() http.Header {
	return m.header
}

func (m *memoryResponse) WriteHeader(status int) {
	m.status = status
}

func (m *memoryResponse) Write(b []byte) (int, error) {
	return m.body.Write(b)
}
