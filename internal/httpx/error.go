package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// HTTPError represents a 4xx/5xx response from the remote service. Status
// carries the response status line text so callers can surface it verbatim.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
	Header     http.Header
	JSON       any
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
		Header:     resp.Header.Clone(),
	}
	if isJSON(resp.Header.Get("Content-Type")) && len(body) > 0 {
		var payload any
		if err := json.Unmarshal(body, &payload); err == nil {
			httpErr.JSON = payload
		}
	}
	return httpErr
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status != "" {
		return "http error: " + e.Status
	}
	return "http error: status=" + http.StatusText(e.StatusCode)
}

// Retryable reports whether the error should be considered transient.
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		(e.StatusCode >= 500 && e.StatusCode <= 599)
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType) == "application/json"
}
