package confluence

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidConfig indicates the client could not be constructed.
	ErrInvalidConfig = errors.New("invalid confluence client configuration")
	// ErrVersionConflict matches any update rejected because the submitted
	// version was stale.
	ErrVersionConflict = errors.New("confluence: version conflict")
)

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
	Reason     string
	Body       []byte
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("API request %s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

// serverError is the JSON envelope Confluence returns alongside error statuses.
type serverError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Reason     string `json:"reason"`
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Body:       body,
	}
	if resp.Request != nil {
		apiErr.Method = resp.Request.Method
		apiErr.URL = resp.Request.URL.Redacted()
	}

	var envelope serverError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
		apiErr.Reason = envelope.Reason
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// VersionConflictError is returned when the server rejects an update because
// another writer bumped the version after it was read.
type VersionConflictError struct {
	ContentID string
	Submitted int
	Err       *APIError
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict updating content %s (submitted version %d): %v", e.ContentID, e.Submitted, e.Err)
}

func (e *VersionConflictError) Unwrap() error {
	return e.Err
}

func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
