package confluence

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	codeRemoteFailure    = "CONFLUENCE_REMOTE_FAILURE"
	codePageNotFound     = "CONFLUENCE_PAGE_NOT_FOUND"
	codeVersionConflict  = "CONFLUENCE_VERSION_CONFLICT"
	codeSpaceNotFound    = "CONFLUENCE_SPACE_NOT_FOUND"
	codeRestrictionFails = "CONFLUENCE_RESTRICTION_FAILED"

	maxErrorBody = 2048
)

var (
	// ErrSpaceNotFound is returned by OpenSpace when the key does not resolve.
	ErrSpaceNotFound = errors.New("confluence: space not found")
	// ErrRestrictionFailed is returned when every restriction strategy failed.
	ErrRestrictionFailed = errors.New("confluence: no restriction strategy succeeded")
	// ErrAccountUnavailable is returned when the current user has no account id.
	ErrAccountUnavailable = errors.New("confluence: current account id unavailable")
	// ErrMissingBaseURL is returned by NewClient without a base URL.
	ErrMissingBaseURL = errors.New("confluence: base url is required")
)

// APIError captures a non-2xx response, keeping the body for the logs.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("confluence: %s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("confluence: %s %s: status %d: %s", e.Method, e.Path, e.Status, body)
}

// Is lets errors.Is match the page sentinels by status.
func (e *APIError) Is(target error) bool {
	switch target {
	case interfaces.ErrPageNotFound:
		return e.Status == http.StatusNotFound
	case interfaces.ErrVersionConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func wrapAPIError(err *APIError) error {
	switch err.Status {
	case http.StatusNotFound:
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "confluence resource not found").
			WithTextCode(codePageNotFound)
	case http.StatusConflict:
		return goerrors.Wrap(err, goerrors.CategoryConflict, "confluence version conflict").
			WithTextCode(codeVersionConflict)
	default:
		return goerrors.Wrap(err, goerrors.CategoryExternal, "confluence request failed").
			WithTextCode(codeRemoteFailure)
	}
}

func wrapTransportError(err error, method, path string) error {
	return goerrors.Wrap(fmt.Errorf("confluence: %s %s: %w", method, path, err), goerrors.CategoryExternal, "confluence request failed").
		WithTextCode(codeRemoteFailure)
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
