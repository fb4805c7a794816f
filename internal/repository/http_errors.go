package repository

import (
	"fmt"
	"net/http"

	"github.com/compozy/tgit/internal/domain"
	"go.uber.org/zap"
)

// HTTPError is a response with a status code of 400 or above.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// Is lets errors.Is classify the response by status code.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrAuthenticationFailed:
		return e.StatusCode == http.StatusUnauthorized
	case domain.ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// classifyError maps a failed request onto the error taxonomy.
// 404 is returned unwrapped, throttling and server errors become ExternalHostError,
// anything else is returned unchanged.
func classifyError(logger *zap.Logger, err *HTTPError) error {
	if err.StatusCode == http.StatusNotFound {
		logger.Debug("TGit API 404", zap.String("url", err.URL))
		return err
	}
	logger.Debug("TGit API error", zap.Error(err), zap.ByteString("body", err.Body))
	if err.StatusCode == http.StatusTooManyRequests ||
		(err.StatusCode >= 500 && err.StatusCode < 600) {
		return domain.NewExternalHostError(err, domain.PlatformID)
	}
	return err
}
