package domain

import (
	"errors"
	"fmt"
)

// PlatformID identifies the hosting platform in errors and cache namespaces.
const PlatformID = "tgit"

var (
	// ErrNotFound marks a definitive absence of a resource (repository path, branch, commit).
	ErrNotFound = errors.New("not found")
	// ErrAuthenticationFailed marks invalid or missing credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrForbidden marks a request rejected for lack of permission.
	ErrForbidden = errors.New("access denied")
)

// Repository lifecycle errors returned by platform operations.
var (
	ErrRepositoryArchived        = errors.New("repository-archived")
	ErrRepositoryEmpty           = errors.New("empty")
	ErrRepositoryDisabled        = errors.New("disabled")
	ErrRepositoryNotFound        = errors.New("not-found")
	ErrRepositoryAccessForbidden = errors.New("forbidden")
	ErrRepositoryChanged         = errors.New("repository-changed")
	ErrConfigGitURLUnavailable   = errors.New("config-git-url-unavailable")
	ErrPlatformAuthentication    = errors.New("authentication-error")
	ErrTemporary                 = errors.New("temporary-error")
)

// ExternalHostError signals that the upstream host failed or returned malformed data.
// Callers may retry it; it is never a caller logic error.
type ExternalHostError struct {
	HostType string
	Err      error
}

// NewExternalHostError wraps err as a failure of hostType.
func NewExternalHostError(err error, hostType string) *ExternalHostError {
	return &ExternalHostError{HostType: hostType, Err: err}
}

func (e *ExternalHostError) Error() string {
	return fmt.Sprintf("external host error (%s): %v", e.HostType, e.Err)
}

func (e *ExternalHostError) Unwrap() error {
	return e.Err
}

// IsExternalHostError reports whether err or anything it wraps is an ExternalHostError.
func IsExternalHostError(err error) bool {
	var hostErr *ExternalHostError
	return errors.As(err, &hostErr)
}
