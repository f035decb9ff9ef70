package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrNotConfigured     = errors.New("service is not configured")

	// extraction errors
	ErrNoFeedLink       = errors.New("no feed link found")
	ErrMalformedLink    = errors.New("link is missing expected path segments")
	ErrUsernameNotFound = errors.New("username not found in link")

	// mailbox errors
	ErrEmptyMessage = errors.New("message has no content")
)
