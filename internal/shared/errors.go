package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication and access errors
	ErrUnauthorized = fmt.Errorf("unauthorized")
	ErrForbidden    = fmt.Errorf("forbidden")

	// Playlist errors
	ErrNotFound           = fmt.Errorf("not found")
	ErrPlaylistNotFound   = fmt.Errorf("playlist %w", ErrNotFound)
	ErrNodeNotFound       = fmt.Errorf("song node %w", ErrNotFound)
	ErrSongNotFound       = fmt.Errorf("song %w", ErrNotFound)
	ErrInvalidOperation   = fmt.Errorf("invalid operation")
	ErrConflict           = fmt.Errorf("version conflict")
	ErrInvariantViolation = fmt.Errorf("internal invariant violation")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
