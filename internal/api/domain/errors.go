package domain

import "errors"

var (
	// ErrUnknownToken is returned when no user matches the supplied API token
	ErrUnknownToken = errors.New("no matching token found")

	// ErrUnverified is returned when the matching user has not verified
	// their email address
	ErrUnverified = errors.New("email address has not been verified")

	// ErrUserNotFound is returned when a user lookup matches no row
	ErrUserNotFound = errors.New("user not found")

	// ErrJobNotFound is returned when a job lookup matches no row
	ErrJobNotFound = errors.New("job not found")

	// ErrPageNotFound is returned by the submission-time reachability check
	// when the target URL responds but reports the page missing
	ErrPageNotFound = errors.New("target page not found")

	// ErrPageUnreachable is returned by the submission-time reachability
	// check when the target URL cannot be fetched at all
	ErrPageUnreachable = errors.New("target page unreachable")
)
