package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console edge
var (
	// Identity provider errors
	ErrExchangeFailed   = errors.New("token exchange failed")
	ErrNoIDToken        = errors.New("no id token in response")
	ErrMalformedToken   = errors.New("malformed token")
	ErrUnknownApp       = errors.New("unknown app registration")
	ErrNoRegistrations  = errors.New("no client registrations configured")
	ErrAllClientsFailed = errors.New("all client registrations failed to exchange code")

	// Callback errors
	ErrBadState = errors.New("malformed callback state")

	// Proxy errors
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
