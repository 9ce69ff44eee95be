package ticketmaster

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is wrapped by an AuthenticationError when the site
	// rejected the email/password pair.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrUnexpectedStatus is wrapped when the site answered with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// AuthenticationError means no session could be established, either because the
// credentials were rejected or because the login request did not complete.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("ticketmaster: login failed: %s", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// FetchError means the status page of a single order could not be retrieved.
type FetchError struct {
	OrderID string
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("ticketmaster: fetch order %s: %s", e.OrderID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
