// Package cerebras is a client for the unofficial, cookie-authenticated
// Cerebras inference endpoint. It maintains a demo API key scraped from an
// authenticated browser session and issues chat completion requests
// (streaming or not) against the completion endpoint.
package cerebras

import (
	"errors"
	"fmt"
)

// ErrNoCredentialSource is returned by New when neither cookies nor an API
// key are supplied.
var ErrNoCredentialSource = errors.New("cerebras: cookies or API key must be provided")

// CredentialError reports a failure to obtain or renew the demo API key:
// the issuance endpoint was unreachable, returned a non-2xx status, rejected
// the cookies, or the response did not carry a key field.
type CredentialError struct {
	// Op is the operation that failed (request, status, parse).
	Op string

	// StatusCode is the HTTP status of the issuance response, 0 if the
	// request never completed.
	StatusCode int

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *CredentialError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cerebras: credential %s error [%d]: %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("cerebras: credential %s error: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("cerebras: credential %s error: %s", e.Op, e.Message)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// ChatError reports a failure of a chat completion call: endpoint
// unreachable, malformed response, or an authentication failure that
// persisted after the refresh-and-retry budget was spent.
type ChatError struct {
	// StatusCode is the HTTP status of the completion response, 0 if the
	// request never completed.
	StatusCode int

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *ChatError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cerebras: chat error [%d]: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("cerebras: chat error: %s: %v", e.Message, e.Err)
	}
	return "cerebras: chat error: " + e.Message
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// InputError reports invalid caller input, such as an empty prompt. No
// network call is made when one is returned.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return "cerebras: invalid input: " + e.Message
}

// IsCredentialError checks if an error is a *CredentialError.
func IsCredentialError(err error) bool {
	var e *CredentialError
	return errors.As(err, &e)
}

// IsChatError checks if an error is a *ChatError.
func IsChatError(err error) bool {
	var e *ChatError
	return errors.As(err, &e)
}

// IsInputError checks if an error is an *InputError.
func IsInputError(err error) bool {
	var e *InputError
	return errors.As(err, &e)
}
