package domain

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories the auth core can report.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicate
	KindNotFound
	KindInvalidCredential
	KindMalformed
	KindExpired
	KindRevoked
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindMalformed:
		return "malformed"
	case KindExpired:
		return "expired"
	case KindRevoked:
		return "revoked"
	default:
		return "internal"
	}
}

// Error is the tagged error returned by every core component. Message is safe
// to show to the end user; Err holds the underlying cause, if any, and is
// only meant for logs.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when the target is one of the
// sentinel values below, so errors.Is(err, ErrRevoked) works regardless of
// message or field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Field == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

// Sentinels for errors.Is checks.
var (
	ErrInternal          = &Error{Kind: KindInternal}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrDuplicate         = &Error{Kind: KindDuplicate}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential}
	ErrMalformed         = &Error{Kind: KindMalformed}
	ErrExpired           = &Error{Kind: KindExpired}
	ErrRevoked           = &Error{Kind: KindRevoked}
)

// User-facing messages.
const (
	MsgEmptyFields       = "None of the fields should be empty"
	MsgWeakPassword      = "Password must be at least 8 characters long and include uppercase, lowercase, number, and special character."
	MsgPasswordTooLong   = "Password must be at most 72 bytes long"
	MsgReservedName      = "Name admin is reserved"
	MsgInvalidName       = "Name should contain only letters,numbers, space or _"
	MsgInvalidEmail      = "Enter a valid Email"
	MsgUsernameExists    = "Username already exists"
	MsgEmailExists       = "Email already exists"
	MsgUserNotFound      = "User cannot be found"
	MsgInvalidPassword   = "Invalid password"
	MsgMalformedToken    = "invalid session token"
	MsgExpiredToken      = "session has expired"
	MsgRevokedToken      = "session has been logged out"
	MsgSomethingWrong    = "Something went wrong"
	MsgServerUnavailable = "Server is currently down. Try again later"
)

// NewValidationError builds a validation failure for a single field.
func NewValidationError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// NewDuplicateError builds a uniqueness failure for username or email.
func NewDuplicateError(field string) *Error {
	msg := MsgUsernameExists
	if field == "email" {
		msg = MsgEmailExists
	}
	return &Error{Kind: KindDuplicate, Field: field, Message: msg}
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgSomethingWrong, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message carried by err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return MsgSomethingWrong
}
