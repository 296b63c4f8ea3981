// Package gameerr classifies failures by how the game server reacts to them.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind is the reaction class of an error.
type Kind string

const (
	// KindUnknown marks errors that were never classified.
	KindUnknown Kind = "unknown"
	// KindUser is an invalid player action. The client gets a game error and
	// the simulation continues.
	KindUser Kind = "user"
	// KindNotFound is a reference to a missing entity. Clients see it like a
	// user error.
	KindNotFound Kind = "not_found"
	// KindProtocol is a malformed or unexpected message. The connection is
	// terminated.
	KindProtocol Kind = "protocol"
	// KindInfrastructure is a persistence or registry failure.
	KindInfrastructure Kind = "infrastructure"
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// User wraps err as an invalid player action.
func User(err error) error {
	return wrap(KindUser, "", err)
}

// Userf formats a new user error.
func Userf(format string, args ...any) error {
	return &Error{Kind: KindUser, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Protocol wraps err as a protocol violation.
func Protocol(message string, err error) error {
	return &Error{Kind: KindProtocol, Message: message, Err: err}
}

// Infrastructure wraps err as a server-side failure.
func Infrastructure(message string, err error) error {
	return &Error{Kind: KindInfrastructure, Message: message, Err: err}
}

func wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUserFacing reports whether err is reported to the player as a game
// error without ending the session.
func IsUserFacing(err error) bool {
	switch KindOf(err) {
	case KindUser, KindNotFound:
		return true
	}
	return false
}

// MustDisconnect reports whether err ends the connection.
func MustDisconnect(err error) bool {
	return KindOf(err) == KindProtocol
}
