// Package raerrors defines the error taxonomy a raclient.Client surfaces to
// its caller (spec §7). Each kind is a curated.Errorf template so that
// callers can test for a family of errors with Is() rather than comparing
// against a sentinel, while log output and user-facing messages still read
// naturally.
package raerrors

import (
	"github.com/pkg/errors"

	"github.com/jetsetilly/raclient/internal/curated"
)

// message templates. these are the "heads" matched by Is().
const (
	headInvalidState    = "invalid state: %s"
	headInvalidJSON     = "invalid json response: %s"
	headAPIFailure      = "api failure: %s"
	headLoginRequired   = "login required"
	headNoGameLoaded    = "no game loaded"
	headUnknownGame     = "unknown game"
	headHardcoreDisable = "hardcore disabled: %s"
	headAborted         = "aborted"
	headOutOfMemory     = "out of memory"
	headMissingValue    = "missing value: %s"
)

// InvalidState is returned when the caller violates a precondition, such as
// calling an operation that requires a loaded game with none loaded.
func InvalidState(msg string) error { return curated.Errorf(headInvalidState, msg) }

// InvalidJSON is returned when a transport response could not be parsed as
// the expected JSON shape.
func InvalidJSON(msg string) error { return curated.Errorf(headInvalidJSON, msg) }

// APIFailure is returned when the server parsed the request but responded
// with Success:false and a message.
func APIFailure(msg string) error { return curated.Errorf(headAPIFailure, msg) }

// LoginRequired is returned when an operation that depends on a logged-in
// user is attempted, or login failed while the operation was parked.
func LoginRequired() error { return curated.Errorf(headLoginRequired) }

// NoGameLoaded is returned when an operation that depends on a loaded game
// is attempted with no game loaded.
func NoGameLoaded() error { return curated.Errorf(headNoGameLoaded) }

// UnknownGame is returned (informationally; a stub game is still attached)
// when a hash resolves to game id 0.
func UnknownGame() error { return curated.Errorf(headUnknownGame) }

// HardcoreDisabled is returned to a media-change callback when changing to
// an unidentified disc silently downgrades hardcore.
func HardcoreDisabled(msg string) error { return curated.Errorf(headHardcoreDisable, msg) }

// Aborted is returned when the caller cancelled an async operation via its
// handle before it completed.
func Aborted() error { return curated.Errorf(headAborted) }

// OutOfMemory is returned when an allocation fails.
func OutOfMemory() error { return curated.Errorf(headOutOfMemory) }

// MissingValue is returned when an expected JSON field is absent.
func MissingValue(field string) error { return curated.Errorf(headMissingValue, field) }

// Is reports whether err belongs to the same family as the error produced
// by ctor (ignoring the formatted values). err is unwrapped via
// errors.Cause first, so a curated error wrapped with github.com/pkg/errors
// at the client/session transport boundary still matches by head.
func Is(err error, ctor func(string) error) bool {
	return curated.Is(errors.Cause(err), curated.Head(ctor("")))
}

// IsKind is a convenience for the zero-argument constructors (LoginRequired,
// NoGameLoaded, UnknownGame, Aborted, OutOfMemory).
func IsKind(err error, ctor func() error) bool {
	return curated.Is(errors.Cause(err), curated.Head(ctor()))
}
