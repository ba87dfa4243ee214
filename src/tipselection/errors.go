package tipselection

import (
	"errors"
	"fmt"
)

// ErrorType enumerates the reasons a walk can fail.
type ErrorType uint32

const (
	// UnknownAncestor is returned when a walk reaches a transaction that
	// was referenced but not received.
	UnknownAncestor ErrorType = iota
	// InvalidBundle is returned when a visited tail does not start a valid
	// bundle instance.
	InvalidBundle
	// NoCandidate is returned when no tip could be rated.
	NoCandidate
)

// Error is returned by SelectTip.
type Error struct {
	errType ErrorType
	hash    string
}

func newError(t ErrorType, hash string) Error {
	return Error{errType: t, hash: hash}
}

// Error implements the error interface.
func (e Error) Error() string {
	m := ""
	switch e.errType {
	case UnknownAncestor:
		m = "Unknown ancestor"
	case InvalidBundle:
		m = "Invalid bundle"
	case NoCandidate:
		m = "No candidate"
	}
	if e.hash == "" {
		return m
	}
	return fmt.Sprintf("%s: %s", m, e.hash)
}

// Is checks that an error is a tip selection Error of the given type.
func Is(err error, t ErrorType) bool {
	var e Error
	return errors.As(err, &e) && e.errType == t
}
