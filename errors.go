package appdeck

import (
	"errors"
	"fmt"

	"github.com/hupe1980/appdeck/icon"
)

var (
	// ErrClosed is returned by operations on a closed Deck.
	ErrClosed = errors.New("appdeck: deck closed")

	// ErrNoScanner is returned by Rescan and Watch when the Deck has no
	// scanner, or Watch cannot determine the directories to watch.
	ErrNoScanner = errors.New("appdeck: no scanner configured")

	// ErrNoIcon is returned by renderers for identities without an icon.
	// Deck.Icon never returns it; it yields a placeholder instead.
	ErrNoIcon = icon.ErrNoIcon
)

// ErrInvalidOption indicates an option value that cannot be applied.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidOption struct {
	Name  string
	Value any
	cause error
}

func (e *ErrInvalidOption) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid option %s=%v: %v", e.Name, e.Value, e.cause)
	}
	return fmt.Sprintf("invalid option %s=%v", e.Name, e.Value)
}

func (e *ErrInvalidOption) Unwrap() error { return e.cause }
