package poller

import (
	"errors"

	"github.com/angeloszaimis/hamster/internal/session"
)

// State is where a run currently is.
type State string

const (
	StateNoURL   State = "no-url"
	StateExpired State = "expired"
	StateProbing State = "probing"
	StateActive  State = "active"
	StateGaveUp  State = "gave-up"
	StateUnknown State = "unknown"
)

// Terminal reports whether a run stops in s.
func (s State) Terminal() bool {
	return s == StateActive || s == StateGaveUp || s == StateUnknown
}

// Destination is where the visitor goes once a run ends.
type Destination string

const (
	DestinationRoot       Destination = "root"
	DestinationUnknown    Destination = "unknown"
	DestinationServerDown Destination = "server-down"
)

var (
	// ErrConfigFetch wraps every failure to obtain a usable configuration.
	ErrConfigFetch = errors.New("poller: configuration fetch failed")
	// ErrRetryExhausted is the cause attached to a GaveUp outcome.
	ErrRetryExhausted = errors.New("poller: retry ceiling reached")
)

// Outcome is the result of a finished run.
type Outcome struct {
	Destination Destination
	State       State
	Attempts    int
	Session     session.Record
	// Cause is set for Unknown and GaveUp outcomes.
	Cause error
}
