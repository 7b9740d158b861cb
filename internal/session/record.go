package session

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
)

// State is the cached liveness of the session URL.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
)

// Reserved keys of a record.
const (
	KeyURL   = "url"
	KeyState = "state"
)

var (
	// ErrNotFound is returned by Read when no record exists or it has expired.
	ErrNotFound = errors.New("session: record not found")

	ErrInvalidURL   = errors.New("session: url must be an absolute http(s) origin")
	ErrInvalidState = errors.New("session: unknown state")
)

// ParseState accepts the two known state names.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateActive, StateExpired:
		return State(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
}

// Record is the session as persisted. Extra carries every other key the
// configuration resource published.
type Record struct {
	URL   string
	State State
	Extra map[string]string
}

// HasURL reports whether the record points at a backend.
func (r Record) HasURL() bool {
	return r.URL != ""
}

// Fields flattens the record into the key/value pairs stores persist.
// Keys come back sorted so writes are deterministic.
func (r Record) Fields() []Field {
	fields := make([]Field, 0, len(r.Extra)+2)
	for k, v := range r.Extra {
		if k == KeyURL || k == KeyState {
			continue
		}
		fields = append(fields, Field{Key: k, Value: v})
	}
	if r.URL != "" {
		fields = append(fields, Field{Key: KeyURL, Value: r.URL})
	}
	if r.State != "" {
		fields = append(fields, Field{Key: KeyState, Value: string(r.State)})
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// Field is a single persisted key.
type Field struct {
	Key   string
	Value string
}

// FromFields rebuilds a record. Unknown state values are kept as-is so the
// caller decides how to treat them.
func FromFields(fields map[string]string) Record {
	rec := Record{}
	for k, v := range fields {
		switch k {
		case KeyURL:
			rec.URL = v
		case KeyState:
			rec.State = State(v)
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[k] = v
		}
	}
	return rec
}

// ValidateOrigin checks that raw is an absolute http or https URL with a host.
func ValidateOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
