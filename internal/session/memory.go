package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the record in process.
type MemoryStore struct {
	mutex   sync.Mutex
	fields  map[string]string
	expires time.Time
	now     func() time.Time
}

// NewMemoryStore returns an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// WithClock swaps the clock used to evaluate expiry.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) Read(ctx context.Context) (Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.fields) == 0 || !s.now().Before(s.expires) {
		return Record{}, ErrNotFound
	}

	copied := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		copied[k] = v
	}
	return FromFields(copied), nil
}

func (s *MemoryStore) Write(ctx context.Context, rec Record, expires time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	fields := make(map[string]string)
	for _, f := range rec.Fields() {
		fields[f.Key] = f.Value
	}
	s.fields = fields
	s.expires = expires
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.fields = nil
	s.expires = time.Time{}
	return nil
}
