package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	fieldPrefix = "f:"
	expiresKey  = "m:expires"
)

// LevelDBStore keeps the record in a LevelDB database on disk.
type LevelDBStore struct {
	db  *leveldb.DB
	now func() time.Time
}

// OpenLevelDB opens (or creates) the database at path.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db, now: time.Now}, nil
}

// WithClock swaps the clock used to evaluate expiry.
func (s *LevelDBStore) WithClock(now func() time.Time) *LevelDBStore {
	s.now = now
	return s
}

// Close releases the database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func (s *LevelDBStore) Read(ctx context.Context) (Record, error) {
	raw, err := s.db.Get([]byte(expiresKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	nanos, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return Record{}, err
	}
	if !s.now().Before(time.Unix(0, nanos)) {
		return Record{}, ErrNotFound
	}

	fields := make(map[string]string)
	it := s.db.NewIterator(util.BytesPrefix([]byte(fieldPrefix)), nil)
	defer it.Release()
	for it.Next() {
		key := string(it.Key()[len(fieldPrefix):])
		fields[key] = string(it.Value())
	}
	if err := it.Error(); err != nil {
		return Record{}, err
	}
	if len(fields) == 0 {
		return Record{}, ErrNotFound
	}

	return FromFields(fields), nil
}

func (s *LevelDBStore) Write(ctx context.Context, rec Record, expires time.Time) error {
	batch := new(leveldb.Batch)
	if err := s.clear(batch); err != nil {
		return err
	}
	for _, f := range rec.Fields() {
		batch.Put([]byte(fieldPrefix+f.Key), []byte(f.Value))
	}
	batch.Put([]byte(expiresKey), []byte(strconv.FormatInt(expires.UnixNano(), 10)))

	return s.db.Write(batch, nil)
}

func (s *LevelDBStore) Delete(ctx context.Context) error {
	batch := new(leveldb.Batch)
	if err := s.clear(batch); err != nil {
		return err
	}
	batch.Delete([]byte(expiresKey))

	return s.db.Write(batch, nil)
}

func (s *LevelDBStore) clear(batch *leveldb.Batch) error {
	it := s.db.NewIterator(util.BytesPrefix([]byte(fieldPrefix)), nil)
	defer it.Release()
	for it.Next() {
		key := make([]byte, len(it.Key()))
		copy(key, it.Key())
		batch.Delete(key)
	}
	return it.Error()
}
