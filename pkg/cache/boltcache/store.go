// Package boltcache persists cache entries in a bbolt file so cached reads
// survive process restarts. Entries are CBOR encoded.
package boltcache

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/goliatone/go-profiles/pkg/cache"
)

var entriesBucket = []byte("entries")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("boltcache: CBOR encoder initialization failed: " + err.Error())
	}
	// values decoded into any must come back as map[string]any so callers
	// see the same shapes they would get from encoding/json.
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("boltcache: CBOR decoder initialization failed: " + err.Error())
	}
}

type record struct {
	ExpiresAt int64 `cbor:"1,keyasint"`
	Value     any   `cbor:"2,keyasint"`
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the time to live for new entries. Zero disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock sets the clock used to compute expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowF = now
		}
	}
}

// WithLogger sets the logger used to report storage failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger
		}
	}
}

// Store is a cache.Store backed by a bbolt database.
type Store struct {
	db   *bolt.DB
	ttl  time.Duration
	nowF func() time.Time
	log  logrus.FieldLogger
}

var _ cache.Store = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		ttl:  cache.DefaultTTL,
		nowF: time.Now,
		log:  discardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltcache: open %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltcache: create bucket: %w", err)
	}
	s.db = db
	return s, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) (any, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(entriesBucket).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("boltcache: read failed")
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	var r record
	if err := decMode.Unmarshal(raw, &r); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("boltcache: dropping undecodable entry")
		s.Expire(key)
		return nil, false
	}
	if r.ExpiresAt <= s.nowF().UnixNano() {
		s.Expire(key)
		return nil, false
	}
	return r.Value, true
}

func (s *Store) Set(key string, value any) {
	if err := s.set(key, value); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("boltcache: write failed")
	}
}

func (s *Store) set(key string, value any) error {
	if s.ttl <= 0 {
		return nil
	}
	raw, err := encMode.Marshal(record{
		ExpiresAt: s.nowF().Add(s.ttl).UnixNano(),
		Value:     value,
	})
	if err != nil {
		return errors.Wrap(err, "encode entry")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put([]byte(key), raw)
	})
}

func (s *Store) Expire(key string) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Delete([]byte(key))
	})
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("boltcache: delete failed")
	}
}

func (s *Store) Clear() {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(entriesBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(entriesBucket)
		return err
	})
	if err != nil {
		s.log.WithError(err).Warn("boltcache: clear failed")
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
