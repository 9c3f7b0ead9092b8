// Package persist carries scheduler state across process restarts in a
// bbolt database, the way fs.Cache keeps onedriver's metadata: a single
// file, one bucket per concern, opened once at startup.
package persist

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/auriora/telemetrypm/internal/logging"
	"github.com/auriora/telemetrypm/pkg/backoff"
)

var bucketBackoff = []byte("backoff")

const keyCurrent = "current"
const keySpec = "spec"

// Store is a durable home for transmission-policy state that should
// survive a restart rather than resetting to its initial configuration.
// The only state it currently tracks is the backoff's escalation level, so
// a crash-looping client does not silently fall back to its fastest retry
// cadence.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the store's database file at path, creating its
// buckets if this is the first run.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second * 5})
	if err != nil {
		logging.LogError(err, "could not open persistence store", "path", path)
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBackoff)
		return err
	})
	if err != nil {
		logging.LogError(err, "could not initialize persistence store", "path", path)
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBackoff records b's current escalation level and policy string so a
// future RestoreBackoff call can resume the retry sequence instead of
// starting over at the policy's initial delay.
func (s *Store) SaveBackoff(b *backoff.Backoff) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], b.Current())

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBackoff)
		if err := bucket.Put([]byte(keyCurrent), buf[:]); err != nil {
			return err
		}
		return bucket.Put([]byte(keySpec), []byte(b.Spec()))
	})
}

// RestoreBackoff applies a previously saved escalation level to b, but only
// if the saved policy string still matches b's current one; a changed
// policy (e.g. a new config deployed) discards the saved state rather than
// applying it to a differently-shaped curve.
func (s *Store) RestoreBackoff(b *backoff.Backoff) {
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBackoff)
		savedSpec := bucket.Get([]byte(keySpec))
		if savedSpec == nil || string(savedSpec) != b.Spec() {
			return nil
		}
		raw := bucket.Get([]byte(keyCurrent))
		if len(raw) != 4 {
			return nil
		}
		b.Restore(binary.BigEndian.Uint32(raw))
		return nil
	})
	if err != nil {
		logging.LogError(err, "could not restore backoff state")
	}
}
