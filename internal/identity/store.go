package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketIdentity = []byte("identity")
	keyNodeID      = []byte("node_id")
)

// Store persists the node's identity across restarts. A fresh database
// gets a generated UUID on first access.
type Store struct {
	db   *bolt.DB
	path string
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("state path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketIdentity)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure identity bucket: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// NodeID returns the stable node identifier, generating and persisting
// one on first boot.
func (s *Store) NodeID() (string, error) {
	var id string
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketIdentity)
		if existing := bucket.Get(keyNodeID); existing != nil {
			id = string(existing)
			return nil
		}
		id = uuid.NewString()
		return bucket.Put(keyNodeID, []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("load node id: %w", err)
	}
	return id, nil
}
