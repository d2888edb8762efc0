package token

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	credentialBucket = "credentials"
	tokenKey         = "token"
)

var ErrClosed = errors.New("Token store is closed")

// Bolt persists a token in a BoltDB file so that it survives between
// processes.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) the token store at path.
func OpenBolt(path string) (*Bolt, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create token store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(credentialBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Bolt) Token() (string, error) {
	if b == nil || b.db == nil {
		return "", ErrClosed
	}
	var tok string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		tok = string(bucket.Get([]byte(tokenKey))) // copy; the value is only valid in the transaction
		return nil
	})
	return tok, err
}

func (b *Bolt) SetToken(t string) error {
	if b == nil || b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Put([]byte(tokenKey), []byte(t))
	})
}

func (b *Bolt) Clear() error {
	if b == nil || b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Delete([]byte(tokenKey))
	})
}
