package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrClosed   = errors.New("storage closed")
)

// Store is a get/put key-value blob store. Put replaces the whole object.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// Config configures storage.
//
// Driver values:
//   - "memory": no persistence
//   - "file":   Path is a directory
//   - "sqlite": Path is the database file
//   - "gcs":    Bucket (+ optional Prefix)
//   - "s3":     Bucket (+ optional Prefix, Region)
type Config struct {
	Driver      string
	Path        string
	Bucket      string
	Prefix      string
	Region      string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
