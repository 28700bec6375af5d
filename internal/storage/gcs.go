package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"

	logx "lunchbot/pkg/logx"
)

type gcsStore struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	prefix string
	log    logx.Logger
}

func openGCS(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("storage.bucket is required for gcs driver")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &gcsStore{
		client: client,
		bucket: client.Bucket(bucket),
		prefix: cfg.Prefix,
		log:    log,
	}, nil
}

func (s *gcsStore) Get(ctx context.Context, key string) ([]byte, error) {
	name := objectName(s.prefix, key)
	r, err := s.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Put uploads the object in one writer session; GCS only makes the new
// generation visible once Close succeeds.
func (s *gcsStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	name := objectName(s.prefix, key)
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "application/json; charset=utf-8"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", name, err)
	}
	s.log.Debug("blob written", logx.String("object", name), logx.Int("bytes", len(data)))
	return nil
}

func (s *gcsStore) Close() error {
	return s.client.Close()
}
