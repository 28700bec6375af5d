package storage

import (
	"context"
	"errors"
	"path"
	"strings"

	logx "lunchbot/pkg/logx"
)

// Open initializes the configured store.
func Open(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "memory", "mem":
		return NewMemory(), nil
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(ctx, cfg, log)
	case "gcs":
		return openGCS(ctx, cfg, log)
	case "s3":
		return openS3(ctx, cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// objectName joins an optional prefix and a key into a bucket object name.
func objectName(prefix, key string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

func validKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("storage: empty key")
	}
	if strings.Contains(key, "..") {
		return errors.New("storage: invalid key " + key)
	}
	return nil
}
