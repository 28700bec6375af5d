package restaurant

import (
	"bytes"
	"context"
	"fmt"

	"lunchbot/internal/storage"
)

// Load fetches the dataset blob at key and decodes it.
func Load(ctx context.Context, st storage.Store, key string) ([]Record, error) {
	b, err := st.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	recs, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return recs, nil
}

// Save encodes recs fully before writing, so an encode failure never touches
// the stored blob. The write itself is a single object replace.
func Save(ctx context.Context, st storage.Store, key string, recs []Record) error {
	b, err := marshal(recs)
	if err != nil {
		return err
	}
	if err := st.Put(ctx, key, b); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
