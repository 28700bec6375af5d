// Package ingest runs the one-shot upstream -> blob store refresh.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lunchbot/internal/restaurant"
	"lunchbot/internal/storage"
	"lunchbot/internal/upstream"
	logx "lunchbot/pkg/logx"
)

// Fetcher returns the raw upstream items.
type Fetcher interface {
	Fetch(ctx context.Context) ([]upstream.Item, error)
}

type Result struct {
	Key   string
	Count int
	Took  time.Duration
}

// Run fetches, normalizes and writes the dataset. Nothing is written unless
// every earlier step succeeded; the write replaces the previous blob whole.
func Run(ctx context.Context, f Fetcher, st storage.Store, key string, log logx.Logger) (Result, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = restaurant.DefaultKey
	}
	start := time.Now()

	items, err := f.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ingest fetch: %w", err)
	}
	recs, err := upstream.Normalize(items)
	if err != nil {
		return Result{}, fmt.Errorf("ingest normalize: %w", err)
	}
	if err := restaurant.Save(ctx, st, key, recs); err != nil {
		return Result{}, fmt.Errorf("ingest write: %w", err)
	}

	res := Result{Key: key, Count: len(recs), Took: time.Since(start)}
	log.Info("dataset written",
		logx.String("key", key),
		logx.Int("records", res.Count),
		logx.Int("districts", len(restaurant.Districts(recs))),
		logx.Duration("took", res.Took),
	)
	return res, nil
}
