package bot

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"

	"lunchbot/internal/restaurant"
	"lunchbot/internal/storage"
	kit "lunchbot/internal/transport"
	logx "lunchbot/pkg/logx"
)

var errMissingConfig = errors.New("required configuration is missing")

type BroadcastConfig struct {
	ChannelID string
	BotToken  string
	DataKey   string
}

// Broadcaster posts a random recommendation to a fixed channel.
type Broadcaster struct {
	cfg    BroadcastConfig
	store  storage.Store
	poster kit.Poster
	log    logx.Logger
	pick   *sampler
}

func NewBroadcaster(cfg BroadcastConfig, st storage.Store, poster kit.Poster, log logx.Logger, rng *rand.Rand) *Broadcaster {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.DataKey) == "" {
		cfg.DataKey = restaurant.DefaultKey
	}
	return &Broadcaster{cfg: cfg, store: st, poster: poster, log: log, pick: newSampler(rng)}
}

// Run performs one broadcast.
//
// Storage failures and an undersized dataset degrade to a message with no
// fields. Delivery failures are logged. Both still answer 200.
func (b *Broadcaster) Run(ctx context.Context) Response {
	if strings.TrimSpace(b.cfg.ChannelID) == "" || strings.TrimSpace(b.cfg.BotToken) == "" {
		b.log.Error("slack token or channel id not configured")
		return failed(http.StatusInternalServerError, msgMisconfigured, StateMisconfigured, errMissingConfig)
	}

	state := StateDelivered
	var cause error

	picked, err := b.choose(ctx)
	if err != nil {
		cause = err
		state = StateStorageUnavailable
		if errors.Is(err, restaurant.ErrInsufficientRecords) {
			state = StateInsufficientRecords
		}
		b.log.Warn("no records to broadcast", logx.String("state", string(state)), logx.Err(err))
	}

	msg := buildMessage(broadcastPretext, picked)
	if err := b.poster.PostMessage(ctx, b.cfg.ChannelID, msg); err != nil {
		b.log.Error("broadcast delivery failed", logx.String("channel", b.cfg.ChannelID), logx.Err(err))
		return ok(StateDeliveryFailed, err)
	}

	b.log.Info("broadcast posted",
		logx.String("channel", b.cfg.ChannelID),
		logx.Int("fields", len(msg.Fields)),
		logx.String("state", string(state)),
	)
	return ok(state, cause)
}

func (b *Broadcaster) choose(ctx context.Context) ([]restaurant.Record, error) {
	if b.store == nil {
		return nil, storage.ErrClosed
	}
	recs, err := restaurant.Load(ctx, b.store, b.cfg.DataKey)
	if err != nil {
		return nil, err
	}
	return b.pick.pick(recs)
}
