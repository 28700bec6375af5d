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

type RespondConfig struct {
	BotToken string
	// Command is the recognized slash command (default DefaultCommand).
	Command string
	DataKey string
}

// Responder answers the district search slash command via response_url.
type Responder struct {
	cfg    RespondConfig
	store  storage.Store
	poster kit.Poster
	log    logx.Logger
	pick   *sampler
}

func NewResponder(cfg RespondConfig, st storage.Store, poster kit.Poster, log logx.Logger, rng *rand.Rand) *Responder {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = DefaultCommand
	}
	if strings.TrimSpace(cfg.DataKey) == "" {
		cfg.DataKey = restaurant.DefaultKey
	}
	return &Responder{cfg: cfg, store: st, poster: poster, log: log, pick: newSampler(rng)}
}

// Handle decodes the event and answers it. Validation outcomes travel through
// the callback; the returned Response is 200 unless configuration is missing
// or the payload cannot be decoded at all.
func (r *Responder) Handle(ctx context.Context, ev Event) Response {
	if strings.TrimSpace(r.cfg.BotToken) == "" {
		r.log.Error("slack token not configured")
		return failed(http.StatusInternalServerError, msgNoToken, StateMisconfigured, errMissingConfig)
	}
	p, err := ev.payload()
	if err != nil {
		r.log.Warn("bad slash command payload", logx.Err(err))
		return failed(http.StatusBadRequest, msgBadPayload, StateBadPayload, err)
	}
	return r.HandlePayload(ctx, p)
}

// HandlePayload answers an already decoded slash command.
func (r *Responder) HandlePayload(ctx context.Context, p Payload) Response {
	if strings.TrimSpace(r.cfg.BotToken) == "" {
		r.log.Error("slack token not configured")
		return failed(http.StatusInternalServerError, msgNoToken, StateMisconfigured, errMissingConfig)
	}

	log := r.log.With(
		logx.String("command", p.Command),
		logx.String("text", p.Text),
		logx.String("channel", p.ChannelID),
		logx.String("user", p.UserID),
	)
	log.Debug("slash command received")

	switch {
	case p.Text == "":
		return r.replyText(ctx, log, p, msgEnterDistrict, StateRejected)
	case argCount(p.Text) > 1:
		return r.replyText(ctx, log, p, msgOneParameter, StateRejected)
	case p.Command != r.cfg.Command:
		log.Info("unrecognized command ignored")
		return ok(StateUnknownCommand, nil)
	}

	picked, err := r.choose(ctx, p.Text)
	if err != nil {
		state := StateRejected
		if !errors.Is(err, restaurant.ErrInsufficientRecords) {
			log.Warn("dataset unavailable", logx.Err(err))
			state = StateStorageUnavailable
		}
		resp := r.replyText(ctx, log, p, msgFollowTheRules, state)
		if resp.Err == nil {
			resp.Err = err
		}
		return resp
	}

	msg := buildMessage(personalPretext(p.UserID), picked)
	if err := r.poster.PostCallback(ctx, p.ResponseURL, kit.Callback{Channel: p.ChannelID, Message: &msg}); err != nil {
		log.Error("callback delivery failed", logx.Err(err))
		return ok(StateDeliveryFailed, err)
	}
	log.Info("recommendation sent", logx.Int("fields", len(msg.Fields)))
	return ok(StateDelivered, nil)
}

func (r *Responder) replyText(ctx context.Context, log logx.Logger, p Payload, text string, state State) Response {
	cb := kit.Callback{ResponseType: kit.ResponseTypeInChannel, Channel: p.ChannelID, Text: text}
	if err := r.poster.PostCallback(ctx, p.ResponseURL, cb); err != nil {
		log.Error("callback delivery failed", logx.Err(err))
		return ok(StateDeliveryFailed, err)
	}
	log.Info("rejection sent", logx.String("reply", text), logx.String("state", string(state)))
	return ok(state, nil)
}

func (r *Responder) choose(ctx context.Context, gugun string) ([]restaurant.Record, error) {
	if r.store == nil {
		return nil, storage.ErrClosed
	}
	recs, err := restaurant.Load(ctx, r.store, r.cfg.DataKey)
	if err != nil {
		return nil, err
	}
	return r.pick.pick(restaurant.FilterByDistrict(recs, gugun))
}
