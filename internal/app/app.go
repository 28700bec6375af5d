// Package app wires configuration, logging, storage, the Slack adapter and
// the handlers into the runnable lunchbot modes.
package app

import (
	"context"
	"math/rand"
	"net/http"
	"sync"

	"lunchbot/internal/bot"
	"lunchbot/internal/config"
	"lunchbot/internal/ingest"
	"lunchbot/internal/storage"
	kit "lunchbot/internal/transport"
	slackad "lunchbot/internal/transport/slack/adapter"
	"lunchbot/internal/upstream"
	logx "lunchbot/pkg/logx"
)

// Deps overrides collaborators normally built from config. Zero fields are built.
type Deps struct {
	Poster     kit.Poster
	Store      storage.Store
	HTTPClient *http.Client
	Rand       *rand.Rand
}

type App struct {
	cfgm *config.Manager

	mu  sync.RWMutex
	cfg *config.Config

	log  logx.Logger
	logs *logx.Service

	poster  kit.Poster
	store   storage.Store
	dataKey string
	fetcher *upstream.Client

	broadcaster *bot.Broadcaster
	responder   *bot.Responder
}

// New loads the config through cfgm and builds every component.
func New(ctx context.Context, cfgm *config.Manager, deps Deps) (*App, error) {
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	poster := deps.Poster
	var slackPoster *slackad.Adapter
	if poster == nil {
		bootLog := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "slack"))
		slackPoster = slackad.New(mapSlackConfig(cfg), bootLog)
		poster = slackPoster
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg), poster)
	if slackPoster != nil {
		slackPoster.SetLogger(log.With(logx.String("comp", "slack")))
	}
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	sc, key, err := mapStorageConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	store := deps.Store
	if store == nil {
		store, err = storage.Open(ctx, sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		log.Debug("storage opened", logx.String("driver", sc.Driver), logx.String("key", key))
	}

	uc, err := mapUpstreamConfig(cfg)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	// Each handler owns its generator; a shared *rand.Rand is not safe across them.
	var respRand *rand.Rand
	if deps.Rand != nil {
		respRand = rand.New(rand.NewSource(deps.Rand.Int63()))
	}
	return &App{
		cfgm:    cfgm,
		cfg:     cfg,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		poster:  poster,
		store:   store,
		dataKey: key,
		fetcher: upstream.New(uc, deps.HTTPClient, log.With(logx.String("comp", "upstream"))),
		broadcaster: bot.NewBroadcaster(mapBroadcastConfig(cfg, key), store, poster,
			log.With(logx.String("comp", "broadcast")), deps.Rand),
		responder: bot.NewResponder(mapRespondConfig(cfg, key), store, poster,
			log.With(logx.String("comp", "respond")), respRand),
	}, nil
}

func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

func (a *App) Logger() logx.Logger { return a.log }

// Ingest refreshes the dataset from the upstream directory.
func (a *App) Ingest(ctx context.Context) (ingest.Result, error) {
	return ingest.Run(ctx, a.fetcher, a.store, a.dataKey, a.log.With(logx.String("comp", "ingest")))
}

// Broadcast posts one recommendation to the configured channel.
func (a *App) Broadcast(ctx context.Context) bot.Response {
	return a.broadcaster.Run(ctx)
}

// Respond answers one slash command event.
func (a *App) Respond(ctx context.Context, ev bot.Event) bot.Response {
	return a.responder.Handle(ctx, ev)
}

// Close releases the store and flushes the log sinks.
func (a *App) Close() error {
	err := a.store.Close()
	if cerr := a.logs.Close(); err == nil {
		err = cerr
	}
	return err
}
