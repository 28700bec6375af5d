package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"lunchbot/internal/config"
	"lunchbot/internal/server"
	"lunchbot/internal/task/scheduler"
	logx "lunchbot/pkg/logx"
)

const (
	broadcastSchedule = "broadcast"
	stopTimeout       = 10 * time.Second
)

// restartSections are config sections whose changes only take effect on restart.
var restartSections = map[string]bool{"slack": true, "storage": true, "server": true, "upstream": true}

// Serve runs the HTTP responder, the broadcast schedule and the config
// watcher until ctx is canceled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config()
	srvCfg, err := mapServerConfig(cfg)
	if err != nil {
		return err
	}
	schedCfg, _, err := mapSchedulerConfig(cfg)
	if err != nil {
		return err
	}

	sched := scheduler.New(schedCfg, a.log.With(logx.String("comp", "scheduler")))
	if err := a.syncBroadcastSchedule(sched, cfg); err != nil {
		return err
	}
	srv := server.New(srvCfg, a.responder, a.log.With(logx.String("comp", "http")))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { return a.cfgm.Watch(gctx) })

	sub := a.cfgm.Subscribe(1)
	g.Go(func() error {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-gctx.Done():
				return nil
			case next, ok := <-sub:
				if !ok {
					return nil
				}
				a.applyConfig(sched, next)
			}
		}
	})

	sched.Start(gctx)
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		sched.Stop(sctx)
		return nil
	})

	notify(a.log, daemon.SdNotifyReady)
	a.log.Info("lunchbot serving",
		logx.String("addr", srvCfg.Addr),
		logx.Bool("broadcast", cfg.Broadcast.Enabled),
		logx.String("schedule", cfg.Broadcast.Schedule),
	)

	err = g.Wait()
	notify(a.log, daemon.SdNotifyStopping)
	return err
}

// scheduledBroadcast adapts the broadcaster to a scheduler job.
func (a *App) scheduledBroadcast(ctx context.Context) error {
	resp := a.Broadcast(ctx)
	if resp.Status != http.StatusOK {
		return fmt.Errorf("broadcast: %s (%d)", resp.State, resp.Status)
	}
	return resp.Err
}

func (a *App) syncBroadcastSchedule(sched *scheduler.Service, cfg *config.Config) error {
	if !cfg.Broadcast.Enabled {
		sched.Remove(broadcastSchedule)
		return nil
	}
	_, timeout, err := mapSchedulerConfig(cfg)
	if err != nil {
		return err
	}
	return sched.AddSchedule(broadcastSchedule, cfg.Broadcast.Schedule, timeout, a.scheduledBroadcast)
}

func (a *App) applyConfig(sched *scheduler.Service, next *config.Config) {
	prev := a.Config()
	changed, attrs := config.SummarizeConfigChange(prev, next)
	if len(changed) == 0 {
		return
	}
	a.log.Info("config change", append([]logx.Field{logx.Any("sections", changed)}, attrs...)...)

	for _, section := range changed {
		switch section {
		case "logging":
			a.logs.Apply(mapLoggingConfig(next))
		case "broadcast":
			if sc, _, err := mapSchedulerConfig(next); err == nil {
				sched.Apply(sc)
			}
			if err := a.syncBroadcastSchedule(sched, next); err != nil {
				a.log.Error("broadcast schedule not updated", logx.Err(err))
			}
		default:
			if restartSections[section] {
				a.log.Warn("config section changed; restart to apply", logx.String("section", section))
			}
		}
	}
	a.mu.Lock()
	a.cfg = next
	a.mu.Unlock()
}

func notify(log logx.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warn("systemd notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		log.Debug("systemd notified", logx.String("state", state))
	}
}
