package app

import (
	"strings"
	"time"

	"lunchbot/internal/bot"
	"lunchbot/internal/config"
	"lunchbot/internal/restaurant"
	"lunchbot/internal/server"
	"lunchbot/internal/storage"
	"lunchbot/internal/task/scheduler"
	slackad "lunchbot/internal/transport/slack/adapter"
	"lunchbot/internal/upstream"
	logx "lunchbot/pkg/logx"
)

func mapStorageConfig(cfg *config.Config) (storage.Config, string, error) {
	sc := cfg.Storage
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
	if err != nil {
		return storage.Config{}, "", err
	}
	key := strings.TrimSpace(sc.Key)
	if key == "" {
		key = restaurant.DefaultKey
	}
	return storage.Config{
		Driver:      strings.ToLower(strings.TrimSpace(sc.Driver)),
		Path:        strings.TrimSpace(sc.Path),
		Bucket:      strings.TrimSpace(sc.Bucket),
		Prefix:      strings.TrimSpace(sc.Prefix),
		Region:      strings.TrimSpace(sc.Region),
		BusyTimeout: busy,
	}, key, nil
}

func mapUpstreamConfig(cfg *config.Config) (upstream.Config, error) {
	timeout, err := config.ParseDurationField("upstream.timeout", cfg.Upstream.Timeout)
	if err != nil {
		return upstream.Config{}, err
	}
	return upstream.Config{
		URL:        cfg.Upstream.URL,
		ServiceKey: cfg.Upstream.ServiceKey,
		PageNo:     cfg.Upstream.PageNo,
		NumOfRows:  cfg.Upstream.NumOfRows,
		Timeout:    timeout,
	}, nil
}

func mapSlackConfig(cfg *config.Config) slackad.Config {
	return slackad.Config{
		Token:      cfg.Slack.BotToken,
		APIURL:     cfg.Slack.APIURL,
		RatePerSec: float64(cfg.Slack.RatePerSec),
	}
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Slack: logx.SlackConfig{
			Enabled:    cfg.Logging.Slack.Enabled,
			Channel:    cfg.Logging.Slack.Channel,
			MinLevel:   cfg.Logging.Slack.MinLevel,
			RatePerSec: cfg.Logging.Slack.RatePerSec,
		},
	}
}

func mapBroadcastConfig(cfg *config.Config, key string) bot.BroadcastConfig {
	return bot.BroadcastConfig{ChannelID: cfg.Slack.ChannelID, BotToken: cfg.Slack.BotToken, DataKey: key}
}

func mapRespondConfig(cfg *config.Config, key string) bot.RespondConfig {
	return bot.RespondConfig{BotToken: cfg.Slack.BotToken, Command: cfg.Slack.Command, DataKey: key}
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, time.Duration, error) {
	timeout, err := config.ParseDurationOrDefault("broadcast.timeout", cfg.Broadcast.Timeout, 30*time.Second)
	if err != nil {
		return scheduler.Config{}, 0, err
	}
	return scheduler.Config{Timezone: cfg.Broadcast.Timezone, DefaultTimeout: timeout}, timeout, nil
}

func mapServerConfig(cfg *config.Config) (server.Config, error) {
	ht, err := config.ParseDurationOrDefault("server.handler_timeout", cfg.Server.HandlerTimeout, server.DefaultHandlerTimeout)
	if err != nil {
		return server.Config{}, err
	}
	rt, err := config.ParseDurationField("server.read_timeout", cfg.Server.ReadTimeout)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:           cfg.Server.Addr,
		Path:           cfg.Server.Path,
		SigningSecret:  cfg.Slack.SigningSecret,
		HandlerTimeout: ht,
		ReadTimeout:    rt,
	}, nil
}
