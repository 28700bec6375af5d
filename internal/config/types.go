package config

import "strings"

type Config struct {
	Slack     SlackConfig     `json:"slack"`
	Upstream  UpstreamConfig  `json:"upstream"`
	Storage   StorageConfig   `json:"storage"`
	Broadcast BroadcastConfig `json:"broadcast"`
	Server    ServerConfig    `json:"server"`
	Logging   LoggingConfig   `json:"logging"`
}

// SlackConfig holds the bot credential and channel.
//
// BotToken and SigningSecret are secrets: never log them.
type SlackConfig struct {
	BotToken      string `json:"bot_token"`
	ChannelID     string `json:"channel_id"`
	SigningSecret string `json:"signing_secret,omitempty"`
	// APIURL overrides https://slack.com/api/ (tests, proxies).
	APIURL string `json:"api_url,omitempty"`
	// Command is the slash command the responder answers (default "/맛집추천").
	Command    string `json:"command,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// UpstreamConfig points at the open-data restaurant directory.
//
// Timeout is a Go duration string (default "30s").
type UpstreamConfig struct {
	URL        string `json:"url,omitempty"`
	ServiceKey string `json:"service_key"`
	PageNo     int    `json:"page_no,omitempty"`
	NumOfRows  int    `json:"num_of_rows,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
}

// StorageConfig selects the blob store holding the dataset.
//
// Example:
//
//	"storage": { "driver": "s3", "bucket": "lunch-data", "region": "ap-northeast-2" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Bucket      string `json:"bucket,omitempty"`
	Path        string `json:"path,omitempty"`
	Key         string `json:"key,omitempty"` // default "data.json"
	Region      string `json:"region,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// BroadcastConfig controls the scheduled channel broadcast in serve mode.
type BroadcastConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"` // default "0 30 11 * * 1-5"
	Timezone string `json:"timezone,omitempty"` // default "Asia/Seoul"
	Timeout  string `json:"timeout,omitempty"`  // per run, default "30s"
}

type ServerConfig struct {
	Addr           string `json:"addr,omitempty"` // default ":8080"
	Path           string `json:"path,omitempty"` // default "/slack/command"
	HandlerTimeout string `json:"handler_timeout,omitempty"`
	ReadTimeout    string `json:"read_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string       `json:"level"`
	Console bool         `json:"console"`
	File    LoggingFile  `json:"file"`
	Slack   LoggingSlack `json:"slack"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingSlack mirrors warn/error logs into a Slack channel.
type LoggingSlack struct {
	Enabled    bool   `json:"enabled"`
	Channel    string `json:"channel"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

const (
	DefaultSchedule       = "0 30 11 * * 1-5"
	DefaultTimezone       = "Asia/Seoul"
	DefaultServerAddr     = ":8080"
	DefaultServerPath     = "/slack/command"
	DefaultHandlerTimeout = "10s"
	DefaultBroadcastLimit = "30s"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Driver: "file", Path: "./data"},
		Broadcast: BroadcastConfig{
			Enabled:  true,
			Schedule: DefaultSchedule,
			Timezone: DefaultTimezone,
			Timeout:  DefaultBroadcastLimit,
		},
		Server: ServerConfig{
			Addr:           DefaultServerAddr,
			Path:           DefaultServerPath,
			HandlerTimeout: DefaultHandlerTimeout,
		},
		Logging: LoggingConfig{Level: "info", Console: true},
	}
}

// applyDefaults fills zero fields that have a documented default.
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Storage.Driver) == "" {
		c.Storage.Driver = "file"
	}
	if strings.TrimSpace(c.Broadcast.Schedule) == "" {
		c.Broadcast.Schedule = DefaultSchedule
	}
	if strings.TrimSpace(c.Broadcast.Timezone) == "" {
		c.Broadcast.Timezone = DefaultTimezone
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if strings.TrimSpace(c.Server.Path) == "" {
		c.Server.Path = DefaultServerPath
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
}
