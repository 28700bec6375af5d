package config

import (
	"os"
	"strings"
)

// Environment variables read after the file. A non-empty value wins over the
// file; the first four match the legacy deployment's variable names.
const (
	EnvBotToken      = "BOT_TOKEN"
	EnvChannelID     = "CHANNEL_ID"
	EnvBucketName    = "BUCKET_NAME"
	EnvServiceKey    = "SERVICE_KEY"
	EnvSigningSecret = "SLACK_SIGNING_SECRET"
	EnvLogLevel      = "LUNCHBOT_LOG_LEVEL"
)

// ApplyEnv overlays environment overrides using lookup (os.LookupEnv when nil).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Slack.BotToken, EnvBotToken)
	set(&c.Slack.ChannelID, EnvChannelID)
	set(&c.Slack.SigningSecret, EnvSigningSecret)
	set(&c.Upstream.ServiceKey, EnvServiceKey)
	set(&c.Logging.Level, EnvLogLevel)
	if v, ok := lookup(EnvBucketName); ok && strings.TrimSpace(v) != "" {
		c.Storage.Bucket = strings.TrimSpace(v)
		// A bucket name alone means the legacy S3 deployment.
		if d := strings.ToLower(strings.TrimSpace(c.Storage.Driver)); d == "" || d == "file" {
			c.Storage.Driver = "s3"
		}
	}
}
