package config

import (
	"sort"
	"strings"

	logx "lunchbot/pkg/logx"
)

// SummarizeConfigChange returns the changed section names and log-safe
// fields describing the new values. Tokens, secrets and service keys are
// reported only as "<name>_set" booleans.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	o, n := oldCfg.Slack, newCfg.Slack
	if o.ChannelID != n.ChannelID || o.APIURL != n.APIURL || o.Command != n.Command ||
		o.RatePerSec != n.RatePerSec || o.BotToken != n.BotToken || o.SigningSecret != n.SigningSecret {
		changed = append(changed, "slack")
		attrs = append(attrs,
			logx.String("slack.channel_id", n.ChannelID),
			logx.String("slack.command", n.Command),
			logx.Bool("slack.bot_token_set", isSet(n.BotToken)),
			logx.Bool("slack.signing_secret_set", isSet(n.SigningSecret)),
		)
	}

	if u, v := oldCfg.Upstream, newCfg.Upstream; u != v {
		changed = append(changed, "upstream")
		attrs = append(attrs,
			logx.String("upstream.url", v.URL),
			logx.Int("upstream.num_of_rows", v.NumOfRows),
			logx.Bool("upstream.service_key_set", isSet(v.ServiceKey)),
		)
	}

	if s, t := oldCfg.Storage, newCfg.Storage; s != t {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", t.Driver),
			logx.String("storage.bucket", t.Bucket),
			logx.String("storage.key", t.Key),
		)
	}

	if b, c := oldCfg.Broadcast, newCfg.Broadcast; b != c {
		changed = append(changed, "broadcast")
		attrs = append(attrs,
			logx.Bool("broadcast.enabled", c.Enabled),
			logx.String("broadcast.schedule", c.Schedule),
			logx.String("broadcast.timezone", c.Timezone),
		)
	}

	if oldCfg.Server != newCfg.Server {
		changed = append(changed, "server")
		attrs = append(attrs,
			logx.String("server.addr", newCfg.Server.Addr),
			logx.String("server.path", newCfg.Server.Path),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.slack_enabled", newCfg.Logging.Slack.Enabled),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func isSet(s string) bool { return strings.TrimSpace(s) != "" }
