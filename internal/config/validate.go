package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // broadcast.timezone must resolve on hosts without zoneinfo

	"lunchbot/internal/task/scheduler"
)

// Validate checks fields that would otherwise only fail at use time.
// Missing credentials are not errors here: the handlers report them per call.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error

	durations := []struct{ path, raw string }{
		{"upstream.timeout", c.Upstream.Timeout},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"broadcast.timeout", c.Broadcast.Timeout},
		{"server.handler_timeout", c.Server.HandlerTimeout},
		{"server.read_timeout", c.Server.ReadTimeout},
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Broadcast.Enabled {
		if _, err := scheduler.ParseSchedule(c.Broadcast.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("broadcast.schedule: %w", err))
		}
	}
	if tz := strings.TrimSpace(c.Broadcast.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("broadcast.timezone: %w", err))
		}
	}

	switch d := strings.ToLower(strings.TrimSpace(c.Storage.Driver)); d {
	case "", "file", "memory", "mem":
	case "sqlite", "sqlite3":
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, errors.New("storage.path required for sqlite"))
		}
	case "gcs", "s3":
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			errs = append(errs, fmt.Errorf("storage.bucket required for %s", d))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}

	if c.Upstream.PageNo < 0 || c.Upstream.NumOfRows < 0 {
		errs = append(errs, errors.New("upstream.page_no and upstream.num_of_rows must be >= 0"))
	}
	if p := strings.TrimSpace(c.Server.Path); p != "" && !strings.HasPrefix(p, "/") {
		errs = append(errs, fmt.Errorf("server.path must start with '/': %q", p))
	}
	if c.Logging.Slack.Enabled && strings.TrimSpace(c.Logging.Slack.Channel) == "" {
		errs = append(errs, errors.New("logging.slack.channel required when logging.slack.enabled"))
	}
	return errors.Join(errs...)
}
