package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	logx "lunchbot/pkg/logx"
)

// Config controls the trigger service.
type Config struct {
	// Timezone is an IANA name, e.g. "Asia/Seoul". Empty means time.Local.
	Timezone string
	// DefaultTimeout bounds runs registered with a zero timeout. 0 disables it.
	DefaultTimeout time.Duration
}

// Job is one scheduled unit of work. The context carries the run timeout.
type Job func(ctx context.Context) error

type scheduleDef struct {
	name    string
	spec    string // normalized cron spec or "@every <d>"
	timeout time.Duration
	job     Job
	entryID cron.EntryID
	running *atomic.Bool
	stats   *runStats
}

type runStats struct {
	mu       sync.Mutex
	runs     uint64
	skipped  uint64
	failures uint64
	lastErr  string
	lastRun  time.Time
	lastTook time.Duration
}

type Service struct {
	mu sync.Mutex

	log        logx.Logger
	cfg        Config
	loc        *time.Location
	defTimeout atomic.Int64 // read by runs without taking mu

	parser cron.Parser
	c      *cron.Cron
	defs   []scheduleDef

	// base is canceled by Stop so in-flight runs see shutdown.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	// stopping is set by Stop under mu; no run joins wg after that.
	stopping bool
}

// ScheduleInfo describes one registered schedule.
type ScheduleInfo struct {
	Name     string
	Spec     string
	Timeout  time.Duration
	Next     time.Time
	Prev     time.Time
	Runs     uint64
	Skipped  uint64
	Failures uint64
	LastErr  string
	LastTook time.Duration
}

type Snapshot struct {
	Running   bool
	Timezone  string
	Schedules []ScheduleInfo
}
