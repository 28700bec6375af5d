package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	logx "lunchbot/pkg/logx"
)

var (
	// ErrUnknownSchedule is returned by RunNow for a name that was never added.
	ErrUnknownSchedule = errors.New("unknown schedule")
	// ErrStopped is returned for runs requested after Stop began.
	ErrStopped = errors.New("scheduler stopped")
)

// AddSchedule parses schedule and registers job under name, replacing any
// schedule with the same name.
//
// Supported schedule formats:
//   - Cron: "0 30 11 * * 1-5", "30 11 * * 1-5", "@daily", "@every 55m"
//   - Interval duration: "55m", "2h30m"
//   - Interval HH:MM: "00:50" (50 minutes), "02:30" (2 hours 30 minutes)
func (s *Service) AddSchedule(name, schedule string, timeout time.Duration, job Job) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name required")
	}
	if job == nil {
		return errors.New("job required")
	}
	ps, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}
	spec := ps.Cron
	if ps.Kind == SpecInterval {
		spec = fmt.Sprintf("@every %s", ps.Every)
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
	s.defs = append(s.defs, scheduleDef{
		name:    name,
		spec:    spec,
		timeout: timeout,
		job:     job,
		running: &atomic.Bool{},
		stats:   &runStats{},
	})
	if s.c == nil {
		return nil
	}
	d := &s.defs[len(s.defs)-1]
	if err := s.addCronLocked(d); err != nil {
		return err
	}
	s.log.Debug("schedule registered",
		logx.String("name", name),
		logx.String("spec", spec),
		logx.Duration("timeout", timeout),
		logx.String("next", s.previewNextRunsLocked(spec, 3)),
	)
	return nil
}

// Remove drops the schedule. It reports whether one existed.
func (s *Service) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(name)
}

func (s *Service) removeLocked(name string) bool {
	for i := range s.defs {
		if s.defs[i].name != name {
			continue
		}
		if s.c != nil && s.defs[i].entryID != 0 {
			s.c.Remove(s.defs[i].entryID)
		}
		s.defs = append(s.defs[:i], s.defs[i+1:]...)
		return true
	}
	return false
}

// RunNow triggers the named job once, synchronously, honoring the overlap rule.
// It reports whether the run happened.
func (s *Service) RunNow(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	var def *scheduleDef
	for i := range s.defs {
		if s.defs[i].name == name {
			d := s.defs[i]
			def = &d
			break
		}
	}
	s.mu.Unlock()
	if def == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownSchedule, name)
	}
	return s.run(ctx, def)
}

func (s *Service) addCronLocked(d *scheduleDef) error {
	def := *d
	base := s.base
	if base == nil {
		base = context.Background()
	}
	id, err := s.c.AddFunc(d.spec, func() {
		_, _ = s.run(base, &def)
	})
	if err != nil {
		return err
	}
	d.entryID = id
	return nil
}

// run executes one invocation: overlap skip, timeout, panic recovery, stats.
func (s *Service) run(ctx context.Context, d *scheduleDef) (ran bool, err error) {
	log := s.log.With(logx.String("schedule", d.name))
	if !d.running.CompareAndSwap(false, true) {
		d.stats.mu.Lock()
		d.stats.skipped++
		d.stats.mu.Unlock()
		log.Warn("previous run still in progress; skipping")
		return false, nil
	}
	defer d.running.Store(false)

	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		log.Debug("run refused; scheduler stopping")
		return false, ErrStopped
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	timeout := d.timeout
	if timeout <= 0 {
		timeout = time.Duration(s.defTimeout.Load())
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Error("job panicked", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
		took := time.Since(start)
		d.stats.mu.Lock()
		d.stats.runs++
		d.stats.lastRun = start
		d.stats.lastTook = took
		d.stats.lastErr = ""
		if err != nil {
			d.stats.failures++
			d.stats.lastErr = err.Error()
		}
		d.stats.mu.Unlock()
		if err != nil {
			log.Warn("job failed", logx.Err(err), logx.Duration("took", took))
			return
		}
		log.Debug("job finished", logx.Duration("took", took))
	}()

	return true, d.job(ctx)
}

// Snapshot reports the registered schedules with their next/previous fire times.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Running: s.c != nil, Timezone: strings.TrimSpace(s.cfg.Timezone)}
	for _, d := range s.defs {
		info := ScheduleInfo{Name: d.name, Spec: d.spec, Timeout: d.timeout}
		if s.c != nil && d.entryID != 0 {
			e := s.c.Entry(d.entryID)
			info.Next, info.Prev = e.Next, e.Prev
		}
		d.stats.mu.Lock()
		info.Runs = d.stats.runs
		info.Skipped = d.stats.skipped
		info.Failures = d.stats.failures
		info.LastErr = d.stats.lastErr
		info.LastTook = d.stats.lastTook
		d.stats.mu.Unlock()
		snap.Schedules = append(snap.Schedules, info)
	}
	return snap
}

// previewNextRunsLocked lists upcoming fire times for debug logs. Call with s.mu held.
func (s *Service) previewNextRunsLocked(spec string, n int) string {
	if !s.log.Enabled(logx.LevelDebug) || n <= 0 {
		return ""
	}
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return ""
	}
	loc := s.loc
	if loc == nil {
		loc = time.Local
	}
	t := time.Now().In(loc)
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		parts = append(parts, t.Format("2006-01-02 15:04:05"))
	}
	return strings.Join(parts, ", ")
}
