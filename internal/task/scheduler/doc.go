// Package scheduler triggers named jobs on cron or interval schedules.
//
// Each run gets its own timeout, panics are recovered and logged, and a run
// that fires while the previous run of the same job is still going is skipped.
package scheduler
