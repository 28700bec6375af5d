// Package logx is lunchbot's structured logging layer on top of zerolog.
//
// A Service owns the sinks (console, JSON file, optional Slack channel) and
// can be reconfigured at runtime; Loggers derived from it follow the change.
package logx
