// Package config loads the lunchbot configuration from JSON or YAML,
// overlays environment variables and watches the file in serve mode.
package config
