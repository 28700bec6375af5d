// Command lunchbot recommends lunch spots from the Busan restaurant directory on Slack.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"lunchbot/internal/app"
	"lunchbot/internal/config"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "lunchbot",
	Short: "Slack lunch recommendations from the Busan restaurant directory",
	Long: `lunchbot keeps a snapshot of the Busan restaurant directory in a blob store
and recommends three random restaurants on Slack.

Modes:
  ingest     refresh the snapshot from the open-data API
  broadcast  post a recommendation to the configured channel
  respond    answer one slash command event
  serve      run the slash command endpoint and the broadcast schedule`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (.json, .yaml); empty uses defaults + environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.AddCommand(ingestCmd, broadcastCmd, respondCmd, serveCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

// newManager builds the config manager, layering --log-level over the environment.
func newManager() *config.Manager {
	m := config.NewManager(cfgPath)
	if lvl := strings.TrimSpace(logLevel); lvl != "" {
		m.SetEnv(func(k string) (string, bool) {
			if k == config.EnvLogLevel {
				return lvl, true
			}
			return os.LookupEnv(k)
		})
	}
	return m
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), newManager(), app.Deps{})
}
