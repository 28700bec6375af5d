package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lunchbot/internal/bot"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch the restaurant directory and replace the stored snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Ingest(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s in %s\n", res.Count, res.Key, res.Took.Round(time.Millisecond))
		return nil
	},
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Post three random restaurants to the configured channel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return printResponse(cmd.OutOrStdout(), a.Broadcast(cmd.Context()))
	},
}

var (
	respondBody string
	respondRaw  bool
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Answer one slash command event",
	Long: `Answer one slash command event and print the handler's status and body.

The body is the base64-encoded form payload, as delivered by the function
gateway. Use --raw for an undecoded form body, and "-" to read it from stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		body := respondBody
		if body == "-" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			body = strings.TrimSpace(string(b))
		}
		if body == "" {
			return fmt.Errorf("--body is required")
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		resp := a.Respond(cmd.Context(), bot.Event{Body: body, IsBase64Encoded: !respondRaw})
		return printResponse(cmd.OutOrStdout(), resp)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the slash command endpoint and run the broadcast schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Serve(cmd.Context())
	},
}

func init() {
	respondCmd.Flags().StringVar(&respondBody, "body", "", `event body (base64 unless --raw; "-" reads stdin)`)
	respondCmd.Flags().BoolVar(&respondRaw, "raw", false, "body is an undecoded form payload")
}

// printResponse writes "<status> <body> (<state>)" and fails on a non-200 status.
func printResponse(w io.Writer, resp bot.Response) error {
	fmt.Fprintf(w, "%d %s (%s)\n", resp.Status, resp.Body, resp.State)
	if resp.Status != http.StatusOK {
		return fmt.Errorf("handler returned %d", resp.Status)
	}
	return nil
}
