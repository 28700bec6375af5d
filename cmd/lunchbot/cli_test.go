package main

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchbot/internal/bot"
)

func TestPrintResponse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResponse(&buf, bot.Response{Status: http.StatusOK, Body: "Command processed", State: bot.StateDelivered}))
	assert.Equal(t, "200 Command processed (delivered)\n", buf.String())

	buf.Reset()
	err := printResponse(&buf, bot.Response{Status: http.StatusInternalServerError, Body: "토큰이 없습니다.", State: bot.StateMisconfigured})
	assert.EqualError(t, err, "handler returned 500")
	assert.Equal(t, "500 토큰이 없습니다. (misconfigured)\n", buf.String())
}

func TestRespondRequiresBody(t *testing.T) {
	rootCmd.SetArgs([]string{"respond"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil); respondBody = "" })

	err := rootCmd.Execute()
	assert.EqualError(t, err, "--body is required")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "broadcast", "respond", "serve"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}
