package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchbot/internal/transport"
)

type textRecorder struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (r *textRecorder) PostMessage(context.Context, string, transport.Message) error { return nil }
func (r *textRecorder) PostCallback(context.Context, string, transport.Callback) error {
	return nil
}

func (r *textRecorder) PostText(_ context.Context, channel, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[string][]string{}
	}
	r.sent[channel] = append(r.sent[channel], text)
	return nil
}

func (r *textRecorder) texts(channel string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent[channel]...)
}

func TestFormatChatJSON(t *testing.T) {
	line := []byte(`{"level":"warn","time":"x","message":"delivery failed","comp":"broadcast","err":"boom"}` + "\n")
	got := formatChatJSON(line)
	assert.Equal(t, "[WARN] delivery failed\n- comp=broadcast\n- err=boom", got)

	assert.Equal(t, "not json", formatChatJSON([]byte("  not json \n")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abcde", truncate("abcdefghijklmnop", 5))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, parseLevel("debug", LevelInfo))
	assert.Equal(t, LevelWarn, parseLevel(" Warning ", LevelInfo))
	assert.Equal(t, LevelInfo, parseLevel("bogus", LevelInfo))
}

func TestWriterLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "test"))
	log.Info("hello", Int("n", 3))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "hello", m["message"])
	assert.Equal(t, "test", m["comp"])
	assert.EqualValues(t, 3, m["n"])
	assert.True(t, strings.HasPrefix(m["caller"].(string), "logging_test.go:"))
}

func TestNopAndZeroLogger(t *testing.T) {
	var zero Logger
	assert.True(t, zero.IsZero())
	zero.Info("ignored")

	nop := Nop()
	assert.False(t, nop.IsZero())
	nop.Error("ignored", Err(nil))
}

func TestServiceSlackSink(t *testing.T) {
	rec := &textRecorder{}
	svc, log := New(Config{
		Level: "debug",
		Slack: SlackConfig{Enabled: true, Channel: "C-LOG", MinLevel: "warn", RatePerSec: 10},
	}, rec)
	t.Cleanup(func() { _ = svc.Close() })

	log.Info("below threshold")
	log.Warn("storage unavailable", String("comp", "broadcast"))

	require.Eventually(t, func() bool { return len(rec.texts("C-LOG")) == 1 }, 2*time.Second, 10*time.Millisecond)
	got := rec.texts("C-LOG")[0]
	assert.Contains(t, got, "[WARN] storage unavailable")
	assert.Contains(t, got, "comp=broadcast")
}

func TestServiceApplyDisablesSlack(t *testing.T) {
	rec := &textRecorder{}
	svc, log := New(Config{Level: "info"}, rec)
	t.Cleanup(func() { _ = svc.Close() })

	log.Error("nobody listens")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.texts(""))
	assert.True(t, log.Enabled(LevelInfo))
	assert.False(t, log.Enabled(LevelDebug))

	svc.Apply(Config{Level: "debug"})
	assert.True(t, log.Enabled(LevelDebug))
}
