package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"lunchbot/internal/transport"
)

const (
	slackQueueSize   = 256
	slackPostTimeout = 10 * time.Second
	slackMaxMessage  = 3500
	slackMaxValue    = 600
)

type slackItem struct {
	channel string
	text    string
}

// slackSink is a zerolog LevelWriter that forwards entries to a chat channel
// through a bounded queue. Logging never blocks on the network; entries over
// the queue or the rate limit are dropped.
type slackSink struct {
	mu       sync.Mutex
	sender   transport.Poster
	channel  string
	minLevel zerolog.Level
	limiter  *rate.Limiter

	queue  chan slackItem
	once   sync.Once
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSlackSink(sender transport.Poster) *slackSink {
	return &slackSink{sender: sender, queue: make(chan slackItem, slackQueueSize)}
}

func (k *slackSink) setSender(p transport.Poster) {
	k.mu.Lock()
	k.sender = p
	k.mu.Unlock()
}

// configure applies cfg and starts the worker the first time the sink is enabled.
func (k *slackSink) configure(cfg SlackConfig) {
	rps := max(1, cfg.RatePerSec)
	k.mu.Lock()
	k.channel = strings.TrimSpace(cfg.Channel)
	k.minLevel = parseLevel(cfg.MinLevel, zerolog.WarnLevel)
	k.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	k.mu.Unlock()

	if !cfg.Enabled {
		return
	}
	k.once.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		k.mu.Lock()
		k.cancel = cancel
		k.mu.Unlock()
		k.wg.Add(1)
		go k.run(ctx)
	})
}

func (k *slackSink) stop() {
	k.mu.Lock()
	cancel := k.cancel
	k.cancel = nil
	k.mu.Unlock()
	if cancel != nil {
		cancel()
		k.wg.Wait()
	}
}

func (k *slackSink) run(ctx context.Context) {
	defer k.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-k.queue:
			k.mu.Lock()
			sender := k.sender
			k.mu.Unlock()
			if sender == nil {
				continue
			}
			pctx, cancel := context.WithTimeout(ctx, slackPostTimeout)
			_ = sender.PostText(pctx, it.channel, it.text)
			cancel()
		}
	}
}

func (k *slackSink) Write(p []byte) (int, error) {
	return k.WriteLevel(zerolog.InfoLevel, p)
}

func (k *slackSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	k.mu.Lock()
	channel, sender, lim, minLevel := k.channel, k.sender, k.limiter, k.minLevel
	k.mu.Unlock()

	if channel == "" || sender == nil || lim == nil || level < minLevel || !lim.Allow() {
		return len(p), nil
	}
	text := formatChatJSON(p)
	if text == "" {
		return len(p), nil
	}
	select {
	case k.queue <- slackItem{channel: channel, text: text}:
	default:
	}
	return len(p), nil
}

// formatChatJSON renders one zerolog JSON line as "[LEVEL] message" followed
// by "- key=value" lines in key order.
func formatChatJSON(p []byte) string {
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(p), &entry); err != nil {
		return truncate(strings.TrimSpace(string(p)), slackMaxMessage)
	}

	var b strings.Builder
	if lvl, _ := entry["level"].(string); lvl != "" {
		fmt.Fprintf(&b, "[%s] ", strings.ToUpper(lvl))
	}
	msg, _ := entry["message"].(string)
	b.WriteString(msg)

	keys := make([]string, 0, len(entry))
	for k := range entry {
		if k != "time" && k != "level" && k != "message" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n- %s=%s", k, truncate(fmt.Sprint(entry[k]), slackMaxValue))
	}
	return truncate(b.String(), slackMaxMessage)
}

// truncate shortens s to at most maxN bytes without splitting a UTF-8
// sequence, marking the cut with "..." when there is room for it.
func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	suffix := "..."
	if maxN < 10 {
		suffix = ""
	}
	cut := maxN - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
