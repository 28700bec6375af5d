package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"lunchbot/internal/restaurant"
	"lunchbot/internal/storage"
	kit "lunchbot/internal/transport"
)

type postedMessage struct {
	channel string
	msg     kit.Message
}

type postedCallback struct {
	url string
	cb  kit.Callback
}

// recordingPoster captures every outbound call.
type recordingPoster struct {
	mu        sync.Mutex
	messages  []postedMessage
	texts     []string
	callbacks []postedCallback
	err       error
}

func (p *recordingPoster) PostMessage(_ context.Context, channel string, msg kit.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, postedMessage{channel: channel, msg: msg})
	return p.err
}

func (p *recordingPoster) PostText(_ context.Context, _ string, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
	return p.err
}

func (p *recordingPoster) PostCallback(_ context.Context, u string, cb kit.Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, postedCallback{url: u, cb: cb})
	return p.err
}

func (p *recordingPoster) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages) + len(p.texts) + len(p.callbacks)
}

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unreachable")
}

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("bucket unreachable")
}

func (failingStore) Close() error { return nil }

func seededRand() *rand.Rand { return rand.New(rand.NewSource(42)) }

func fixtureRecords() []restaurant.Record {
	return []restaurant.Record{
		{Name: "해운대 밀면", Gugun: "해운대구", Addr: "해운대로 1", Menu: "밀면"},
		{Name: "광안 횟집", Gugun: "수영구", Addr: "광안해변로 2", Menu: "회"},
		{Name: "서면 돼지국밥", Gugun: "부산진구", Addr: "서면로 3", Menu: "돼지국밥"},
		{Name: "전포 카페", Gugun: "부산진구", Addr: "전포대로 4", Menu: "커피"},
		{Name: "범내골 칼국수", Gugun: "부산진구", Addr: "범내골로 5", Menu: "칼국수"},
		{Name: "개금 밀면", Gugun: "부산진구", Addr: "개금로 6", Menu: "밀면"},
	}
}

func storeWith(t *testing.T, recs []restaurant.Record) storage.Store {
	t.Helper()
	st := storage.NewMemory()
	require.NoError(t, restaurant.Save(context.Background(), st, restaurant.DefaultKey, recs))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// formBody builds a slash command body the way Slack encodes it: spaces in
// text become '+', everything else is percent-encoded.
func formBody(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, k := range []string{"token", "team_id", "channel_id", "user_id", "command", "text", "response_url", "trigger_id"} {
		v, ok := fields[k]
		if !ok {
			continue
		}
		parts = append(parts, k+"="+url.QueryEscape(v))
	}
	return strings.Join(parts, "&")
}

func base64Event(fields map[string]string) Event {
	return Event{Body: base64.StdEncoding.EncodeToString([]byte(formBody(fields))), IsBase64Encoded: true}
}

func commandFields(command, text string) map[string]string {
	return map[string]string{
		"token":        "verification",
		"team_id":      "T1",
		"channel_id":   "C123",
		"user_id":      "U42",
		"command":      command,
		"text":         text,
		"response_url": "https://hooks.slack.test/commands/1",
		"trigger_id":   "trig",
	}
}
