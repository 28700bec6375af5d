package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kit "lunchbot/internal/transport"
	logx "lunchbot/pkg/logx"
)

type captured struct {
	mu     sync.Mutex
	path   string
	form   map[string][]string
	auth   string
	body   []byte
	status int
	reply  string
}

func (c *captured) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			_ = r.ParseForm()
			c.form = r.PostForm
		} else {
			c.body, _ = io.ReadAll(r.Body)
		}
		if c.status != 0 {
			w.WriteHeader(c.status)
		}
		w.Header().Set("Content-Type", "application/json")
		reply := c.reply
		if reply == "" {
			reply = `{"ok":true,"channel":"C123","ts":"1700000000.000100"}`
		}
		_, _ = io.WriteString(w, reply)
	}
}

func sampleMessage() kit.Message {
	return kit.Message{
		Pretext: "안녕하세요! 오늘의 점심 메뉴 추천입니다!",
		Color:   "#0099A6",
		Fields: []kit.Field{
			{Title: "금수복국", Value: "복국\n부산광역시 해운대구 중동1로43번길 23\n"},
		},
	}
}

func TestPostMessageSendsAttachment(t *testing.T) {
	c := &captured{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	a := New(Config{Token: "xoxb-test", APIURL: srv.URL + "/api", RatePerSec: 100}, logx.Nop())
	require.NoError(t, a.PostMessage(context.Background(), "C123", sampleMessage()))

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, "/api/chat.postMessage", c.path)
	assert.Equal(t, []string{"C123"}, c.form["channel"])
	assert.True(t, c.auth == "Bearer xoxb-test" || len(c.form["token"]) == 1, "token must be sent")

	var atts []map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.form["attachments"][0]), &atts))
	require.Len(t, atts, 1)
	assert.Equal(t, "#0099A6", atts[0]["color"])
	assert.Equal(t, "안녕하세요! 오늘의 점심 메뉴 추천입니다!", atts[0]["pretext"])
	fields := atts[0]["fields"].([]any)
	require.Len(t, fields, 1)
	f := fields[0].(map[string]any)
	assert.Equal(t, "금수복국", f["title"])
	assert.Equal(t, false, f["short"])
}

func TestPostMessageSlackError(t *testing.T) {
	c := &captured{reply: `{"ok":false,"error":"channel_not_found"}`}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	a := New(Config{Token: "xoxb-test", APIURL: srv.URL + "/api/", RatePerSec: 100}, logx.Nop())
	err := a.PostMessage(context.Background(), "C404", sampleMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestPostWithoutTokenMakesNoCall(t *testing.T) {
	c := &captured{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	a := New(Config{APIURL: srv.URL + "/api/"}, logx.Nop())
	assert.ErrorIs(t, a.PostText(context.Background(), "C1", "hi"), ErrNoToken)
	assert.Empty(t, c.path)
}

func TestPostCallbackText(t *testing.T) {
	c := &captured{reply: "ok"}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	a := New(Config{RatePerSec: 100}, logx.Nop())
	err := a.PostCallback(context.Background(), srv.URL+"/commands/T1/123", kit.Callback{
		ResponseType: kit.ResponseTypeInChannel,
		Channel:      "C1",
		Text:         "구(군)을 입력해주세요!",
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.body, &got))
	assert.Equal(t, "in_channel", got["response_type"])
	assert.Equal(t, "C1", got["channel"])
	assert.Equal(t, "구(군)을 입력해주세요!", got["text"])
	assert.NotContains(t, got, "attachments")
}

func TestPostCallbackStructured(t *testing.T) {
	c := &captured{reply: "ok"}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	msg := sampleMessage()
	a := New(Config{RatePerSec: 100}, logx.Nop())
	require.NoError(t, a.PostCallback(context.Background(), srv.URL+"/hook", kit.Callback{Channel: "C1", Message: &msg}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.body, &got))
	atts := got["attachments"].([]any)
	require.Len(t, atts, 1)
	assert.Equal(t, "#0099A6", atts[0].(map[string]any)["color"])
	assert.NotContains(t, got, "text")
	assert.NotContains(t, got, "response_type")
}

func TestPostCallbackRejectsEmptyURL(t *testing.T) {
	a := New(Config{}, logx.Nop())
	assert.Error(t, a.PostCallback(context.Background(), "", kit.Callback{Text: "x"}))
}

func TestPostCallbackIsNotRateLimited(t *testing.T) {
	c := &captured{reply: "ok"}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	a := New(Config{}, logx.Nop())
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.PostCallback(context.Background(), srv.URL+"/hook", kit.Callback{Text: "x"}))
		}()
	}
	wg.Wait()
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestPostMessageLimitsPerChannel(t *testing.T) {
	c := &captured{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	a := New(Config{Token: "xoxb-test", APIURL: srv.URL + "/api/"}, logx.Nop())
	assert.Same(t, a.limiterFor("C1"), a.limiterFor("C1"))
	assert.NotSame(t, a.limiterFor("C1"), a.limiterFor("C2"))

	start := time.Now()
	for _, ch := range []string{"C1", "C2", "C3"} {
		require.NoError(t, a.PostText(context.Background(), ch, "hi"))
	}
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}
