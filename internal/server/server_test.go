package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lunchbot/internal/bot"
	logx "lunchbot/pkg/logx"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingHandler struct {
	mu       sync.Mutex
	events   []bot.Event
	deadline bool
	resp     bot.Response
}

func (h *recordingHandler) Handle(ctx context.Context, ev bot.Event) bot.Response {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	_, h.deadline = ctx.Deadline()
	return h.resp
}

const formBody = "command=%2Flunch&text=%EB%B6%80%EC%82%B0%EC%A7%84%EA%B5%AC&response_url=https%3A%2F%2Fhooks.test&channel_id=C1&user_id=U1"

func sign(secret, ts, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte("v0:" + ts + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestCommandPassesRawBody(t *testing.T) {
	h := &recordingHandler{resp: bot.Response{Status: http.StatusOK, Body: "Command processed", State: bot.StateDelivered}}
	srv := httptest.NewServer(New(Config{}, h, logx.Nop()).Handler())
	defer srv.Close()

	res, err := http.Post(srv.URL+DefaultPath, "application/x-www-form-urlencoded", strings.NewReader(formBody))
	require.NoError(t, err)
	defer res.Body.Close()
	got, _ := io.ReadAll(res.Body)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Command processed", string(got))
	assert.NotEmpty(t, res.Header.Get("X-Request-Id"))

	require.Len(t, h.events, 1)
	assert.Equal(t, formBody, h.events[0].Body)
	assert.False(t, h.events[0].IsBase64Encoded)
	assert.True(t, h.deadline)
}

func TestCommandMapsResponseStatus(t *testing.T) {
	h := &recordingHandler{resp: bot.Response{Status: http.StatusInternalServerError, Body: "토큰이 없습니다.", State: bot.StateMisconfigured}}
	srv := httptest.NewServer(New(Config{Path: "/cmd"}, h, logx.Nop()).Handler())
	defer srv.Close()

	res, err := http.Post(srv.URL+"/cmd", "application/x-www-form-urlencoded", strings.NewReader(formBody))
	require.NoError(t, err)
	defer res.Body.Close()
	got, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "토큰이 없습니다.", string(got))
}

func TestCommandSignatureVerification(t *testing.T) {
	const secret = "8f742231b10e8888abcd99yyyzzz85a5"
	h := &recordingHandler{resp: bot.Response{Status: http.StatusOK, Body: "Command processed"}}
	srv := httptest.NewServer(New(Config{SigningSecret: secret}, h, logx.Nop()).Handler())
	defer srv.Close()

	post := func(ts, sig string) int {
		req, err := http.NewRequest(http.MethodPost, srv.URL+DefaultPath, strings.NewReader(formBody))
		require.NoError(t, err)
		req.Header.Set("X-Slack-Request-Timestamp", ts)
		req.Header.Set("X-Slack-Signature", sig)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = res.Body.Close()
		return res.StatusCode
	}

	now := strconv.FormatInt(time.Now().Unix(), 10)
	assert.Equal(t, http.StatusOK, post(now, sign(secret, now, formBody)))
	assert.Equal(t, http.StatusUnauthorized, post(now, sign("wrong", now, formBody)))

	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	assert.Equal(t, http.StatusUnauthorized, post(stale, sign(secret, stale, formBody)))

	assert.Len(t, h.events, 1)
}

func TestHealthzAndMethods(t *testing.T) {
	srv := httptest.NewServer(New(Config{}, &recordingHandler{}, logx.Nop()).Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", string(body))

	res, err = http.Get(srv.URL + DefaultPath)
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(Config{}, &recordingHandler{}, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		res, err := client.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
