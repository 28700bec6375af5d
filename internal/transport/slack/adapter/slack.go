package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	kit "lunchbot/internal/transport"
	logx "lunchbot/pkg/logx"
)

var ErrNoToken = errors.New("slack bot token is empty")

type Config struct {
	Token string
	// APIURL overrides the Web API base (default https://slack.com/api/).
	APIURL string
	// RatePerSec bounds chat.postMessage per channel; Slack allows about one
	// message per second per channel. response_url callbacks are not limited.
	RatePerSec float64
	Timeout    time.Duration
}

// Adapter implements kit.Poster on top of the Slack Web API and response_url webhooks.
type Adapter struct {
	cfg  Config
	log  logx.Logger
	api  *slack.Client
	http *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ kit.Poster = (*Adapter)(nil)

func New(cfg Config, log logx.Logger) *Adapter {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	hc := &http.Client{Timeout: cfg.Timeout}

	opts := []slack.Option{slack.OptionHTTPClient(hc)}
	if u := strings.TrimSpace(cfg.APIURL); u != "" {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		opts = append(opts, slack.OptionAPIURL(u))
	}

	return &Adapter{
		cfg:      cfg,
		log:      log,
		api:      slack.New(strings.TrimSpace(cfg.Token), opts...),
		http:     hc,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the token bucket of one channel.
func (a *Adapter) limiterFor(channel string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	lim, ok := a.limiters[channel]
	if !ok {
		burst := max(1, int(a.cfg.RatePerSec))
		lim = rate.NewLimiter(rate.Limit(a.cfg.RatePerSec), burst)
		a.limiters[channel] = lim
	}
	return lim
}

// SetLogger replaces the logger. Call before the adapter is shared.
func (a *Adapter) SetLogger(log logx.Logger) {
	if !log.IsZero() {
		a.log = log
	}
}

func toAttachment(m kit.Message) slack.Attachment {
	fields := make([]slack.AttachmentField, 0, len(m.Fields))
	for _, f := range m.Fields {
		fields = append(fields, slack.AttachmentField{Title: f.Title, Value: f.Value, Short: f.Short})
	}
	return slack.Attachment{Pretext: m.Pretext, Color: m.Color, Fields: fields}
}

func (a *Adapter) post(ctx context.Context, channel string, opts ...slack.MsgOption) error {
	if strings.TrimSpace(a.cfg.Token) == "" {
		return ErrNoToken
	}
	if err := a.limiterFor(channel).Wait(ctx); err != nil {
		return err
	}
	ch, ts, err := a.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	a.log.Debug("message posted", logx.String("channel", ch), logx.String("ts", ts))
	return nil
}

func (a *Adapter) PostMessage(ctx context.Context, channel string, msg kit.Message) error {
	return a.post(ctx, channel, slack.MsgOptionAttachments(toAttachment(msg)))
}

func (a *Adapter) PostText(ctx context.Context, channel string, text string) error {
	return a.post(ctx, channel, slack.MsgOptionText(text, false))
}

// PostCallback answers a slash command through its response_url. Each URL
// belongs to one request, so callbacks skip the channel limiters.
func (a *Adapter) PostCallback(ctx context.Context, url string, cb kit.Callback) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("response_url is empty")
	}

	var wm slack.WebhookMessage
	if cb.Message != nil {
		wm.Attachments = []slack.Attachment{toAttachment(*cb.Message)}
	} else {
		wm.ResponseType = cb.ResponseType
		wm.Channel = cb.Channel
		wm.Text = cb.Text
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, url, a.http, &wm); err != nil {
		return fmt.Errorf("response_url: %w", err)
	}
	a.log.Debug("callback posted", logx.Bool("structured", cb.Message != nil))
	return nil
}
