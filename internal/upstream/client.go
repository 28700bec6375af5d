// Package upstream talks to the Busan restaurant directory on the public
// open-data portal (apis.data.go.kr, FoodService/getFoodKr).
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logx "lunchbot/pkg/logx"
)

const (
	DefaultURL        = "http://apis.data.go.kr/6260000/FoodService/getFoodKr"
	DefaultNumOfRows  = 500
	defaultTimeout    = 30 * time.Second
	maxResponseBytes  = 32 << 20
	successHeaderCode = "00"
)

type Config struct {
	URL        string
	ServiceKey string
	PageNo     int
	NumOfRows  int
	Timeout    time.Duration
}

// Item is one raw entry of getFoodKr.item. Fields are pointers so a missing
// key can be told apart from an empty value; a key present with null decodes
// to "".
type Item struct {
	MainTitle   *string `json:"MAIN_TITLE"`
	GugunNm     *string `json:"GUGUN_NM"`
	Addr1       *string `json:"ADDR1"`
	RprsntvMenu *string `json:"RPRSNTV_MENU"`
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*it = Item{}
	for key, dst := range map[string]**string{
		"MAIN_TITLE":   &it.MainTitle,
		"GUGUN_NM":     &it.GugunNm,
		"ADDR1":        &it.Addr1,
		"RPRSNTV_MENU": &it.RprsntvMenu,
	} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		s := fieldText(v)
		*dst = &s
	}
	return nil
}

// fieldText renders a present value as text: null is "", strings are
// unquoted, anything else keeps its JSON literal.
func fieldText(v json.RawMessage) string {
	t := bytes.TrimSpace(v)
	if bytes.Equal(t, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(t, &s); err == nil {
		return s
	}
	return string(t)
}

type envelope struct {
	GetFoodKr *struct {
		Header *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"header"`
		Item       *[]Item `json:"item"`
		TotalCount int     `json:"totalCount"`
	} `json:"getFoodKr"`
}

type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger
}

func New(cfg Config, httpClient *http.Client, log logx.Logger) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultURL
	}
	if cfg.PageNo <= 0 {
		cfg.PageNo = 1
	}
	if cfg.NumOfRows <= 0 {
		cfg.NumOfRows = DefaultNumOfRows
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{cfg: cfg, http: httpClient, log: log}
}

// requestURL builds the query. The portal hands out the key both raw and
// percent-encoded; an encoded key is decoded once so it is not encoded twice.
func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("upstream url: %w", err)
	}
	key := strings.TrimSpace(c.cfg.ServiceKey)
	if strings.Contains(key, "%") {
		if dec, err := url.QueryUnescape(key); err == nil {
			key = dec
		}
	}
	q := u.Query()
	q.Set("serviceKey", key)
	q.Set("pageNo", strconv.Itoa(c.cfg.PageNo))
	q.Set("numOfRows", strconv.Itoa(c.cfg.NumOfRows))
	q.Set("resultType", "json")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch performs the single page request and returns the raw items.
func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	raw, err := c.requestURL()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &HTTPStatusError{URL: c.cfg.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("upstream read: %w", err)
	}
	items, total, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}
	c.log.Info("upstream fetched",
		logx.Int("items", len(items)),
		logx.Int("total_count", total),
		logx.Duration("took", time.Since(start)),
	)
	if total > len(items) {
		c.log.Warn("upstream has more rows than requested; raise upstream.num_of_rows",
			logx.Int("total_count", total), logx.Int("num_of_rows", c.cfg.NumOfRows))
	}
	return items, nil
}

func parseEnvelope(body []byte) ([]Item, int, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, 0, fmt.Errorf("upstream decode: %w", err)
	}
	if env.GetFoodKr == nil {
		return nil, 0, errors.New("upstream decode: missing getFoodKr")
	}
	if h := env.GetFoodKr.Header; h != nil && h.Code != "" && h.Code != successHeaderCode {
		return nil, 0, &APIError{Code: h.Code, Message: h.Message}
	}
	if env.GetFoodKr.Item == nil {
		return nil, 0, errors.New("upstream decode: missing getFoodKr.item")
	}
	return *env.GetFoodKr.Item, env.GetFoodKr.TotalCount, nil
}
