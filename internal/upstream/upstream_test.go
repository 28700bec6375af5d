package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchbot/internal/restaurant"
	logx "lunchbot/pkg/logx"
)

const sampleBody = `{
  "getFoodKr": {
    "header": {"code": "00", "message": "NORMAL SERVICE."},
    "item": [
      {"UC_SEQ": 70, "MAIN_TITLE": "만드리곤드레밥", "GUGUN_NM": "강서구", "ADDR1": "부산광역시 강서구\t공항앞길 85번길 13", "RPRSNTV_MENU": "돌솥곤드레정식"},
      {"UC_SEQ": 71, "MAIN_TITLE": "민락회센터", "GUGUN_NM": "수영구", "ADDR1": "\t부산광역시 수영구 광안해변로 361\t", "RPRSNTV_MENU": "모둠회"}
    ],
    "numOfRows": 500,
    "pageNo": 1,
    "totalCount": 2
  }
}`

func strp(s string) *string { return &s }

func TestFetchSendsPaginationAndParses(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, ServiceKey: "abc%2Bdef%3D%3D", NumOfRows: 403}, srv.Client(), logx.Nop())
	items, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, []string{"abc+def=="}, gotQuery["serviceKey"], "pre-encoded key must be decoded exactly once")
	assert.Equal(t, []string{"1"}, gotQuery["pageNo"])
	assert.Equal(t, []string{"403"}, gotQuery["numOfRows"])
	assert.Equal(t, []string{"json"}, gotQuery["resultType"])
	assert.Equal(t, "만드리곤드레밥", *items[0].MainTitle)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL}, srv.Client(), logx.Nop()).Fetch(context.Background())
	var hse *HTTPStatusError
	require.True(t, errors.As(err, &hse))
	assert.Equal(t, http.StatusServiceUnavailable, hse.StatusCode)
	assert.Equal(t, "HTTP 503", err.Error())
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
		wantN   int
	}{
		{name: "ok", body: sampleBody, wantN: 2},
		{name: "empty item list", body: `{"getFoodKr":{"item":[]}}`, wantN: 0},
		{name: "missing root", body: `{"response":{}}`, wantErr: "missing getFoodKr"},
		{name: "missing item", body: `{"getFoodKr":{"header":{"code":"00"}}}`, wantErr: "missing getFoodKr.item"},
		{name: "api error", body: `{"getFoodKr":{"header":{"code":"30","message":"SERVICE KEY IS NOT REGISTERED ERROR."}}}`, wantErr: "api error code=30"},
		{name: "not json", body: `<OpenAPI_ServiceResponse>`, wantErr: "upstream decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, _, err := parseEnvelope([]byte(tt.body))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.wantN)
		})
	}
}

func TestNormalize(t *testing.T) {
	items, _, err := parseEnvelope([]byte(sampleBody))
	require.NoError(t, err)

	recs, err := Normalize(items)
	require.NoError(t, err)
	require.Len(t, recs, len(items))

	assert.Equal(t, restaurant.Record{
		Name:  "만드리곤드레밥",
		Gugun: "강서구",
		Addr:  "부산광역시 강서구공항앞길 85번길 13",
		Menu:  "돌솥곤드레정식",
	}, recs[0])
	for _, r := range recs {
		assert.False(t, strings.Contains(r.Addr, "\t"))
	}
}

func TestNormalizeMissingField(t *testing.T) {
	items := []Item{
		{MainTitle: strp("a"), GugunNm: strp("b"), Addr1: strp("c"), RprsntvMenu: strp("d")},
		{MainTitle: strp("a"), GugunNm: strp("b"), RprsntvMenu: strp("d")},
	}
	_, err := Normalize(items)
	var mfe *MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, 2, mfe.Index)
	assert.Equal(t, "ADDR1", mfe.Field)
}

func TestNormalizeKeepsEmptyValues(t *testing.T) {
	recs, err := Normalize([]Item{{MainTitle: strp(""), GugunNm: strp(""), Addr1: strp("\t"), RprsntvMenu: strp("")}})
	require.NoError(t, err)
	assert.Equal(t, []restaurant.Record{{}}, recs)
}

func TestNormalizeNullValue(t *testing.T) {
	body := `{"getFoodKr": {"header": {"code": "00"}, "totalCount": 2, "item": [
		{"MAIN_TITLE": "a", "GUGUN_NM": "중구", "ADDR1": "x", "RPRSNTV_MENU": "국밥"},
		{"MAIN_TITLE": "b", "GUGUN_NM": "중구", "ADDR1": "y", "RPRSNTV_MENU": null}
	]}}`
	items, _, err := parseEnvelope([]byte(body))
	require.NoError(t, err)

	recs, err := Normalize(items)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, restaurant.Record{Name: "b", Gugun: "중구", Addr: "y", Menu: ""}, recs[1])
}

func TestNormalizeAbsentKeyAfterDecode(t *testing.T) {
	body := `{"getFoodKr": {"item": [{"MAIN_TITLE": "a", "GUGUN_NM": "중구", "RPRSNTV_MENU": 7}]}}`
	items, _, err := parseEnvelope([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, items[0].RprsntvMenu)
	assert.Equal(t, "7", *items[0].RprsntvMenu)

	_, err = Normalize(items)
	var mfe *MissingFieldError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, 1, mfe.Index)
	assert.Equal(t, "ADDR1", mfe.Field)
}
