package bot

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/slack-go/slack"
)

// Payload is a decoded slash command invocation.
type Payload = slack.SlashCommand

// Event is one inbound webhook invocation. Body is base64 when IsBase64Encoded is set.
type Event struct {
	Body            string
	IsBase64Encoded bool
}

var requiredFields = []string{"command", "text", "response_url", "channel_id", "user_id"}

// DecodeBody decodes a base64-encoded, form-encoded slash command body.
func DecodeBody(body string) (Payload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimSpace(body))
		if err != nil {
			return Payload{}, fmt.Errorf("decode base64 body: %w", err)
		}
	}
	return DecodeForm(string(raw))
}

// DecodeForm parses key=value pairs joined by '&'. Keys and values are
// percent-decoded individually; '+' is kept literally, which is how the
// responder later counts space-separated arguments. Malformed escapes are
// kept as written.
func DecodeForm(raw string) (Payload, error) {
	fields := make(map[string]string, 16)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		fields[unescape(k)] = unescape(v)
	}
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return Payload{}, fmt.Errorf("payload missing field %q", name)
		}
	}

	install, _ := strconv.ParseBool(fields["is_enterprise_install"])
	return Payload{
		Token:               fields["token"],
		TeamID:              fields["team_id"],
		TeamDomain:          fields["team_domain"],
		EnterpriseID:        fields["enterprise_id"],
		EnterpriseName:      fields["enterprise_name"],
		IsEnterpriseInstall: install,
		ChannelID:           fields["channel_id"],
		ChannelName:         fields["channel_name"],
		UserID:              fields["user_id"],
		UserName:            fields["user_name"],
		Command:             fields["command"],
		Text:                fields["text"],
		ResponseURL:         fields["response_url"],
		TriggerID:           fields["trigger_id"],
		APIAppID:            fields["api_app_id"],
	}, nil
}

func (e Event) payload() (Payload, error) {
	if e.IsBase64Encoded {
		return DecodeBody(e.Body)
	}
	return DecodeForm(e.Body)
}

// argCount counts arguments the way the legacy handler did: Slack sends
// spaces as '+', so the number of '+'-separated parts is the argument count.
func argCount(text string) int {
	return len(strings.Split(text, "+"))
}

// unescape decodes %XX sequences and leaves any '%' not followed by two hex
// digits untouched.
func unescape(s string) string {
	if dec, err := url.PathUnescape(s); err == nil {
		return dec
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	}
	return c - '0'
}
