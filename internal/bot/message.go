package bot

import (
	"fmt"

	"lunchbot/internal/restaurant"
	kit "lunchbot/internal/transport"
)

const (
	accentColor       = "#0099A6"
	broadcastPretext  = "안녕하세요! 오늘의 점심 메뉴 추천입니다!"
	msgNoToken        = "토큰이 없습니다."
	msgMisconfigured  = "Slack 토큰 또는 채널 ID가 설정되지 않았습니다."
	msgEnterDistrict  = "구(군)을 입력해주세요!"
	msgOneParameter   = "하나의 파라미터만 입력해주세요!"
	msgFollowTheRules = "파라미터 입력 규칙을 준수해주세요!"
	msgBadPayload     = "잘못된 요청입니다."
)

// DefaultCommand is the slash command the responder answers to.
const DefaultCommand = "/맛집추천"

func personalPretext(userID string) string {
	return fmt.Sprintf("안녕하세요, <@%s>님! 오늘의 메뉴 추천입니다!", userID)
}

// buildMessage renders one field per record: NAME as title, MENU and ADDR as the value.
func buildMessage(pretext string, recs []restaurant.Record) kit.Message {
	fields := make([]kit.Field, 0, len(recs))
	for _, r := range recs {
		fields = append(fields, kit.Field{
			Title: r.Name,
			Value: fmt.Sprintf("%s\n%s\n", r.Menu, r.Addr),
			Short: false,
		})
	}
	return kit.Message{Pretext: pretext, Color: accentColor, Fields: fields}
}
