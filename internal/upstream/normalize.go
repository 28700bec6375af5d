package upstream

import (
	"strings"

	"lunchbot/internal/restaurant"
)

// Normalize maps raw items onto records in order: MAIN_TITLE->NAME,
// GUGUN_NM->GUGUN, ADDR1->ADDR (tabs removed), RPRSNTV_MENU->MENU.
// A missing field fails the whole batch.
func Normalize(items []Item) ([]restaurant.Record, error) {
	out := make([]restaurant.Record, 0, len(items))
	for i, it := range items {
		idx := i + 1
		switch {
		case it.MainTitle == nil:
			return nil, &MissingFieldError{Index: idx, Field: "MAIN_TITLE"}
		case it.GugunNm == nil:
			return nil, &MissingFieldError{Index: idx, Field: "GUGUN_NM"}
		case it.Addr1 == nil:
			return nil, &MissingFieldError{Index: idx, Field: "ADDR1"}
		case it.RprsntvMenu == nil:
			return nil, &MissingFieldError{Index: idx, Field: "RPRSNTV_MENU"}
		}
		out = append(out, restaurant.Record{
			Name:  *it.MainTitle,
			Gugun: *it.GugunNm,
			Addr:  strings.ReplaceAll(*it.Addr1, "\t", ""),
			Menu:  *it.RprsntvMenu,
		})
	}
	return out, nil
}
