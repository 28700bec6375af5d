// Package restaurant holds the normalized restaurant record set shared by the
// ingestor, the broadcaster and the slash command responder.
package restaurant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DefaultKey is the blob key the dataset is stored under.
const DefaultKey = "data.json"

// Record is one restaurant entry.
type Record struct {
	Name  string `json:"NAME"`
	Gugun string `json:"GUGUN"`
	Addr  string `json:"ADDR"`
	Menu  string `json:"MENU"`
}

// Decode parses a JSON array of records.
func Decode(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return recs, nil
}

// Encode writes recs as an indented JSON array. Non-ASCII text is written
// literally and HTML characters are left unescaped.
func Encode(w io.Writer, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

func marshal(recs []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, recs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FilterByDistrict returns the records whose GUGUN equals gugun exactly.
func FilterByDistrict(recs []Record, gugun string) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if r.Gugun == gugun {
			out = append(out, r)
		}
	}
	return out
}

// Districts returns the distinct GUGUN values in first-seen order.
func Districts(recs []Record) []string {
	seen := make(map[string]struct{}, 16)
	out := make([]string, 0, 16)
	for _, r := range recs {
		if _, ok := seen[r.Gugun]; ok {
			continue
		}
		seen[r.Gugun] = struct{}{}
		out = append(out, r.Gugun)
	}
	return out
}
