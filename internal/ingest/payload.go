// Package ingest parses a raw fetcher payload, validates it against the
// Label Reconstructor, and writes the resulting structured records in
// one transaction.
package ingest

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// payload mirrors the fetcher subprocess's JSON envelope (§6).
type payload struct {
	Time    map[string]int                `json:"time"`
	Geo     map[string]map[string][2]any  `json:"geo"`
	Related map[string]map[string][]any   `json:"related"`
}

// parsed is the payload after decoding its loosely-typed JSON shape
// into concrete Go values, still label-ordered for validation.
type parsed struct {
	Labels     []time.Time
	Samples    []int
	GeoEntries []geoEntry
	Related    []relatedEntry
}

type geoEntry struct {
	Scope        string
	LocationCode string
	LocationName string
	Value        int
}

type relatedEntry struct {
	Kind      string // "query" or "topic"
	IsTop     bool
	Value     float64
	Query     string
	MID       string
	Title     string
	TopicName string
}

// parsePayload decodes raw bytes into a parsed struct. Label ordering
// is derived by sorting the "time" map's keys, which must be RFC3339
// timestamps.
func parsePayload(raw []byte) (*parsed, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	keys := make([]string, 0, len(p.Time))
	for k := range p.Time {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	labels := make([]time.Time, 0, len(keys))
	samples := make([]int, 0, len(keys))
	for _, k := range keys {
		ts, err := time.Parse(time.RFC3339, k)
		if err != nil {
			return nil, fmt.Errorf("parse label %q: %w", k, err)
		}
		labels = append(labels, ts)
		samples = append(samples, p.Time[k])
	}

	var geoEntries []geoEntry
	for scope, byCode := range p.Geo {
		for code, nameValue := range byCode {
			name, _ := nameValue[0].(string)
			value, err := toInt(nameValue[1])
			if err != nil {
				return nil, fmt.Errorf("geo value for %s/%s: %w", scope, code, err)
			}
			geoEntries = append(geoEntries, geoEntry{
				Scope:        scope,
				LocationCode: code,
				LocationName: name,
				Value:        value,
			})
		}
	}

	var related []relatedEntry
	if queryGroups, ok := p.Related["query"]; ok {
		for section, rows := range queryGroups {
			isTop := section == "top"
			for _, row := range rows {
				pair, ok := row.([]any)
				if !ok || len(pair) != 2 {
					return nil, fmt.Errorf("malformed query related-keyword row")
				}
				q, _ := pair[0].(string)
				v, err := toFloat(pair[1])
				if err != nil {
					return nil, fmt.Errorf("query related-keyword value: %w", err)
				}
				related = append(related, relatedEntry{Kind: "query", IsTop: isTop, Value: v, Query: q})
			}
		}
	}
	if topicGroups, ok := p.Related["topic"]; ok {
		for section, rows := range topicGroups {
			isTop := section == "top"
			for _, row := range rows {
				quad, ok := row.([]any)
				if !ok || len(quad) != 4 {
					return nil, fmt.Errorf("malformed topic related-keyword row")
				}
				mid, _ := quad[0].(string)
				title, _ := quad[1].(string)
				topicName, _ := quad[2].(string)
				v, err := toFloat(quad[3])
				if err != nil {
					return nil, fmt.Errorf("topic related-keyword value: %w", err)
				}
				related = append(related, relatedEntry{
					Kind: "topic", IsTop: isTop, Value: v,
					MID: mid, Title: title, TopicName: topicName,
				})
			}
		}
	}

	return &parsed{Labels: labels, Samples: samples, GeoEntries: geoEntries, Related: related}, nil
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", v)
	}
}
