// Package feed turns a confession snapshot into the ordered list a view displays.
// Everything here is pure: no I/O, no mutation of the caller's slices.
package feed

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"crushboard/internal/models"
)

// Normalize coerces the aggregate fields of c: a negative likesCount becomes 0 and a nil
// likedBy map becomes empty.
func Normalize(c models.Confession) models.Confession {
	if c.LikesCount < 0 {
		c.LikesCount = 0
	}
	if c.LikedBy == nil {
		c.LikedBy = models.LikedBy{}
	}
	return c
}

// NormalizeDocument builds a confession from a loosely typed document as read from a
// schemaless store or an export file. Wrongly typed fields fall back to their zero value;
// likesCount that is not a number reads as 0 and likedBy that is not an object reads as {}.
func NormalizeDocument(id string, doc map[string]interface{}) models.Confession {
	c := models.Confession{
		ID:          id,
		Message:     strings.TrimSpace(stringField(doc, "message")),
		CrushName:   strings.TrimSpace(stringField(doc, "crushName")),
		SocialMedia: strings.TrimSpace(stringField(doc, "socialMedia")),
		AuthorID:    stringField(doc, "authorId", "userId"),
		CreatedAt:   timeField(doc, "createdAt", "timestamp"),
		LikesCount:  countField(doc["likesCount"]),
		LikedBy:     likedByField(doc["likedBy"]),
	}
	return Normalize(c)
}

func stringField(doc map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := doc[k].(string); ok {
			return s
		}
	}
	return ""
}

func countField(v interface{}) int {
	var f float64
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func likedByField(v interface{}) models.LikedBy {
	m, ok := v.(map[string]interface{})
	if !ok {
		if typed, ok := v.(map[string]bool); ok {
			out := make(models.LikedBy, len(typed))
			for k, b := range typed {
				out[k] = b
			}
			return out
		}
		return models.LikedBy{}
	}
	out := make(models.LikedBy, len(m))
	for k, raw := range m {
		if b, ok := raw.(bool); ok {
			out[k] = b
		}
	}
	return out
}

// timeField accepts time values, RFC 3339 strings and the {seconds, nanoseconds} shape of
// exported server timestamps.
func timeField(doc map[string]interface{}, keys ...string) *time.Time {
	for _, k := range keys {
		v, ok := doc[k]
		if !ok || v == nil {
			continue
		}
		var t time.Time
		switch ts := v.(type) {
		case time.Time:
			t = ts
		case *time.Time:
			if ts == nil {
				continue
			}
			t = *ts
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				continue
			}
			t = parsed
		case map[string]interface{}:
			secs, ok := firstPresent(ts, "seconds", "_seconds")
			if !ok {
				continue
			}
			nanos, _ := firstPresent(ts, "nanoseconds", "_nanoseconds")
			t = time.Unix(int64(countField(secs)), int64(countField(nanos)))
		default:
			continue
		}
		t = t.UTC()
		return &t
	}
	return nil
}

func firstPresent(m map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
