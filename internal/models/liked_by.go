package models

import (
	"database/sql/driver"
	"encoding/json"
)

// LikedBy maps a user identifier to its like flag. Absent or false means not liked.
type LikedBy map[string]bool

func (l LikedBy) Value() (driver.Value, error) {
	if l == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]bool(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan tolerates NULL and malformed column contents by reading them as an empty map.
func (l *LikedBy) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		*l = LikedBy{}
		return nil
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil || generic == nil {
		*l = LikedBy{}
		return nil
	}
	out := make(LikedBy, len(generic))
	for k, v := range generic {
		if b, ok := v.(bool); ok {
			out[k] = b
		}
	}
	*l = out
	return nil
}
