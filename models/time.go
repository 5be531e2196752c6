package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// dotNetDateRegexp matches Trade Me's "/Date(1514764800000)/" timestamps,
// optionally carrying a "+1300" style offset that is ignored because the
// millisecond value is already UTC.
var dotNetDateRegexp = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)

// TradeMeTime decodes both the /Date(ms)/ form Trade Me emits and RFC 3339.
type TradeMeTime struct {
	time.Time
}

func (t *TradeMeTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("trademe time: %w", err)
	}

	parsed, err := ParseTradeMeTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t TradeMeTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}

// ParseTradeMeTime parses a single timestamp string. An empty string is the
// zero time.
func ParseTradeMeTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	if m := dotNetDateRegexp.FindStringSubmatch(raw); len(m) == 2 {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("trademe time %q: %w", raw, err)
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("trademe time %q: %w", raw, err)
	}
	return parsed, nil
}
