package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// The backend serializes naive UTC datetimes ("2026-01-02T15:04:05.123456")
// as well as zone-qualified ones.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", field, value)
}

// UnmarshalJSON accepts naive and zone-qualified timestamps.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		CreatedAt       string `json:"created_at"`
		StatusChangedAt string `json:"status_changed_at"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if t.CreatedAt, err = parseTimestamp("created_at", aux.CreatedAt); err != nil {
		return err
	}
	if t.StatusChangedAt, err = parseTimestamp("status_changed_at", aux.StatusChangedAt); err != nil {
		return err
	}
	return nil
}

// UnmarshalJSON accepts naive and zone-qualified timestamps.
func (c *Client) UnmarshalJSON(data []byte) error {
	type plain Client
	aux := struct {
		*plain
		CreatedAt string `json:"created_at"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	c.CreatedAt, err = parseTimestamp("created_at", aux.CreatedAt)
	return err
}

// UnmarshalJSON accepts naive and zone-qualified timestamps.
func (m *Media) UnmarshalJSON(data []byte) error {
	type plain Media
	aux := struct {
		*plain
		CreatedAt string `json:"created_at"`
	}{plain: (*plain)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	m.CreatedAt, err = parseTimestamp("created_at", aux.CreatedAt)
	return err
}
