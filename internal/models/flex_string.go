package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexString holds a value that browsers send either as a JSON string or
// as a number (ages, years of experience, catalogue ids from <input
// type="number">). It is always stored and returned as a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*f = ""
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", trimmed)
		}
		*f = FlexString(n.String())
		return nil
	}
}
