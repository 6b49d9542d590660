package domain

import (
	"encoding/json"
	"strings"
)

// Text is an optional extracted string. The zero value is absent.
// A present Text never holds an empty or untrimmed value.
type Text struct {
	value string
	ok    bool
}

// Absent is the explicit "not present" marker.
var Absent = Text{}

// TextOf trims raw and returns it as a present Text, or Absent when nothing
// is left after trimming.
func TextOf(raw string) Text {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Absent
	}
	return Text{value: v, ok: true}
}

// Get returns the value and whether it is present.
func (t Text) Get() (string, bool) {
	return t.value, t.ok
}

// Present reports whether the field was extracted.
func (t Text) Present() bool {
	return t.ok
}

// String returns the value, or "" when absent.
func (t Text) String() string {
	return t.value
}

// MarshalJSON encodes an absent Text as null.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.ok {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

// UnmarshalJSON accepts a string or null.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*t = Absent
		return nil
	}
	*t = TextOf(*s)
	return nil
}
