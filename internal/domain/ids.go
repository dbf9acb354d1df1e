package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexID is an identifier that is always kept as a string, even when the
// remote side or an older client wrote it as a JSON number.
type FlexID string

func (id FlexID) String() string { return string(id) }

func (id FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if _, err := n.Int64(); err == nil {
		*id = FlexID(n.String())
		return nil
	}
	// 42.0 -> "42"
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		*id = FlexID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*id = FlexID(n.String())
	return nil
}

// IDFromInt formats a numeric id the way it is persisted.
func IDFromInt(n int64) FlexID { return FlexID(strconv.FormatInt(n, 10)) }
