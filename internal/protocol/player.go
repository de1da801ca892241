package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// PlayerID opaque player identity.
//
// It holds the compact JSON literal the client sent (`2`, `"alice"`), so it is
// comparable, usable as a map key and re-encodes exactly as received. The zero
// value means "no identity".
type PlayerID string

// NumericPlayerID builds an identity from a number
func NumericPlayerID(n int64) PlayerID {
	return PlayerID(strconv.FormatInt(n, 10))
}

// StringPlayerID builds an identity from a string token
func StringPlayerID(s string) PlayerID {
	if s == "" {
		return ""
	}
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return PlayerID(b)
}

// ParsePlayerID reads a command-line style identity: JSON numbers stay
// numeric, anything else becomes a string token.
func ParsePlayerID(s string) PlayerID {
	if s == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil && json.Valid([]byte(s)) {
		return PlayerID(s)
	}
	return StringPlayerID(s)
}

// IsZero reports whether no identity is set
func (p PlayerID) IsZero() bool {
	return p == ""
}

// String returns a human readable form (string tokens unquoted)
func (p PlayerID) String() string {
	if len(p) > 0 && p[0] == '"' {
		var s string
		if err := json.Unmarshal([]byte(p), &s); err == nil {
			return s
		}
	}
	return string(p)
}

// MarshalJSON writes the literal as received
func (p PlayerID) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("null"), nil
	}
	return []byte(p), nil
}

// UnmarshalJSON accepts JSON numbers and non-empty strings; null, booleans,
// objects and arrays leave the identity unset.
func (p *PlayerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*p = ""
	if len(data) == 0 {
		return nil
	}

	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = StringPlayerID(s)
	case c == '-' || (c >= '0' && c <= '9'):
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*p = PlayerID(buf.String())
	}
	return nil
}
