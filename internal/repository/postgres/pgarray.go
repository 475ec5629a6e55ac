package postgres

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// textArray maps []string to a Postgres TEXT[] literal through database/sql.
// The pgx stdlib driver exposes only driver.Valuer/sql.Scanner, so the
// array wire format is handled here.
type textArray []string

var _ driver.Valuer = textArray(nil)

// Value renders the slice as an array literal, e.g. {"a","b"}.
func (a textArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, s := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, `"`, `\"`)
		b.WriteString(s)
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String(), nil
}

// Scan parses a Postgres array literal back into the slice.
func (a *textArray) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into textArray", src)
	}

	raw = strings.TrimSpace(raw)
	if len(raw) < 2 || raw[0] != '{' || raw[len(raw)-1] != '}' {
		return fmt.Errorf("malformed array literal %q", raw)
	}
	body := raw[1 : len(raw)-1]
	if body == "" {
		*a = []string{}
		return nil
	}

	var (
		out      []string
		elem     strings.Builder
		inQuotes bool
		escaped  bool
	)
	flush := func() {
		out = append(out, elem.String())
		elem.Reset()
	}
	for _, r := range body {
		switch {
		case escaped:
			elem.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			flush()
		default:
			elem.WriteRune(r)
		}
	}
	flush()
	*a = out
	return nil
}
