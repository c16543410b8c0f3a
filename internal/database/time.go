package database

import (
	"fmt"
	"strings"
	"time"
)

// Time scans DATETIME columns from either engine. SQLite stores them as text
// in several layouts depending on who wrote the row; Postgres returns
// time.Time. NULL scans to the zero value with Valid unset.
type Time struct {
	Time  time.Time
	Valid bool
}

//nolint:gochecknoglobals // read-only layout table
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Scan implements sql.Scanner.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Time{}

		return nil
	case time.Time:
		*t = Time{Time: v.UTC(), Valid: true}

		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("scanning %T into database.Time", src)
	}
}

func (t *Time) parse(s string) error {
	s = strings.TrimSpace(s)

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Time{Time: parsed.UTC(), Valid: true}

			return nil
		}
	}

	return fmt.Errorf("unrecognised timestamp %q", s)
}
