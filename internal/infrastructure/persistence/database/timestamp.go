package database

import (
	"fmt"
	"time"
)

// TimeFormat is the canonical timestamp layout written to the database.
var TimeFormat = "2006-01-02 15:04:05"

var scanLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
}

// Timestamp is a nullable scan target for TIMESTAMP columns. The SQLite
// driver hands timestamps back as time.Time while libsql returns text, so
// repositories scan through this type instead of guessing the driver.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(value any) error {
	ts.Time, ts.Valid = time.Time{}, false
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		ts.Time, ts.Valid = v.UTC(), true
		return nil
	case []byte:
		return ts.parse(string(v))
	case string:
		return ts.parse(v)
	}
	return fmt.Errorf("cannot scan %T into Timestamp", value)
}

func (ts *Timestamp) parse(value string) error {
	if value == "" {
		return nil
	}
	for _, layout := range scanLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			ts.Time, ts.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", value)
}

// Ptr returns the scanned time as a pointer, nil when the column was NULL.
func (ts Timestamp) Ptr() *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
