package sqlitex

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// timestampLayout is fixed width so stored values compare correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp renders t the way every gamewiki table stores times.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Now returns the current time formatted with Timestamp.
func Now() string {
	return Timestamp(time.Now())
}

// NullableString maps "" to SQL NULL.
func NullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// NullableStringPtr maps nil or blank to SQL NULL.
func NullableStringPtr(value *string) any {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return *value
}

// NullableInt maps nil to SQL NULL.
func NullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

// NullableTime maps nil to SQL NULL.
func NullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return Timestamp(*value)
}

// StringPtr converts a NullString into an optional value.
func StringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

// IntPtr converts a NullInt64 into an optional value.
func IntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

// ParseTime parses a stored timestamp.
func ParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// TimePtr parses a nullable timestamp, returning nil when absent or unparsable.
func TimePtr(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := ParseTime(value.String)
	if err != nil {
		return nil
	}
	return &t
}

// Placeholders returns "?,?,..." with count entries.
func Placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
