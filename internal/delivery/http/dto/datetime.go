package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LocalDateTimeLayout is ISO-8601 without a zone. Values are always UTC.
const LocalDateTimeLayout = "2006-01-02T15:04:05.999999"

const localDateTimeParse = "2006-01-02T15:04:05"

type LocalDateTime time.Time

func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime(t.UTC())
}

func NewLocalDateTimePtr(t *time.Time) *LocalDateTime {
	if t == nil {
		return nil
	}
	v := NewLocalDateTime(*t)
	return &v
}

func (d LocalDateTime) Time() time.Time {
	return time.Time(d).UTC()
}

// TimePtr is nil safe so optional request fields convert in one call.
func (d *LocalDateTime) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}

func (d LocalDateTime) String() string {
	return d.Time().Format(LocalDateTimeLayout)
}

func (d LocalDateTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *LocalDateTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("date-time must be a string: %w", err)
	}
	t, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*d = LocalDateTime(t)
	return nil
}

// ParseLocalDateTime accepts "2006-01-02T15:04:05" with an optional
// fraction. A trailing zone is tolerated and converted to UTC. The result
// is truncated to microseconds, the precision the store keeps.
func ParseLocalDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(localDateTimeParse, s, time.UTC); err == nil {
		return t.Truncate(time.Microsecond), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Truncate(time.Microsecond), nil
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q, expected %s", s, localDateTimeParse)
}
