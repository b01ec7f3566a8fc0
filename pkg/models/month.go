package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month. It is comparable and can be used as a map key.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth builds a Month, normalising overflowing month numbers.
func NewMonth(year int, month time.Month) Month {
	return MonthOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// MonthOf truncates t to its calendar month.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth accepts "YYYY-MM", "YYYY-MM-DD" (day ignored) and "MMYYYY".
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 6 && !strings.Contains(s, "-"):
		return parseMMYYYY(s)
	case len(s) == 7:
		t, err := time.Parse("2006-01", s)
		if err != nil {
			return Month{}, fmt.Errorf("parse month %q: %w", s, err)
		}
		return MonthOf(t), nil
	case len(s) == 10:
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Month{}, fmt.Errorf("parse month %q: %w", s, err)
		}
		return MonthOf(t), nil
	}
	return Month{}, fmt.Errorf("parse month %q: expected YYYY-MM or MMYYYY", s)
}

func parseMMYYYY(s string) (Month, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return Month{}, fmt.Errorf("parse month %q: non-digit in MMYYYY", s)
		}
	}
	month := int(s[0]-'0')*10 + int(s[1]-'0')
	year := int(s[2]-'0')*1000 + int(s[3]-'0')*100 + int(s[4]-'0')*10 + int(s[5]-'0')
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("parse month %q: month out of range", s)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// MustParseMonth is ParseMonth for literals; it panics on bad input.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Time returns the first instant of the month in UTC.
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Ordinal counts months since year 0, so differences give month distances.
func (m Month) Ordinal() int {
	return m.Year*12 + int(m.Month) - 1
}

func (m Month) Before(o Month) bool { return m.Ordinal() < o.Ordinal() }
func (m Month) After(o Month) bool  { return m.Ordinal() > o.Ordinal() }
func (m Month) IsZero() bool        { return m == Month{} }

// AddMonths shifts m by n months (n may be negative).
func (m Month) AddMonths(n int) Month {
	return NewMonth(m.Year, m.Month+time.Month(n))
}

// MonthsBetweenInclusive lists every month from start to end, both included.
func MonthsBetweenInclusive(start, end Month) []Month {
	var out []Month
	for cur := start; !cur.After(end); cur = cur.AddMonths(1) {
		out = append(out, cur)
	}
	return out
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores a month as its "YYYY-MM" text.
func (m Month) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads text columns as well as DATE columns decoded by the driver.
func (m *Month) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*m = MonthOf(v)
		return nil
	case string:
		return m.UnmarshalText([]byte(v))
	case []byte:
		return m.UnmarshalText(v)
	}
	return fmt.Errorf("scan month: unsupported type %T", src)
}
