package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMonth is returned for month parameters that are not YYYY-MM.
var ErrInvalidMonth = errors.New("invalid month format, expected YYYY-MM")

// Month is a calendar month identity. Day of month never matters for grouping.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month t falls in, read in t's own location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses the external YYYY-MM form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: got %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// ResolveMonth parses param, or falls back to the month containing today when param is blank.
func ResolveMonth(param string, today time.Time) (Month, error) {
	if strings.TrimSpace(param) == "" {
		return MonthOf(today), nil
	}
	return ParseMonth(param)
}

// Start is the first day of the month at UTC midnight.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month at UTC midnight.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// AddMonths shifts by n calendar months; n may be negative.
func (m Month) AddMonths(n int) Month {
	return MonthOf(m.Start().AddDate(0, n, 0))
}

// Contains reports whether t's calendar date is inside the month.
func (m Month) Contains(t time.Time) bool {
	return MonthOf(t) == m
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// String renders the external YYYY-MM form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Name renders "January 2026".
func (m Month) Name() string {
	return m.Start().Format("January 2006")
}

// ShortName renders "Jan 2026".
func (m Month) ShortName() string {
	return m.Start().Format("Jan 2006")
}

func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
