package gamestate

import "time"

// DateLayout is the calendar-day format used for activity dates
const DateLayout = "2006-01-02"

// Clock supplies the current time. Streak logic only looks at the UTC calendar day.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Today returns the UTC calendar day of c
func Today(c Clock) string {
	return DayOf(c.Now())
}

// DayOf formats t as a UTC calendar day
func DayOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// previousDay returns the calendar day before day, or "" when day does not parse
func previousDay(day string) string {
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}
