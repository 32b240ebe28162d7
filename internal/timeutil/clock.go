package timeutil

import (
	"fmt"
	"time"

	"beachrent/internal/models"
)

// Clock answers calendar questions in the zone where the beach operates.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(timezone string) (*Clock, error) {
	if timezone == "" {
		timezone = models.DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// WithNow returns a copy of the clock reading time from now. Used by tests.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	return &Clock{loc: c.loc, now: now}
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// BusinessDate is the local calendar date of t.
func (c *Clock) BusinessDate(t time.Time) string {
	return t.In(c.loc).Format(models.DateLayout)
}

func (c *Clock) Today() string {
	return c.BusinessDate(c.now())
}

func (c *Clock) Yesterday() string {
	local := c.Now()
	return time.Date(local.Year(), local.Month(), local.Day()-1, 12, 0, 0, 0, c.loc).Format(models.DateLayout)
}

// NextMidnight is the first local 00:00 strictly after t.
func (c *Clock) NextMidnight(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, c.loc)
}

// ParseDate validates a YYYY-MM-DD business date.
func ParseDate(value string) (string, error) {
	d, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return d.Format(models.DateLayout), nil
}
