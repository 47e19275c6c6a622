package model

import (
	"strings"
	"time"
)

// DateLayout is the wire and storage format of an event date.
const DateLayout = "2006-01-02"

// Event is a ticketed occasion owning a fixed set of seats.  Seats are
// created together with the event and destroyed with it.
//
// Fields:
//
//	ID     – generated identifier.
//	Name   – display name.
//	Date   – calendar date of the event, always midnight UTC.
//	Active – listed as on sale; informational, new events are active.
type Event struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Date   time.Time `json:"-"`
	Active bool      `json:"active"`
}

// DateString renders Date in DateLayout.
func (e Event) DateString() string {
	return e.Date.Format(DateLayout)
}

// ParseDate parses a calendar date in DateLayout and normalises it to
// midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &ValidationError{Field: "date", Reason: "is required"}
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "must be formatted as YYYY-MM-DD"}
	}
	return t.UTC(), nil
}

// NormalizeDate truncates t to its calendar day in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EventPatch carries a partial update.  Nil fields are left unchanged.
type EventPatch struct {
	Name   *string
	Date   *time.Time
	Active *bool
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Name == nil && p.Date == nil && p.Active == nil
}

// Apply returns e with the patch applied.
func (p EventPatch) Apply(e Event) Event {
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.Date != nil {
		e.Date = NormalizeDate(*p.Date)
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	return e
}
