package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SeatStatus is the closed set of states a seat can be in.  Values
// outside this set are rejected at the storage boundary by
// ParseSeatStatus, so every Seat loaded from a store carries one of the
// four constants below.
type SeatStatus string

const (
	StatusAvailable SeatStatus = "available"
	StatusBlocked   SeatStatus = "blocked"
	StatusSold      SeatStatus = "sold"
	StatusValidated SeatStatus = "validated"
)

// AllStatuses lists the statuses in their canonical reporting order.
var AllStatuses = []SeatStatus{StatusAvailable, StatusBlocked, StatusSold, StatusValidated}

// Valid reports whether s is one of the four known statuses.
func (s SeatStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusBlocked, StatusSold, StatusValidated:
		return true
	}
	return false
}

func (s SeatStatus) String() string { return string(s) }

// ParseSeatStatus converts a stored or user supplied string into a
// SeatStatus.  Matching is case-insensitive and surrounding whitespace
// is ignored; anything else is an error.
func ParseSeatStatus(raw string) (SeatStatus, error) {
	s := SeatStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown seat status %q", raw)
	}
	return s, nil
}

// Seat is one sellable unit of an event.  ID is the row label followed by
// the seat number ("A5") and is unique only within its event.
//
// Fields:
//
//	ID      – seat identifier within the event.
//	EventID – owning event.
//	Row     – row label (A, B, ... AA).
//	Number  – 1-based position inside the row.
//	Status  – current state machine status.
type Seat struct {
	ID      string     `json:"id"`
	EventID int64      `json:"-"`
	Row     string     `json:"row"`
	Number  int        `json:"num"`
	Status  SeatStatus `json:"status"`
}

// SeatID builds the identifier of the seat at row/number.
func SeatID(row string, number int) string {
	return row + strconv.Itoa(number)
}

// SeatKey identifies a seat across events.
type SeatKey struct {
	EventID int64
	SeatID  string
}

func (k SeatKey) String() string {
	return strconv.FormatInt(k.EventID, 10) + "/" + k.SeatID
}
