package model

import (
	"strconv"
	"strings"
)

// RowSpec describes one row of a seat map: its label and how many seats
// it holds.  Seats are numbered 1..Seats.
type RowSpec struct {
	Row   string `json:"row" yaml:"row"`
	Seats int    `json:"seats" yaml:"seats"`
}

// MaxRowLabelLen is the longest row label a store accepts.
const MaxRowLabelLen = 8

// SeatLayout is the ordered list of rows provisioned for a new event.
type SeatLayout []RowSpec

// DefaultLayout is the auditorium map: rows A–Q with 16 seats and rows
// R–U with 13 seats, 324 seats in total.
func DefaultLayout() SeatLayout {
	layout := make(SeatLayout, 0, 21)
	for _, r := range "ABCDEFGHIJKLMNOPQ" {
		layout = append(layout, RowSpec{Row: string(r), Seats: 16})
	}
	for _, r := range "RSTU" {
		layout = append(layout, RowSpec{Row: string(r), Seats: 13})
	}
	return layout
}

// Validate checks that every row has a non-empty alphabetic label, a
// positive seat count and that labels are unique.
func (l SeatLayout) Validate() error {
	if len(l) == 0 {
		return &ValidationError{Field: "layout", Reason: "must contain at least one row"}
	}
	seen := make(map[string]struct{}, len(l))
	for i, r := range l {
		label := NormalizeRowLabel(r.Row)
		if label == "" {
			return &ValidationError{Field: "layout[" + strconv.Itoa(i) + "].row", Reason: "must be a letter label"}
		}
		if len(label) > MaxRowLabelLen {
			return &ValidationError{Field: "layout[" + strconv.Itoa(i) + "].row", Reason: "must be at most " + strconv.Itoa(MaxRowLabelLen) + " letters"}
		}
		if r.Seats <= 0 {
			return &ValidationError{Field: "layout[" + strconv.Itoa(i) + "].seats", Reason: "must be positive"}
		}
		if _, dup := seen[label]; dup {
			return &ValidationError{Field: "layout[" + strconv.Itoa(i) + "].row", Reason: "duplicates row " + label}
		}
		seen[label] = struct{}{}
	}
	return nil
}

// Total returns the number of seats the layout provisions.
func (l SeatLayout) Total() int {
	n := 0
	for _, r := range l {
		n += r.Seats
	}
	return n
}

// Seats expands the layout into available seats of eventID, row by row
// in layout order.
func (l SeatLayout) Seats(eventID int64) []Seat {
	seats := make([]Seat, 0, l.Total())
	for _, r := range l {
		row := NormalizeRowLabel(r.Row)
		for n := 1; n <= r.Seats; n++ {
			seats = append(seats, Seat{
				ID:      SeatID(row, n),
				EventID: eventID,
				Row:     row,
				Number:  n,
				Status:  StatusAvailable,
			})
		}
	}
	return seats
}

// NormalizeRowLabel upper-cases raw and keeps only ASCII letters.
func NormalizeRowLabel(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 32)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}
