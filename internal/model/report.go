package model

// StatusCounts maps a status to the number of seats in it.  Statuses with
// no seats are absent rather than zero.
type StatusCounts map[SeatStatus]int

// Total sums all counts.
func (c StatusCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// RowSummary aggregates one row of an event.  Sold and Validated are
// zero, never absent, when the row has no seats in that status.
type RowSummary struct {
	Row       string `json:"row"`
	Total     int    `json:"total"`
	Sold      int    `json:"sold"`
	Validated int    `json:"validated"`
}

// PurchaseResult is the outcome of a partially fillable purchase.  Both
// lists preserve the order in which the caller supplied the ids.
type PurchaseResult struct {
	Sold     []string `json:"sold"`
	Rejected []string `json:"unavailable"`
}
