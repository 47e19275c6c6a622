// Package memory keeps events and seats in process memory.  It backs
// DB_DRIVER=memory and the service tests.  Transactions are serialised
// on one mutex and rolled back through an undo journal, so every
// operation sees committed state only.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/seat-inventory/internal/model"
)

type txKey struct{}

// journal records how to undo the writes of one transaction.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	j.undo = append(j.undo, fn)
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// Store implements both the event and the seat store.
type Store struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]model.Event
	seats  map[int64]map[string]model.Seat
}

func NewStore() *Store {
	return &Store{
		events: make(map[int64]model.Event),
		seats:  make(map[int64]map[string]model.Seat),
	}
}

// WithTx runs fn while holding the store lock.  When fn fails every
// write it made is undone.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return &model.StorageError{Op: "begin tx", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}

// lock takes the store lock unless ctx already runs inside WithTx.
func (s *Store) lock(ctx context.Context) func() {
	if journalFrom(ctx) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func record(ctx context.Context, fn func()) {
	if j := journalFrom(ctx); j != nil {
		j.record(fn)
	}
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(txKey{}).(*journal)
	return j
}

func (s *Store) CreateEvent(ctx context.Context, e *model.Event) error {
	defer s.lock(ctx)()

	prevID := s.nextID
	s.nextID++
	e.ID = s.nextID
	e.Date = model.NormalizeDate(e.Date)
	s.events[e.ID] = *e

	id := e.ID
	record(ctx, func() {
		delete(s.events, id)
		s.nextID = prevID
	})
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	defer s.lock(ctx)()

	e, ok := s.events[id]
	if !ok {
		return model.Event{}, model.EventNotFound(id)
	}
	return e, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	defer s.lock(ctx)()

	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e model.Event) error {
	defer s.lock(ctx)()

	prev, ok := s.events[e.ID]
	if !ok {
		return model.EventNotFound(e.ID)
	}
	e.Date = model.NormalizeDate(e.Date)
	s.events[e.ID] = e
	record(ctx, func() { s.events[prev.ID] = prev })
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	defer s.lock(ctx)()

	prev, ok := s.events[id]
	if !ok {
		return model.EventNotFound(id)
	}
	delete(s.events, id)
	record(ctx, func() { s.events[id] = prev })
	return nil
}

func (s *Store) GetSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error) {
	defer s.lock(ctx)()

	seat, ok := s.seats[eventID][seatID]
	if !ok {
		return model.Seat{}, model.SeatNotFound(eventID, seatID)
	}
	return seat, nil
}

func (s *Store) CompareAndSetStatus(ctx context.Context, eventID int64, seatID string, from, to model.SeatStatus) (bool, error) {
	if !from.Valid() || !to.Valid() {
		return false, &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
	}
	defer s.lock(ctx)()

	seats := s.seats[eventID]
	seat, ok := seats[seatID]
	if !ok || seat.Status != from {
		return false, nil
	}
	seat.Status = to
	seats[seatID] = seat
	record(ctx, func() {
		seat.Status = from
		seats[seatID] = seat
	})
	return true, nil
}

func (s *Store) InsertSeats(ctx context.Context, seats []model.Seat) error {
	defer s.lock(ctx)()

	// Validate the whole batch first so a rejected insert writes nothing.
	seen := make(map[model.SeatKey]struct{}, len(seats))
	for _, seat := range seats {
		if !seat.Status.Valid() {
			return &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
		}
		key := model.SeatKey{EventID: seat.EventID, SeatID: seat.ID}
		if _, dup := seen[key]; dup {
			return &model.ValidationError{Field: "seats", Reason: "contain a duplicate seat id"}
		}
		if _, exists := s.seats[seat.EventID][seat.ID]; exists {
			return &model.ValidationError{Field: "seats", Reason: "contain a duplicate seat id"}
		}
		seen[key] = struct{}{}
	}

	for _, seat := range seats {
		bucket, ok := s.seats[seat.EventID]
		if !ok {
			bucket = make(map[string]model.Seat)
			s.seats[seat.EventID] = bucket
		}
		bucket[seat.ID] = seat
	}
	record(ctx, func() {
		for _, seat := range seats {
			delete(s.seats[seat.EventID], seat.ID)
			if len(s.seats[seat.EventID]) == 0 {
				delete(s.seats, seat.EventID)
			}
		}
	})
	return nil
}

func (s *Store) SetAllStatus(ctx context.Context, eventID int64, to model.SeatStatus) (int64, error) {
	if !to.Valid() {
		return 0, &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
	}
	defer s.lock(ctx)()

	bucket := s.seats[eventID]
	prev := make(map[string]model.Seat, len(bucket))
	for id, seat := range bucket {
		prev[id] = seat
		seat.Status = to
		bucket[id] = seat
	}
	record(ctx, func() {
		for id, seat := range prev {
			bucket[id] = seat
		}
	})
	return int64(len(bucket)), nil
}

func (s *Store) DeleteSeats(ctx context.Context, eventID int64) (int64, error) {
	defer s.lock(ctx)()

	bucket, ok := s.seats[eventID]
	if !ok {
		return 0, nil
	}
	delete(s.seats, eventID)
	record(ctx, func() { s.seats[eventID] = bucket })
	return int64(len(bucket)), nil
}

func (s *Store) ListSeats(ctx context.Context, eventID int64) ([]model.Seat, error) {
	defer s.lock(ctx)()

	bucket := s.seats[eventID]
	seats := make([]model.Seat, 0, len(bucket))
	for _, seat := range bucket {
		seats = append(seats, seat)
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Number < seats[j].Number
	})
	return seats, nil
}

func (s *Store) CountByStatus(ctx context.Context, eventID int64) (model.StatusCounts, error) {
	defer s.lock(ctx)()

	counts := model.StatusCounts{}
	for _, seat := range s.seats[eventID] {
		counts[seat.Status]++
	}
	return counts, nil
}

func (s *Store) SummarizeRows(ctx context.Context, eventID int64) ([]model.RowSummary, error) {
	defer s.lock(ctx)()

	byRow := make(map[string]*model.RowSummary)
	for _, seat := range s.seats[eventID] {
		rs, ok := byRow[seat.Row]
		if !ok {
			rs = &model.RowSummary{Row: seat.Row}
			byRow[seat.Row] = rs
		}
		rs.Total++
		switch seat.Status {
		case model.StatusSold:
			rs.Sold++
		case model.StatusValidated:
			rs.Validated++
		}
	}

	out := make([]model.RowSummary, 0, len(byRow))
	for _, rs := range byRow {
		out = append(out, *rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out, nil
}
