package repository // repository implements the seat and event stores on MySQL

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// insertBatchSize caps the rows per multi-row INSERT so a large seat map
// stays well below max_allowed_packet.
const insertBatchSize = 500

// SeatRepo is the authoritative seat table.  Every status change after
// provisioning goes through CompareAndSetStatus, whose single UPDATE with
// the expected status in its WHERE clause is the per-seat
// compare-and-swap the inventory relies on: InnoDB row locks make the
// read-check-write of one (event_id, id) row indivisible.
type SeatRepo struct {
	base
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB, opts ...Option) *SeatRepo {
	return &SeatRepo{base: newBase(db, opts)}
}

// GetSeat reads one seat.  A missing seat yields *model.NotFoundError.
func (r *SeatRepo) GetSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error) {
	const q = `SELECT id, event_id, row_label, seat_number, status
	           FROM seats WHERE event_id = ? AND id = ?`
	s, err := scanSeat(r.q(ctx).QueryRowContext(ctx, q, eventID, seatID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Seat{}, model.SeatNotFound(eventID, seatID)
		}
		return model.Seat{}, storageErr("get seat", err)
	}
	return s, nil
}

// CompareAndSetStatus moves the seat from `from` to `to` and reports
// whether it did.  false with a nil error means the seat is missing or
// no longer in `from`; nothing was written.
func (r *SeatRepo) CompareAndSetStatus(ctx context.Context, eventID int64, seatID string, from, to model.SeatStatus) (bool, error) {
	if !from.Valid() || !to.Valid() {
		return false, &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
	}
	const q = `UPDATE seats SET status = ? WHERE event_id = ? AND id = ? AND status = ?`
	res, err := r.q(ctx).ExecContext(ctx, q, string(to), eventID, seatID, string(from))
	if err != nil {
		return false, storageErr("update seat status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("update seat status", err)
	}
	return n == 1, nil
}

// InsertSeats inserts the seat set of a new event in multi-row batches.
func (r *SeatRepo) InsertSeats(ctx context.Context, seats []model.Seat) error {
	for start := 0; start < len(seats); start += insertBatchSize {
		end := min(start+insertBatchSize, len(seats))
		batch := seats[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO seats (event_id, id, row_label, seat_number, status) VALUES `)
		args := make([]any, 0, len(batch)*5)
		for i, s := range batch {
			if !s.Status.Valid() {
				return &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
			}
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, s.EventID, s.ID, s.Row, s.Number, string(s.Status))
		}
		if _, err := r.q(ctx).ExecContext(ctx, sb.String(), args...); err != nil {
			if isDuplicateKey(err) {
				return &model.ValidationError{Field: "seats", Reason: "contain a duplicate seat id"}
			}
			return storageErr("insert seats", err)
		}
	}
	return nil
}

// SetAllStatus overwrites the status of every seat of the event and
// returns how many rows exist.
func (r *SeatRepo) SetAllStatus(ctx context.Context, eventID int64, to model.SeatStatus) (int64, error) {
	if !to.Valid() {
		return 0, &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
	}
	// Count rows instead of trusting RowsAffected: MySQL reports only
	// changed rows unless clientFoundRows is set.
	var total int64
	if err := r.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE event_id = ?`, eventID).Scan(&total); err != nil {
		return 0, storageErr("count seats", err)
	}
	if _, err := r.q(ctx).ExecContext(ctx, `UPDATE seats SET status = ? WHERE event_id = ?`, string(to), eventID); err != nil {
		return 0, storageErr("reset seats", err)
	}
	return total, nil
}

// DeleteSeats removes all seats of the event.
func (r *SeatRepo) DeleteSeats(ctx context.Context, eventID int64) (int64, error) {
	res, err := r.q(ctx).ExecContext(ctx, `DELETE FROM seats WHERE event_id = ?`, eventID)
	if err != nil {
		return 0, storageErr("delete seats", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListSeats returns the seats of the event ordered by row then number.
func (r *SeatRepo) ListSeats(ctx context.Context, eventID int64) ([]model.Seat, error) {
	const q = `SELECT id, event_id, row_label, seat_number, status
	           FROM seats
	           WHERE event_id = ?
	           ORDER BY row_label, seat_number`
	rows, err := r.q(ctx).QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, storageErr("list seats", err)
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, storageErr("scan seat", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate seats", err)
	}
	return result, nil
}

// CountByStatus groups the event's seats by status.
func (r *SeatRepo) CountByStatus(ctx context.Context, eventID int64) (model.StatusCounts, error) {
	const q = `SELECT status, COUNT(*) FROM seats WHERE event_id = ? GROUP BY status`
	rows, err := r.q(ctx).QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, storageErr("count by status", err)
	}
	defer rows.Close()

	counts := model.StatusCounts{}
	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, storageErr("scan status count", err)
		}
		status, err := model.ParseSeatStatus(raw)
		if err != nil {
			return nil, storageErr("scan status count", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate status counts", err)
	}
	return counts, nil
}

// SummarizeRows returns per-row totals ordered by row label.
func (r *SeatRepo) SummarizeRows(ctx context.Context, eventID int64) ([]model.RowSummary, error) {
	const q = `SELECT row_label,
	                  COUNT(*),
	                  COALESCE(SUM(status = 'sold'), 0),
	                  COALESCE(SUM(status = 'validated'), 0)
	           FROM seats
	           WHERE event_id = ?
	           GROUP BY row_label
	           ORDER BY row_label`
	rows, err := r.q(ctx).QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, storageErr("summarize rows", err)
	}
	defer rows.Close()

	var out []model.RowSummary
	for rows.Next() {
		var rs model.RowSummary
		if err := rows.Scan(&rs.Row, &rs.Total, &rs.Sold, &rs.Validated); err != nil {
			return nil, storageErr("scan row summary", err)
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate row summary", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSeat reads id, event_id, row_label, seat_number, status and rejects
// statuses outside the closed set.
func scanSeat(row rowScanner) (model.Seat, error) {
	var s model.Seat
	var raw string
	if err := row.Scan(&s.ID, &s.EventID, &s.Row, &s.Number, &raw); err != nil {
		return model.Seat{}, err
	}
	status, err := model.ParseSeatStatus(raw)
	if err != nil {
		return model.Seat{}, err
	}
	s.Status = status
	return s, nil
}
