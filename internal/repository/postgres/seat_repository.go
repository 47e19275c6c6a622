package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/seat-inventory/internal/model"
)

var seatColumns = []string{"event_id", "id", "row_label", "seat_number", "status"}

// SeatRepository stores seats in PostgreSQL.  Status changes use a
// conditional UPDATE; under READ COMMITTED a concurrent writer on the
// same row waits for the first to commit and then re-evaluates the
// status predicate, so only one of them matches.
type SeatRepository struct {
	base
}

func NewSeatRepository(pool *pgxpool.Pool, opts ...Option) *SeatRepository {
	return &SeatRepository{base: newBase(pool, opts)}
}

func (r *SeatRepository) GetSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error) {
	const query = `SELECT id, event_id, row_label, seat_number, status FROM seats WHERE event_id = $1 AND id = $2`
	s, err := scanSeat(r.queryRow(ctx, query, eventID, seatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Seat{}, model.SeatNotFound(eventID, seatID)
		}
		return model.Seat{}, storageErr("get seat", err)
	}
	return s, nil
}

func (r *SeatRepository) CompareAndSetStatus(ctx context.Context, eventID int64, seatID string, from, to model.SeatStatus) (bool, error) {
	if !from.Valid() || !to.Valid() {
		return false, &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
	}
	const stmt = `UPDATE seats SET status = $1 WHERE event_id = $2 AND id = $3 AND status = $4`
	tag, err := r.exec(ctx, stmt, string(to), eventID, seatID, string(from))
	if err != nil {
		return false, storageErr("update seat status", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertSeats provisions seats with COPY.
func (r *SeatRepository) InsertSeats(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(seats))
	for _, s := range seats {
		if !s.Status.Valid() {
			return &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
		}
		rows = append(rows, []any{s.EventID, s.ID, s.Row, int32(s.Number), string(s.Status)})
	}
	if _, err := r.copyFrom(ctx, pgx.Identifier{"seats"}, seatColumns, pgx.CopyFromRows(rows)); err != nil {
		if isUniqueViolation(err) {
			return &model.ValidationError{Field: "seats", Reason: "contain a duplicate seat id"}
		}
		return storageErr("insert seats", err)
	}
	return nil
}

func (r *SeatRepository) SetAllStatus(ctx context.Context, eventID int64, to model.SeatStatus) (int64, error) {
	if !to.Valid() {
		return 0, &model.ValidationError{Field: "status", Reason: "is not a known seat status"}
	}
	tag, err := r.exec(ctx, `UPDATE seats SET status = $1 WHERE event_id = $2`, string(to), eventID)
	if err != nil {
		return 0, storageErr("reset seats", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SeatRepository) DeleteSeats(ctx context.Context, eventID int64) (int64, error) {
	tag, err := r.exec(ctx, `DELETE FROM seats WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, storageErr("delete seats", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SeatRepository) ListSeats(ctx context.Context, eventID int64) ([]model.Seat, error) {
	const query = `
SELECT id, event_id, row_label, seat_number, status
FROM seats
WHERE event_id = $1
ORDER BY row_label COLLATE "C", seat_number`
	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		return nil, storageErr("list seats", err)
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, storageErr("scan seat", err)
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate seats", err)
	}
	return seats, nil
}

func (r *SeatRepository) CountByStatus(ctx context.Context, eventID int64) (model.StatusCounts, error) {
	rows, err := r.query(ctx, `SELECT status, COUNT(*) FROM seats WHERE event_id = $1 GROUP BY status`, eventID)
	if err != nil {
		return nil, storageErr("count by status", err)
	}
	defer rows.Close()

	counts := model.StatusCounts{}
	for rows.Next() {
		var raw string
		var n int64
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, storageErr("scan status count", err)
		}
		status, err := model.ParseSeatStatus(raw)
		if err != nil {
			return nil, storageErr("scan status count", err)
		}
		counts[status] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate status counts", err)
	}
	return counts, nil
}

func (r *SeatRepository) SummarizeRows(ctx context.Context, eventID int64) ([]model.RowSummary, error) {
	const query = `
SELECT row_label,
       COUNT(*),
       COUNT(*) FILTER (WHERE status = 'sold'),
       COUNT(*) FILTER (WHERE status = 'validated')
FROM seats
WHERE event_id = $1
GROUP BY row_label
ORDER BY row_label COLLATE "C"`
	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		return nil, storageErr("summarize rows", err)
	}
	defer rows.Close()

	var out []model.RowSummary
	for rows.Next() {
		var rs model.RowSummary
		var total, sold, validated int64
		if err := rows.Scan(&rs.Row, &total, &sold, &validated); err != nil {
			return nil, storageErr("scan row summary", err)
		}
		rs.Total, rs.Sold, rs.Validated = int(total), int(sold), int(validated)
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate row summary", err)
	}
	return out, nil
}

func scanSeat(row pgx.Row) (model.Seat, error) {
	var s model.Seat
	var number int32
	var raw string
	if err := row.Scan(&s.ID, &s.EventID, &s.Row, &number, &raw); err != nil {
		return model.Seat{}, err
	}
	status, err := model.ParseSeatStatus(raw)
	if err != nil {
		return model.Seat{}, err
	}
	s.Number = int(number)
	s.Status = status
	return s, nil
}
