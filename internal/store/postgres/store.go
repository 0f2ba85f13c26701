package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
)

// Store is a RecordStore on the attendance table
type Store struct {
	db     Querier
	logger *zap.Logger
}

var _ attendance.RecordStore = (*Store)(nil)

// NewStore creates a store over db (a pool or a transaction)
func NewStore(db Querier, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// ListRange implements attendance.RecordStore.
func (s *Store) ListRange(ctx context.Context, ownerID string, from, to time.Time, order attendance.SortOrder) ([]attendance.Record, error) {
	direction := "ASC"
	if order == attendance.Descending {
		direction = "DESC"
	}

	query := `
		SELECT id, user_id, check_in, check_out, status, notes
		FROM attendance
		WHERE user_id = $1
		  AND check_in >= $2
		  AND check_in <= $3
		ORDER BY check_in ` + direction

	rows, err := s.db.Query(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, nil
}

// Create implements attendance.RecordStore.
func (s *Store) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	query := `
		INSERT INTO attendance (id, user_id, check_in, check_out, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, check_in, check_out, status, notes
	`

	checkIn, checkOut := times(rec)
	created, err := scanRecord(s.db.QueryRow(ctx, query,
		uuid.NewString(), rec.OwnerID, checkIn, checkOut, string(rec.Status), rec.Notes))
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	s.logger.Info("Attendance record created",
		zap.String("id", created.ID),
		zap.String("status", string(created.Status)))

	return created, nil
}

// Update implements attendance.RecordStore. Only the owner's row is touched.
func (s *Store) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	query := `
		UPDATE attendance
		SET check_in = $3, check_out = $4, status = $5, notes = $6
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, check_in, check_out, status, notes
	`

	checkIn, checkOut := times(rec)
	updated, err := scanRecord(s.db.QueryRow(ctx, query,
		rec.ID, rec.OwnerID, checkIn, checkOut, string(rec.Status), rec.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, fmt.Errorf("record %s: %w", rec.ID, attendance.ErrRecordNotFound)
		}
		return attendance.Record{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	s.logger.Info("Attendance record updated",
		zap.String("id", updated.ID),
		zap.String("status", string(updated.Status)))

	return updated, nil
}

func times(rec attendance.Record) (time.Time, *time.Time) {
	var checkOut *time.Time
	if rec.CheckOut != nil {
		t := rec.CheckOut.Time
		checkOut = &t
	}
	return rec.CheckIn.Time, checkOut
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var (
		rec      attendance.Record
		checkIn  time.Time
		checkOut *time.Time
		status   string
	)
	if err := row.Scan(&rec.ID, &rec.OwnerID, &checkIn, &checkOut, &status, &rec.Notes); err != nil {
		return attendance.Record{}, err
	}

	rec.CheckIn = attendance.NewTimestamp(checkIn)
	if checkOut != nil {
		out := attendance.NewTimestamp(*checkOut)
		rec.CheckOut = &out
	}
	rec.Status = attendance.Status(status)
	return rec, nil
}
