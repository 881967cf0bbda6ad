package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/montage-crm/planner/backend/internal/domain"
)

// date and time columns are rendered as text so they round-trip in the
// layouts the conflict checker expects
const bookingColumns = `
	id,
	installer_id,
	to_char(date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'),
	to_char(end_time, 'HH24:MI'),
	title,
	description,
	created_by,
	created_at,
	version
`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	dst := []any{
		&b.ID,
		&b.InstallerID,
		&b.Date,
		&b.StartTime,
		&b.EndTime,
		&b.Title,
		&b.Description,
		&b.CreatedBy,
		&b.CreatedAt,
		&b.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return b, nil
}

type BookingFilter struct {
	InstallerID *int64
	Date        *string
}

func (r *Repository) GetBookings(filter BookingFilter) ([]*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	conditions := []string{"TRUE"}
	args := []any{}
	if filter.InstallerID != nil {
		args = append(args, *filter.InstallerID)
		conditions = append(conditions, "installer_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, "date = $"+strconv.Itoa(len(args))+"::date")
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY date, start_time, id`

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// GetBookingsByInstallerAndDate returns the input list for the conflict checker.
func (r *Repository) GetBookingsByInstallerAndDate(installerID int64, date string) ([]domain.Booking, error) {
	bookings, err := r.GetBookings(BookingFilter{InstallerID: &installerID, Date: &date})
	if err != nil {
		return nil, err
	}

	res := make([]domain.Booking, len(bookings))
	for i, b := range bookings {
		res[i] = *b
	}
	return res, nil
}

func (r *Repository) GetBookingByID(id int64) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.dbpool.QueryRowContext(ctx, query, id))
}

// CreateBooking inserts the booking and, when override is not nil, its audit
// record in the same transaction.
func (r *Repository) CreateBooking(b *domain.Booking, override *domain.BookingOverride) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO bookings (installer_id, date, start_time, end_time, title, description, created_by)
		VALUES ($1, $2::date, $3::time, $4::time, $5, $6, $7)
		RETURNING id, created_at, version
	`

	params := []any{
		b.InstallerID,
		b.Date,
		b.StartTime,
		b.EndTime,
		b.Title,
		b.Description,
		b.CreatedBy,
	}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&b.ID, &b.CreatedAt, &b.Version); err != nil {
		return err
	}

	if override != nil {
		override.BookingID = b.ID
		if err := insertOverride(ctx, tx, override); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateBooking fails with sql.ErrNoRows when b.Version is stale.
func (r *Repository) UpdateBooking(b *domain.Booking, override *domain.BookingOverride) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE bookings
		SET
			installer_id = $1,
			date = $2::date,
			start_time = $3::time,
			end_time = $4::time,
			title = $5,
			description = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	params := []any{
		b.InstallerID,
		b.Date,
		b.StartTime,
		b.EndTime,
		b.Title,
		b.Description,
		b.ID,
		b.Version,
	}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&b.Version); err != nil {
		return err
	}

	if override != nil {
		override.BookingID = b.ID
		if err := insertOverride(ctx, tx, override); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) DeleteBooking(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return err
	}

	return nil
}

func insertOverride(ctx context.Context, tx *sql.Tx, o *domain.BookingOverride) error {
	conflicts, err := json.Marshal(o.Conflicts)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO booking_overrides (booking_id, admin_id, reason, conflicts)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING id, created_at
	`

	return tx.QueryRowContext(ctx, query, o.BookingID, o.AdminID, o.Reason, string(conflicts)).Scan(&o.ID, &o.CreatedAt)
}

func (r *Repository) GetOverridesByBookingID(bookingID int64) ([]*domain.BookingOverride, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, admin_id, reason, conflicts, created_at
		FROM booking_overrides
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make([]*domain.BookingOverride, 0)
	for rows.Next() {
		o := &domain.BookingOverride{BookingID: bookingID}
		var conflicts []byte
		if err := rows.Scan(&o.ID, &o.AdminID, &o.Reason, &conflicts, &o.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(conflicts, &o.Conflicts); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return overrides, nil
}
