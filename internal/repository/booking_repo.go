package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carrental/internal/booking"
	"carrental/internal/db"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

// ListBookingsForCar returns the occupied intervals of a car. Called inside
// the admission transaction after the car row is locked.
func (r *BookingRepository) ListBookingsForCar(ctx context.Context, carID int64) ([]booking.Interval, error) {
	query := `SELECT pickup_date, return_date FROM bookings WHERE car_id = $1 ORDER BY pickup_date`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, carID)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings for car %d: %w", carID, err)
	}
	defer rows.Close()

	var out []booking.Interval
	for rows.Next() {
		var pickup, ret time.Time
		if err := rows.Scan(&pickup, &ret); err != nil {
			return nil, fmt.Errorf("error scanning booking interval: %w", err)
		}
		out = append(out, booking.NewInterval(pickup, ret))
	}
	return out, rows.Err()
}

// InsertBooking stores b and fills its ID and CreatedAt. ErrOverlap means the
// exclusion constraint caught an overlapping booking.
func (r *BookingRepository) InsertBooking(ctx context.Context, b *db.Booking) error {
	query := `
		INSERT INTO bookings (customer_id, car_id, pickup_date, return_date, total_cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		b.CustomerID, b.CarID, sqlDate(b.PickupDate), sqlDate(b.ReturnDate), b.TotalCost,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if tErr := translate(err); tErr != err {
			return tErr
		}
		return fmt.Errorf("error inserting booking: %w", err)
	}
	return nil
}

const deletedDetail = `
	SELECT d.id, d.customer_id, d.car_id, d.pickup_date, d.return_date, d.total_cost, d.created_at,
	       c.name, c.model, u.username, u.email
	FROM deleted d
	JOIN cars c ON c.id = d.car_id
	JOIN users u ON u.id = d.customer_id`

// DeleteBooking removes any booking. Used by administrators.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id int64) (*db.BookingDetail, error) {
	query := `
		WITH deleted AS (
			DELETE FROM bookings WHERE id = $1
			RETURNING id, customer_id, car_id, pickup_date, return_date, total_cost, created_at
		)` + deletedDetail
	return r.deleteReturning(ctx, query, id)
}

// DeleteCustomerBooking removes a booking only if customerID owns it.
func (r *BookingRepository) DeleteCustomerBooking(ctx context.Context, id, customerID int64) (*db.BookingDetail, error) {
	query := `
		WITH deleted AS (
			DELETE FROM bookings WHERE id = $1 AND customer_id = $2
			RETURNING id, customer_id, car_id, pickup_date, return_date, total_cost, created_at
		)` + deletedDetail
	return r.deleteReturning(ctx, query, id, customerID)
}

func (r *BookingRepository) deleteReturning(ctx context.Context, query string, args ...any) (*db.BookingDetail, error) {
	d, err := scanBookingDetail(conn(ctx, r.DB).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error deleting booking: %w", err)
	}
	return d, nil
}

func (r *BookingRepository) ListCustomerBookings(ctx context.Context, customerID int64) ([]db.BookingDetail, error) {
	query := `
		SELECT b.id, b.customer_id, b.car_id, b.pickup_date, b.return_date, b.total_cost, b.created_at,
		       c.name, c.model, u.username, u.email
		FROM bookings b
		JOIN cars c ON c.id = b.car_id
		JOIN users u ON u.id = b.customer_id
		WHERE b.customer_id = $1
		ORDER BY b.pickup_date DESC, b.id DESC`
	return r.listDetails(ctx, query, customerID)
}

func (r *BookingRepository) ListAllBookings(ctx context.Context) ([]db.BookingDetail, error) {
	query := `
		SELECT b.id, b.customer_id, b.car_id, b.pickup_date, b.return_date, b.total_cost, b.created_at,
		       c.name, c.model, u.username, u.email
		FROM bookings b
		JOIN cars c ON c.id = b.car_id
		JOIN users u ON u.id = b.customer_id
		ORDER BY b.pickup_date DESC, b.id DESC`
	return r.listDetails(ctx, query)
}

func (r *BookingRepository) listDetails(ctx context.Context, query string, args ...any) ([]db.BookingDetail, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer rows.Close()

	list := []db.BookingDetail{}
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

func scanBookingDetail(row interface{ Scan(...any) error }) (*db.BookingDetail, error) {
	var d db.BookingDetail
	err := row.Scan(&d.ID, &d.CustomerID, &d.CarID, &d.PickupDate, &d.ReturnDate, &d.TotalCost, &d.CreatedAt,
		&d.CarName, &d.CarModel, &d.CustomerUsername, &d.CustomerEmail)
	if err != nil {
		return nil, err
	}
	d.PickupDate = booking.DateOf(d.PickupDate)
	d.ReturnDate = booking.DateOf(d.ReturnDate)
	return &d, nil
}

// sqlDate sends a civil date as text so the session time zone cannot shift it.
func sqlDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
