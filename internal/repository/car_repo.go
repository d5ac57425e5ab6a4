package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carrental/internal/db"
)

type CarRepository struct {
	DB *sql.DB
}

func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{DB: db}
}

const carColumns = `id, name, model, image_url, is_available, created_at, updated_at`

func scanCar(row interface{ Scan(...any) error }) (*db.Car, error) {
	var c db.Car
	if err := row.Scan(&c.ID, &c.Name, &c.Model, &c.ImageURL, &c.IsAvailable, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CarRepository) ListCars(ctx context.Context, onlyAvailable bool) ([]db.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars`
	if onlyAvailable {
		query += ` WHERE is_available = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying cars: %w", err)
	}
	defer rows.Close()

	cars := []db.Car{}
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning car: %w", err)
		}
		cars = append(cars, *c)
	}
	return cars, rows.Err()
}

func (r *CarRepository) GetCar(ctx context.Context, id int64) (*db.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1`
	c, err := scanCar(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting car %d: %w", id, err)
	}
	return c, nil
}

// GetCarForUpdate reads the car and locks its row until the surrounding
// transaction ends. Concurrent admissions for the same car queue here.
func (r *CarRepository) GetCarForUpdate(ctx context.Context, id int64) (*db.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1 FOR UPDATE`
	c, err := scanCar(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error locking car %d: %w", id, err)
	}
	return c, nil
}

func (r *CarRepository) CreateCar(ctx context.Context, c *db.Car) error {
	query := `
		INSERT INTO cars (name, model, image_url, is_available)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, c.Name, c.Model, c.ImageURL, c.IsAvailable).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating car: %w", err)
	}
	return nil
}

func (r *CarRepository) UpdateCar(ctx context.Context, c *db.Car) error {
	query := `
		UPDATE cars
		SET name = $1, model = $2, image_url = $3, is_available = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING created_at, updated_at`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, c.Name, c.Model, c.ImageURL, c.IsAvailable, c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error updating car %d: %w", c.ID, err)
	}
	return nil
}

// DeleteCar fails with ErrReferenced while any booking points at the car.
func (r *CarRepository) DeleteCar(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		if tErr := translate(err); tErr != err {
			return tErr
		}
		return fmt.Errorf("error deleting car %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting car %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CarRepository) CountCars(ctx context.Context) (int, error) {
	var n int
	if err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM cars`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting cars: %w", err)
	}
	return n, nil
}

// SeedCars inserts the starter catalog when the cars table is empty and
// reports how many rows were added.
func (r *CarRepository) SeedCars(ctx context.Context, cars []db.Car) (int, error) {
	n, err := r.CountCars(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i := range cars {
		if err := r.CreateCar(ctx, &cars[i]); err != nil {
			return i, err
		}
	}
	return len(cars), nil
}
