package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"carrental/internal/booking"
	"carrental/internal/db"
	"carrental/internal/entities"
	"carrental/internal/repository"
)

type CarStore interface {
	ListCars(ctx context.Context, onlyAvailable bool) ([]db.Car, error)
	GetCar(ctx context.Context, id int64) (*db.Car, error)
	CreateCar(ctx context.Context, c *db.Car) error
	UpdateCar(ctx context.Context, c *db.Car) error
	DeleteCar(ctx context.Context, id int64) error
}

// CarCache holds the customer-facing list of available cars.
type CarCache interface {
	GetAvailableCars(ctx context.Context) ([]db.Car, bool, error)
	SetAvailableCars(ctx context.Context, cars []db.Car) error
	InvalidateCars(ctx context.Context) error
}

type CarService struct {
	repo   CarStore
	cache  CarCache
	logger *zerolog.Logger
}

// NewCarService builds the catalog service. cache may be nil.
func NewCarService(repo CarStore, cache CarCache, logger *zerolog.Logger) *CarService {
	return &CarService{repo: repo, cache: cache, logger: logger}
}

func (s *CarService) ListAvailable(ctx context.Context) ([]entities.CarResponse, error) {
	if s.cache != nil {
		cars, ok, err := s.cache.GetAvailableCars(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("car cache read failed")
		}
		if ok {
			return toCarResponses(cars), nil
		}
	}

	cars, err := s.repo.ListCars(ctx, true)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetAvailableCars(ctx, cars); err != nil {
			s.logger.Warn().Err(err).Msg("car cache write failed")
		}
	}
	return toCarResponses(cars), nil
}

func (s *CarService) ListAll(ctx context.Context) ([]entities.CarResponse, error) {
	cars, err := s.repo.ListCars(ctx, false)
	if err != nil {
		return nil, err
	}
	return toCarResponses(cars), nil
}

func (s *CarService) Get(ctx context.Context, id int64) (*entities.CarResponse, error) {
	car, err := s.repo.GetCar(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := toCarResponse(*car)
	return &resp, nil
}

func (s *CarService) Create(ctx context.Context, in entities.CarInput) (*entities.CarResponse, error) {
	car := &db.Car{Name: in.Name, Model: in.Model, ImageURL: in.ImageURL, IsAvailable: in.IsAvailable}
	if err := s.repo.CreateCar(ctx, car); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info().Int64("car_id", car.ID).Str("name", car.Name).Msg("car added")
	resp := toCarResponse(*car)
	return &resp, nil
}

// Update replaces the editable fields of a car, including the availability
// switch. Existing bookings are not touched.
func (s *CarService) Update(ctx context.Context, id int64, in entities.CarInput) (*entities.CarResponse, error) {
	car := &db.Car{ID: id, Name: in.Name, Model: in.Model, ImageURL: in.ImageURL, IsAvailable: in.IsAvailable}
	err := s.repo.UpdateCar(ctx, car)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	resp := toCarResponse(*car)
	return &resp, nil
}

func (s *CarService) Delete(ctx context.Context, id int64) error {
	err := s.repo.DeleteCar(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return booking.ErrNotFound
	case errors.Is(err, repository.ErrReferenced):
		return ErrCarHasBookings
	case err != nil:
		return err
	}
	s.invalidate(ctx)
	s.logger.Info().Int64("car_id", id).Msg("car deleted")
	return nil
}

func (s *CarService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCars(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("car cache invalidation failed")
	}
}

func toCarResponse(c db.Car) entities.CarResponse {
	return entities.CarResponse{
		ID:          c.ID,
		Name:        c.Name,
		Model:       c.Model,
		ImageURL:    c.ImageURL,
		IsAvailable: c.IsAvailable,
	}
}

func toCarResponses(cars []db.Car) []entities.CarResponse {
	out := make([]entities.CarResponse, 0, len(cars))
	for _, c := range cars {
		out = append(out, toCarResponse(c))
	}
	return out
}
