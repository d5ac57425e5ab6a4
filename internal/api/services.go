package api

import (
	"context"
	"time"

	"carrental/internal/auth"
	"carrental/internal/db"
	"carrental/internal/entities"
	"carrental/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*db.User, error)
	Verify(ctx context.Context, code string) error
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, who auth.Identity) error
	Me(ctx context.Context, who auth.Identity) (*db.User, error)
}

type CarService interface {
	ListAvailable(ctx context.Context) ([]entities.CarResponse, error)
	ListAll(ctx context.Context) ([]entities.CarResponse, error)
	Get(ctx context.Context, id int64) (*entities.CarResponse, error)
	Create(ctx context.Context, in entities.CarInput) (*entities.CarResponse, error)
	Update(ctx context.Context, id int64, in entities.CarInput) (*entities.CarResponse, error)
	Delete(ctx context.Context, id int64) error
}

type BookingService interface {
	Admit(ctx context.Context, who auth.Identity, req entities.BookingRequest) (*entities.BookingConfirmation, error)
	Quote(ctx context.Context, carID int64, pickup, ret time.Time) (*entities.AvailabilityResponse, error)
	Cancel(ctx context.Context, who auth.Identity, bookingID int64) error
	ListMine(ctx context.Context, who auth.Identity) (*entities.BookingsList, error)
	ListAll(ctx context.Context) (*entities.BookingsList, error)
}

var (
	_ AuthService    = (*service.AuthService)(nil)
	_ CarService     = (*service.CarService)(nil)
	_ BookingService = (*service.BookingService)(nil)
)
