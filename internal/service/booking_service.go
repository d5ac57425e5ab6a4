package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"carrental/internal/auth"
	"carrental/internal/booking"
	"carrental/internal/db"
	"carrental/internal/entities"
	"carrental/internal/metrics"
	"carrental/internal/repository"
	"carrental/internal/utils"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CarLocker interface {
	GetCar(ctx context.Context, id int64) (*db.Car, error)
	GetCarForUpdate(ctx context.Context, id int64) (*db.Car, error)
}

type BookingStore interface {
	ListBookingsForCar(ctx context.Context, carID int64) ([]booking.Interval, error)
	InsertBooking(ctx context.Context, b *db.Booking) error
	DeleteBooking(ctx context.Context, id int64) (*db.BookingDetail, error)
	DeleteCustomerBooking(ctx context.Context, id, customerID int64) (*db.BookingDetail, error)
	ListCustomerBookings(ctx context.Context, customerID int64) ([]db.BookingDetail, error)
	ListAllBookings(ctx context.Context) ([]db.BookingDetail, error)
}

type BookingService struct {
	tx       Transactor
	cars     CarLocker
	bookings BookingStore
	sender   *SenderService
	clock    booking.Clock
	rate     decimal.Decimal
	logger   *zerolog.Logger
}

func NewBookingService(tx Transactor, cars CarLocker, bookings BookingStore, sender *SenderService,
	clock booking.Clock, rate decimal.Decimal, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		tx:       tx,
		cars:     cars,
		bookings: bookings,
		sender:   sender,
		clock:    clock,
		rate:     rate,
		logger:   logger,
	}
}

// Admit runs the admission workflow for one booking request: date checks,
// car lookup, availability gate, pricing and persistence. The car row stays
// locked from lookup to commit, so two admissions for the same car never
// interleave. The confirmation message is written in the same transaction
// and delivered after commit.
func (s *BookingService) Admit(ctx context.Context, who auth.Identity, req entities.BookingRequest) (*entities.BookingConfirmation, error) {
	b, err := s.admit(ctx, who, req)
	metrics.BookingAdmissions.WithLabelValues(booking.Outcome(err)).Inc()
	if err != nil {
		ev := s.logger.Info()
		if errors.Is(err, booking.ErrPersistence) {
			ev = s.logger.Error()
		}
		ev.Err(err).Int64("car_id", req.CarID).Int64("user_id", who.UserID).Msg("booking rejected")
		return nil, err
	}

	s.sender.Trigger()
	s.logger.Info().Int64("booking_id", b.ID).Int64("car_id", b.CarID).Str("total", utils.FormatMoney(b.TotalCost)).Msg("booking confirmed")

	return &entities.BookingConfirmation{
		BookingID:  b.ID,
		CarID:      b.CarID,
		PickupDate: utils.FormatDate(b.PickupDate),
		ReturnDate: utils.FormatDate(b.ReturnDate),
		Days:       booking.NewInterval(b.PickupDate, b.ReturnDate).Days(),
		TotalCost:  utils.FormatMoney(b.TotalCost),
	}, nil
}

func (s *BookingService) admit(ctx context.Context, who auth.Identity, req entities.BookingRequest) (*db.Booking, error) {
	if !who.Role.CanBook() {
		return nil, ErrForbidden
	}

	candidate := booking.NewInterval(req.PickupDate, req.ReturnDate)
	if err := booking.CheckDates(candidate, s.clock.Today()); err != nil {
		return nil, err
	}

	var created *db.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		car, err := s.cars.GetCarForUpdate(ctx, req.CarID)
		if errors.Is(err, repository.ErrNotFound) {
			return booking.ErrNotFound
		}
		if err != nil {
			return err
		}

		existing, err := s.bookings.ListBookingsForCar(ctx, car.ID)
		if err != nil {
			return err
		}
		if err := booking.CheckBookable(car.IsAvailable, candidate, existing); err != nil {
			return err
		}

		b := &db.Booking{
			CustomerID: who.UserID,
			CarID:      car.ID,
			PickupDate: candidate.Start,
			ReturnDate: candidate.End,
			TotalCost:  booking.Price(candidate, s.rate),
		}
		if err := s.bookings.InsertBooking(ctx, b); err != nil {
			if errors.Is(err, repository.ErrOverlap) {
				return booking.ErrDateConflict
			}
			return err
		}

		detail := db.BookingDetail{Booking: *b, CarName: car.Name, CarModel: car.Model, CustomerUsername: who.Username}
		if err := s.sender.EnqueueBookingConfirmed(ctx, detail); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, persistenceError(err)
	}
	return created, nil
}

// persistenceError tags storage failures as ErrPersistence and passes
// admission rule failures through.
func persistenceError(err error) error {
	for _, known := range []error{
		booking.ErrNotFound, booking.ErrCarUnavailable, booking.ErrDateConflict,
		ErrForbidden, ErrBookingNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", booking.ErrPersistence, err)
}

// Quote checks a date range against a car without booking it.
func (s *BookingService) Quote(ctx context.Context, carID int64, pickup, ret time.Time) (*entities.AvailabilityResponse, error) {
	candidate := booking.NewInterval(pickup, ret)
	if err := booking.CheckDates(candidate, s.clock.Today()); err != nil {
		return nil, err
	}

	car, err := s.cars.GetCar(ctx, carID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, persistenceError(err)
	}
	existing, err := s.bookings.ListBookingsForCar(ctx, car.ID)
	if err != nil {
		return nil, persistenceError(err)
	}

	resp := &entities.AvailabilityResponse{
		CarID:       car.ID,
		PickupDate:  utils.FormatDate(candidate.Start),
		ReturnDate:  utils.FormatDate(candidate.End),
		IsAvailable: true,
		Days:        candidate.Days(),
		TotalCost:   utils.FormatMoney(booking.Price(candidate, s.rate)),
	}
	if err := booking.CheckBookable(car.IsAvailable, candidate, existing); err != nil {
		resp.IsAvailable = false
		resp.Message = err.Error()
	}
	return resp, nil
}

// Cancel deletes a booking. Administrators may cancel any booking, customers
// only their own; a booking owned by someone else is reported as not found.
func (s *BookingService) Cancel(ctx context.Context, who auth.Identity, bookingID int64) error {
	var detail *db.BookingDetail
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		switch {
		case who.Role.ManagesFleet():
			detail, err = s.bookings.DeleteBooking(ctx, bookingID)
		case who.Role.CanBook():
			detail, err = s.bookings.DeleteCustomerBooking(ctx, bookingID, who.UserID)
		default:
			return ErrForbidden
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		return s.sender.EnqueueBookingCancelled(ctx, *detail)
	})
	if err != nil {
		return persistenceError(err)
	}

	metrics.BookingCancellations.WithLabelValues(string(who.Role)).Inc()
	s.sender.Trigger()
	s.logger.Info().Int64("booking_id", bookingID).Str("by", who.Username).Msg("booking cancelled")
	return nil
}

func (s *BookingService) ListMine(ctx context.Context, who auth.Identity) (*entities.BookingsList, error) {
	list, err := s.bookings.ListCustomerBookings(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	return toBookingsList(list, false), nil
}

func (s *BookingService) ListAll(ctx context.Context) (*entities.BookingsList, error) {
	list, err := s.bookings.ListAllBookings(ctx)
	if err != nil {
		return nil, err
	}
	return toBookingsList(list, true), nil
}

func toBookingsList(list []db.BookingDetail, withCustomer bool) *entities.BookingsList {
	out := &entities.BookingsList{Total: len(list), Bookings: make([]entities.BookingResponse, 0, len(list))}
	for _, d := range list {
		r := entities.BookingResponse{
			ID:         d.ID,
			CarID:      d.CarID,
			CarName:    d.CarName,
			CarModel:   d.CarModel,
			PickupDate: utils.FormatDate(d.PickupDate),
			ReturnDate: utils.FormatDate(d.ReturnDate),
			TotalCost:  utils.FormatMoney(d.TotalCost),
			CreatedAt:  d.CreatedAt,
		}
		if withCustomer {
			r.CustomerID = d.CustomerID
			r.CustomerUsername = d.CustomerUsername
		}
		out.Bookings = append(out.Bookings, r)
	}
	return out
}
