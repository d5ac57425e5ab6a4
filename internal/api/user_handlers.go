package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
	"carrental/internal/utils"
)

type UserHandler struct {
	Cars     CarService
	Bookings BookingService
	Logger   *zerolog.Logger
}

func NewUserHandler(cars CarService, bookings BookingService, logger *zerolog.Logger) *UserHandler {
	return &UserHandler{Cars: cars, Bookings: bookings, Logger: logger}
}

func (h *UserHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Cars.ListAvailable(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cars)
}

func (h *UserHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	car, err := h.Cars.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

// Quote reports whether the car can be booked for ?pickup=&return= and the
// price of the stay.
func (h *UserHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	pickup, err := utils.ParseDate(r.URL.Query().Get("pickup"))
	if err != nil {
		writeError(w, h.Logger, apperrors.ErrBadRequest(err.Error()))
		return
	}
	ret, err := utils.ParseDate(r.URL.Query().Get("return"))
	if err != nil {
		writeError(w, h.Logger, apperrors.ErrBadRequest(err.Error()))
		return
	}
	quote, err := h.Bookings.Quote(r.Context(), id, pickup, ret)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *UserHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	// Both dates passed the datetime validator.
	pickup, _ := utils.ParseDate(req.PickupDate)
	ret, _ := utils.ParseDate(req.ReturnDate)

	confirmation, err := h.Bookings.Admit(r.Context(), identity(r), entities.BookingRequest{
		CarID:      req.CarID,
		PickupDate: pickup,
		ReturnDate: ret,
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, confirmation)
}

func (h *UserHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.Bookings.ListMine(r.Context(), identity(r))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *UserHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if err := h.Bookings.Cancel(r.Context(), identity(r), id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Booking cancelled."})
}
