package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"carrental/internal/entities"
)

type AdminHandler struct {
	Cars     CarService
	Bookings BookingService
	Logger   *zerolog.Logger
}

func NewAdminHandler(cars CarService, bookings BookingService, logger *zerolog.Logger) *AdminHandler {
	return &AdminHandler{Cars: cars, Bookings: bookings, Logger: logger}
}

func (h *AdminHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.Cars.ListAll(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cars)
}

func carInput(req CarRequest) entities.CarInput {
	in := entities.CarInput{Name: req.Name, Model: req.Model, ImageURL: req.ImageURL, IsAvailable: true}
	if req.IsAvailable != nil {
		in.IsAvailable = *req.IsAvailable
	}
	return in
}

func (h *AdminHandler) CreateCar(w http.ResponseWriter, r *http.Request) {
	var req CarRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	car, err := h.Cars.Create(r.Context(), carInput(req))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, car)
}

func (h *AdminHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	var req CarRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	car, err := h.Cars.Update(r.Context(), id, carInput(req))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (h *AdminHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if err := h.Cars.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Car deleted."})
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.Bookings.ListAll(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteBooking cancels any customer's booking.
func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if err := h.Bookings.Cancel(r.Context(), identity(r), id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Booking deleted."})
}
