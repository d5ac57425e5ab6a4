package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"carrental/internal/auth"
	"carrental/internal/booking"
	apperrors "carrental/internal/errors"
	"carrental/internal/service"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ErrBadRequest("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.ErrBadRequest(fmt.Sprintf("field %s failed validation: %s", fe.Field(), fe.Tag()))
		}
		return apperrors.ErrBadRequest("invalid request body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrBadRequest("invalid id")
	}
	return id, nil
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// toHTTPError maps domain errors to the status shown to the client. User
// correctable errors keep their message.
func toHTTPError(err error) *apperrors.HTTPError {
	var httpErr *apperrors.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrCodeExpired):
		return apperrors.ErrBadRequest(err.Error())
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrCodeNotFound):
		return apperrors.ErrNotFound(err.Error())
	case errors.Is(err, booking.ErrCarUnavailable),
		errors.Is(err, booking.ErrDateConflict),
		errors.Is(err, service.ErrCarHasBookings),
		errors.Is(err, service.ErrUsernameTaken):
		return apperrors.ErrConflict(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.ErrUnauthorized(err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrEmailNotVerified):
		return apperrors.ErrForbidden(err.Error())
	case errors.Is(err, booking.ErrPersistence):
		return apperrors.ErrServiceUnavailable(booking.ErrPersistence.Error())
	default:
		return apperrors.ErrInternal()
	}
}

func writeError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	httpErr := toHTTPError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", httpErr.Code).Msg("request failed")
	}
	writeJSON(w, httpErr.Code, ErrorResponse{Error: httpErr.Message})
}
