package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"carrental/internal/auth"
)

type RouterConfig struct {
	Auth     AuthService
	Cars     CarService
	Bookings BookingService
	Tokens   *auth.TokenIssuer
	// Denylist may be nil when revoked tokens are not tracked.
	Denylist    auth.Denylist
	Logger      *zerolog.Logger
	CORSOrigins []string
	// Ready backs /health; nil means always healthy.
	Ready func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth, cfg.Logger)
	userHandler := NewUserHandler(cfg.Cars, cfg.Bookings, cfg.Logger)
	adminHandler := NewAdminHandler(cfg.Cars, cfg.Bookings, cfg.Logger)
	authenticate := auth.Authenticate(cfg.Tokens, cfg.Denylist)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/health", health(cfg.Ready)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.Verify).Methods("GET")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	// Any signed-in user
	session := r.PathPrefix("/api").Subrouter()
	session.Use(authenticate)
	session.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	session.HandleFunc("/me", authHandler.Me).Methods("GET")
	session.HandleFunc("/cars", userHandler.ListCars).Methods("GET")
	session.HandleFunc("/cars/{id:[0-9]+}", userHandler.GetCar).Methods("GET")
	session.HandleFunc("/cars/{id:[0-9]+}/quote", userHandler.Quote).Methods("GET")

	// Customer endpoints
	customer := r.PathPrefix("/api/bookings").Subrouter()
	customer.Use(authenticate, auth.RequireRole(auth.RoleCustomer))
	customer.HandleFunc("", userHandler.CreateBooking).Methods("POST")
	customer.HandleFunc("", userHandler.ListBookings).Methods("GET")
	customer.HandleFunc("/{id:[0-9]+}", userHandler.CancelBooking).Methods("DELETE")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(authenticate, auth.RequireRole(auth.RoleAdmin))
	admin.HandleFunc("/cars", adminHandler.ListCars).Methods("GET")
	admin.HandleFunc("/cars", adminHandler.CreateCar).Methods("POST")
	admin.HandleFunc("/cars/{id:[0-9]+}", adminHandler.UpdateCar).Methods("PUT")
	admin.HandleFunc("/cars/{id:[0-9]+}", adminHandler.DeleteCar).Methods("DELETE")
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings/{id:[0-9]+}", adminHandler.DeleteBooking).Methods("DELETE")

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{cfg.Logger}))(h)
	h = handlers.LoggingHandler(cfg.Logger, h)
	return h
}

func health(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type recoveryLogger struct {
	logger *zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}
