package api

// Auth
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Email    string `json:"email" validate:"required,email,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type MeResponse struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Bookings
type CreateBookingRequest struct {
	CarID      int64  `json:"car_id" validate:"required,gt=0"`
	PickupDate string `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	ReturnDate string `json:"return_date" validate:"required,datetime=2006-01-02"`
}

// Cars
type CarRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Model    string `json:"model" validate:"required,max=50"`
	ImageURL string `json:"image_url" validate:"omitempty,max=200"`
	// IsAvailable defaults to true when omitted.
	IsAvailable *bool `json:"is_available"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
