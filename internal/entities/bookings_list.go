package entities

import "time"

type BookingResponse struct {
	ID               int64     `json:"id"`
	CarID            int64     `json:"car_id"`
	CarName          string    `json:"car_name"`
	CarModel         string    `json:"car_model"`
	CustomerID       int64     `json:"customer_id,omitempty"`
	CustomerUsername string    `json:"customer_username,omitempty"`
	PickupDate       string    `json:"pickup_date"`
	ReturnDate       string    `json:"return_date"`
	TotalCost        string    `json:"total_cost"`
	CreatedAt        time.Time `json:"created_at"`
}

type BookingsList struct {
	Total    int               `json:"total"`
	Bookings []BookingResponse `json:"bookings"`
}
