package entities

import "time"

type BookingRequest struct {
	CarID      int64
	PickupDate time.Time
	ReturnDate time.Time
}

type BookingConfirmation struct {
	BookingID  int64  `json:"booking_id"`
	CarID      int64  `json:"car_id"`
	PickupDate string `json:"pickup_date"`
	ReturnDate string `json:"return_date"`
	Days       int    `json:"days"`
	TotalCost  string `json:"total_cost"`
}
