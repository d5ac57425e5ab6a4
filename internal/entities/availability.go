package entities

// AvailabilityResponse answers a quote request for a car and a date range.
type AvailabilityResponse struct {
	CarID       int64  `json:"car_id"`
	PickupDate  string `json:"pickup_date"`
	ReturnDate  string `json:"return_date"`
	IsAvailable bool   `json:"is_available"`
	Days        int    `json:"days"`
	TotalCost   string `json:"total_cost"`
	Message     string `json:"message,omitempty"`
}
