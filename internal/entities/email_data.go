package entities

type BookingEmailData struct {
	CustomerName string
	BookingID    int64
	CarName      string
	CarModel     string
	PickupDate   string
	ReturnDate   string
	Days         int
	TotalCost    string
	CurrentYear  int
}

type VerificationEmailData struct {
	Username    string
	Code        string
	Link        string
	ExpiresAt   string
	CurrentYear int
}
