package entities

type CarResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	ImageURL    string `json:"image_url"`
	IsAvailable bool   `json:"is_available"`
}

// CarInput carries the editable fields of a car.
type CarInput struct {
	Name        string
	Model       string
	ImageURL    string
	IsAvailable bool
}
