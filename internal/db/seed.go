package db

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed_cars.json
var seedCars []byte

// SeedCars returns the starter catalog inserted into an empty cars table.
func SeedCars() ([]Car, error) {
	var raw []struct {
		Name     string `json:"name"`
		Model    string `json:"model"`
		ImageURL string `json:"image_url"`
	}
	if err := json.Unmarshal(seedCars, &raw); err != nil {
		return nil, fmt.Errorf("decode seed cars: %w", err)
	}
	cars := make([]Car, 0, len(raw))
	for _, r := range raw {
		cars = append(cars, Car{Name: r.Name, Model: r.Model, ImageURL: r.ImageURL, IsAvailable: true})
	}
	return cars, nil
}
