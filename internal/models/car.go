package models

import (
	"fmt"
	"math"
)

// Car represents a rentable car as exposed by the listing endpoint.
type Car struct {
	ID                string  `json:"_id"`
	Name              string  `json:"name"`
	ImagePath         string  `json:"image"`
	Available         bool    `json:"available"`
	PassengerCapacity int     `json:"passengers"`
	TransmissionType  string  `json:"transmission"` // "Automatic" or "Manual"
	LuggageCapacity   int     `json:"luggage"`      // in bags
	PricePerDay       float64 `json:"pricePerDay"`  // in USD
}

// AvailabilityLabel returns the label shown next to the availability icon.
func (c Car) AvailabilityLabel() string {
	if c.Available {
		return "Yes"
	}
	return "No"
}

// IndexOfCar returns the position of the car with the given ID, or -1.
func IndexOfCar(cars []Car, id string) int {
	for i, c := range cars {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// PriceLabel formats the daily price, dropping the cents of whole amounts.
func (c Car) PriceLabel() string {
	if c.PricePerDay == math.Trunc(c.PricePerDay) {
		return fmt.Sprintf("$%.0f", c.PricePerDay)
	}
	return fmt.Sprintf("$%.2f", c.PricePerDay)
}
