package listview

import (
	"strings"

	"github.com/ukydev/carrental-web/internal/models"
)

// Filter returns the cars whose name contains query, ignoring case.
// The result keeps the input order and never aliases cars.
func Filter(cars []models.Car, query string) []models.Car {
	q := strings.ToLower(query)
	out := make([]models.Car, 0, len(cars))
	for _, c := range cars {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
