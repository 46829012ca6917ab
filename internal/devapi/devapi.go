// Package devapi is an in-memory car backend for local development and
// tests. It serves the same routes as the real API over a generated fleet.
package devapi

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carrental-web/internal/auth"
	"github.com/ukydev/carrental-web/internal/models"
)

var (
	makes = map[string][]string{
		"Automatic": {"Toyota", "Tesla", "Honda", "BMW", "Audi"},
		"Manual":    {"Ford", "Volkswagen", "Mazda", "Fiat", "Peugeot"},
	}
	carModels = map[string][]string{
		"Automatic": {"Corolla", "Model 3", "Accord", "X5", "Q5"},
		"Manual":    {"Mustang", "Golf", "MX-5", "Panda", "208"},
	}
	transmissions = []string{"Automatic", "Manual"}
)

// Validator resolves a bearer token to a session.
type Validator interface {
	SessionFromToken(token string) (models.Session, error)
}

// Backend holds the fleet served by Handler.
type Backend struct {
	mu        sync.RWMutex
	cars      []models.Car
	validator Validator
}

// NewBackend serves cars. With a nil validator any bearer token may delete;
// otherwise only admin tokens can.
func NewBackend(cars []models.Car, validator Validator) *Backend {
	return &Backend{
		cars:      append([]models.Car(nil), cars...),
		validator: validator,
	}
}

// GenerateFleet builds n random cars.
func GenerateFleet(n int, rng *rand.Rand) []models.Car {
	cars := make([]models.Car, 0, n)
	for i := 0; i < n; i++ {
		transmission := transmissions[rng.Intn(len(transmissions))]
		idx := rng.Intn(len(makes[transmission]))
		name := fmt.Sprintf("%s %s", makes[transmission][idx], carModels[transmission][idx])

		cars = append(cars, models.Car{
			ID:                strings.ReplaceAll(uuid.New().String(), "-", "")[:24],
			Name:              name,
			ImagePath:         "/uploads/" + strings.ToLower(strings.ReplaceAll(name, " ", "-")) + ".png",
			Available:         rng.Intn(4) != 0,
			PassengerCapacity: 2 + rng.Intn(6),
			TransmissionType:  transmission,
			LuggageCapacity:   1 + rng.Intn(4),
			PricePerDay:       float64(30 + 5*rng.Intn(30)),
		})
	}
	return cars
}

// Cars returns a copy of the current fleet.
func (b *Backend) Cars() []models.Car {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Car(nil), b.cars...)
}

// Handler returns the API routes.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cars", b.listCars)
	mux.HandleFunc("DELETE /api/cars/{id}", b.deleteCar)
	return mux
}

func (b *Backend) listCars(w http.ResponseWriter, _ *http.Request) {
	cars := b.Cars()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cars); err != nil {
		log.WithError(err).Error("Failed to encode cars")
	}
}

func (b *Backend) deleteCar(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		http.Error(w, "Authorization header required", http.StatusUnauthorized)
		return
	}

	if b.validator != nil {
		s, err := b.validator.SessionFromToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		if !s.IsAdmin() {
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
			return
		}
	}

	id := r.PathValue("id")

	b.mu.Lock()
	idx := models.IndexOfCar(b.cars, id)
	if idx >= 0 {
		b.cars = append(b.cars[:idx], b.cars[idx+1:]...)
	}
	b.mu.Unlock()

	if idx < 0 {
		http.Error(w, "Car not found", http.StatusNotFound)
		return
	}

	log.WithField("car_id", id).Info("Deleted car")
	w.WriteHeader(http.StatusNoContent)
}
