package devapi

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/carrental-web/internal/auth"
	"github.com/ukydev/carrental-web/internal/models"
)

func TestGenerateFleet(t *testing.T) {
	cars := GenerateFleet(20, rand.New(rand.NewSource(1)))
	require.Len(t, cars, 20)

	seen := make(map[string]bool)
	for _, c := range cars {
		assert.Len(t, c.ID, 24)
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true

		assert.NotEmpty(t, c.Name)
		assert.Contains(t, []string{"Automatic", "Manual"}, c.TransmissionType)
		assert.GreaterOrEqual(t, c.PassengerCapacity, 2)
		assert.GreaterOrEqual(t, c.LuggageCapacity, 1)
		assert.GreaterOrEqual(t, c.PricePerDay, 30.0)
	}
}

func TestBackend_ListCars(t *testing.T) {
	backend := NewBackend([]models.Car{{ID: "c1", Name: "Toyota Corolla"}}, nil)

	req := httptest.NewRequest("GET", "/api/cars", nil)
	w := httptest.NewRecorder()
	backend.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var cars []models.Car
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cars))
	require.Len(t, cars, 1)
	assert.Equal(t, "Toyota Corolla", cars[0].Name)
}

func TestBackend_DeleteCar(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)
	token := func(role models.Role) string {
		tok, err := authService.GenerateToken(&models.User{ID: "u1", Username: "tester", Role: role})
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name      string
		validator Validator
		id        string
		header    string
		status    int
		remaining int
	}{
		{"missing token", nil, "c1", "", http.StatusUnauthorized, 2},
		{"any token without validator", nil, "c1", "Bearer x", http.StatusNoContent, 1},
		{"malformed header", nil, "c1", "Token x", http.StatusUnauthorized, 2},
		{"unknown car", nil, "nope", "Bearer x", http.StatusNotFound, 2},
		{"invalid token", authService, "c1", "Bearer garbage", http.StatusUnauthorized, 2},
		{"user token", authService, "c1", token(models.RoleUser), http.StatusForbidden, 2},
		{"admin token", authService, "c1", token(models.RoleAdmin), http.StatusNoContent, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewBackend([]models.Car{{ID: "c1"}, {ID: "c2"}}, tt.validator)

			req := httptest.NewRequest("DELETE", "/api/cars/"+tt.id, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			backend.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Len(t, backend.Cars(), tt.remaining)
		})
	}
}
