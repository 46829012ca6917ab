// Package notify delivers the transient success and failure messages raised
// by the car list.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one transient message for the user.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CarID     string    `json:"car_id,omitempty"`
	Audience  string    `json:"-"` // flash queue key, usually the session user
	CreatedAt time.Time `json:"created_at"`
}

// Success builds a success notification.
func Success(message string) Notification {
	return newNotification(LevelSuccess, message)
}

// Failure builds an error notification.
func Failure(message string) Notification {
	return newNotification(LevelError, message)
}

func newNotification(level Level, message string) Notification {
	return Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// ForCar returns a copy of n attached to a car.
func (n Notification) ForCar(id string) Notification {
	n.CarID = id
	return n
}

// To returns a copy of n addressed to a flash audience.
func (n Notification) To(audience string) Notification {
	n.Audience = audience
	return n
}

// Sender is the interface for notification senders.
type Sender interface {
	// Send delivers the notification. Errors are logged by the dispatcher.
	Send(ctx context.Context, n Notification) error

	// Name returns the sender's name for logging purposes.
	Name() string
}
