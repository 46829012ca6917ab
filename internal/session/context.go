// Package session is the process-wide authentication context. It restores
// the signed-in user from a persisted store and exposes explicit Set and
// Clear operations; views receive the resulting Session by value.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carrental-web/internal/models"
)

// Validator turns a bearer token into a session.
type Validator interface {
	SessionFromToken(token string) (models.Session, error)
}

// Context holds the current session.
type Context struct {
	store     Store
	validator Validator

	mu      sync.RWMutex
	current models.Session
}

// NewContext restores the session saved in store. A saved token that no
// longer validates yields a guest session.
func NewContext(ctx context.Context, store Store, validator Validator) (*Context, error) {
	c := &Context{store: store, validator: validator}

	token, ok, err := store.Get(ctx, KeyToken)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}
	if !ok || token == "" {
		return c, nil
	}

	s, err := validator.SessionFromToken(token)
	if err != nil {
		log.WithError(err).Warn("Stored session token rejected, continuing as guest")
		return c, nil
	}
	c.current = s
	return c, nil
}

// Current returns the session; the zero value is a guest.
func (c *Context) Current() models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Set validates token, persists it with its user and makes it current.
func (c *Context) Set(ctx context.Context, token string) (models.Session, error) {
	s, err := c.validator.SessionFromToken(token)
	if err != nil {
		return models.Session{}, err
	}

	user, err := json.Marshal(s.User)
	if err != nil {
		return models.Session{}, fmt.Errorf("encode session user: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Put(ctx, KeyToken, s.Token); err != nil {
		return models.Session{}, fmt.Errorf("save session token: %w", err)
	}
	if err := c.store.Put(ctx, KeyUser, string(user)); err != nil {
		return models.Session{}, fmt.Errorf("save session user: %w", err)
	}
	c.current = s

	log.WithFields(log.Fields{"username": s.User.Username, "role": s.Role()}).Info("Session started")
	return s, nil
}

// Clear forgets the session, in memory and in the store.
func (c *Context) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = models.Session{}
	if err := c.store.Delete(ctx, KeyToken); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	if err := c.store.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("clear session user: %w", err)
	}
	return nil
}

// StoredUser returns the profile saved under the "user" key.
func (c *Context) StoredUser(ctx context.Context) (*models.User, error) {
	raw, ok, err := c.store.Get(ctx, KeyUser)
	if err != nil || !ok {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return &u, nil
}
