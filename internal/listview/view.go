package listview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carrental-web/internal/models"
	"github.com/ukydev/carrental-web/internal/notify"
)

var (
	ErrForbidden     = errors.New("action requires an admin session")
	ErrCancelled     = errors.New("action cancelled")
	ErrDeletePending = errors.New("delete already in progress")
	ErrDisposed      = errors.New("view is unmounted")
	ErrSuperseded    = errors.New("load superseded by a newer one")
	ErrNotFound      = errors.New("car not found")
)

// Messages shown to the user after a delete.
const (
	DeletePrompt         = "Are you sure you want to delete this car?"
	DeleteSuccessMessage = "Car deleted successfully"
	DeleteFailureMessage = "Failed to delete car"
)

// CarAPI is the backend the view reads from and deletes through.
type CarAPI interface {
	ListCars(ctx context.Context) ([]models.Car, error)
	DeleteCar(ctx context.Context, id, token string) error
}

// Notifier receives the toasts raised by deletes.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notification)
}

// View owns the list state for one mount.
type View struct {
	api       CarAPI
	session   models.Session
	notifier  Notifier
	confirmer Confirmer
	logger    log.FieldLogger
	audience  string

	mu         sync.Mutex
	items      []models.Car
	loading    bool
	query      string
	loadErr    error
	deletes    map[string]DeleteOp
	generation uint64
	cancelLoad context.CancelFunc
	disposed   bool
}

// Option configures a View.
type Option func(*View)

// WithConfirmer sets the yes/no prompt used before deletes.
func WithConfirmer(c Confirmer) Option {
	return func(v *View) { v.confirmer = c }
}

// WithNotifier sets where delete outcomes are reported.
func WithNotifier(n Notifier) Option {
	return func(v *View) { v.notifier = n }
}

// WithLogger sets the logger for load and delete diagnostics.
func WithLogger(l log.FieldLogger) Option {
	return func(v *View) { v.logger = l }
}

// WithAudience tags notifications for a flash queue.
func WithAudience(audience string) Option {
	return func(v *View) { v.audience = audience }
}

type discardNotifier struct{}

func (discardNotifier) Dispatch(context.Context, notify.Notification) {}

// New creates an unmounted view for session. Without WithConfirmer every
// delete is declined.
func New(api CarAPI, session models.Session, opts ...Option) *View {
	v := &View{
		api:       api,
		session:   session,
		notifier:  discardNotifier{},
		confirmer: Declined,
		logger:    log.WithField("component", "listview"),
		loading:   true,
		deletes:   make(map[string]DeleteOp),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Session returns the session the view was built for.
func (v *View) Session() models.Session {
	return v.session
}

// Mount resets the state and loads the collection. It blocks until the
// fetch settles; the returned error is informational, the state already
// reflects it.
func (v *View) Mount(ctx context.Context) error {
	return v.load(ctx, true)
}

// Navigate re-fetches after a navigation change, keeping current items
// until the new result arrives.
func (v *View) Navigate(ctx context.Context) error {
	return v.load(ctx, false)
}

// Reload retries the fetch after a failure.
func (v *View) Reload(ctx context.Context) error {
	return v.load(ctx, false)
}

// Unmount cancels any in-flight load and freezes the state.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.disposed = true
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
}

// load fetches the collection. With reset set, the state is cleared in the
// same critical section that supersedes any in-flight load.
func (v *View) load(parent context.Context, reset bool) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return ErrDisposed
	}
	if v.cancelLoad != nil {
		v.cancelLoad()
	}
	if reset {
		v.items = nil
		v.loading = true
		v.query = ""
		v.loadErr = nil
		v.deletes = make(map[string]DeleteOp)
	}
	v.generation++
	gen := v.generation
	ctx, cancel := context.WithCancel(parent)
	v.cancelLoad = cancel
	v.mu.Unlock()
	defer cancel()

	cars, err := v.api.ListCars(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return ErrDisposed
	}
	if gen != v.generation {
		return ErrSuperseded
	}
	v.cancelLoad = nil
	v.loading = false

	if err != nil {
		v.loadErr = err
		v.logger.WithError(err).Error("Error fetching cars")
		return fmt.Errorf("load cars: %w", err)
	}

	v.items = cars
	v.loadErr = nil
	v.logger.WithField("count", len(cars)).Debug("Loaded cars")
	return nil
}

// SetQuery replaces the search text.
func (v *View) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = q
}

// Query returns the search text.
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Items returns a copy of the loaded collection.
func (v *View) Items() []models.Car {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Car(nil), v.items...)
}

// Visible returns the loaded cars matching the search text.
func (v *View) Visible() []models.Car {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Filter(v.items, v.query)
}

// IsLoading reports whether the first fetch of the mount is in flight.
func (v *View) IsLoading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// LoadErr returns the error of the last settled load, if it failed.
func (v *View) LoadErr() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadErr
}

// Controls reports which card actions the session may see.
func (v *View) Controls() Controls {
	admin := v.session.IsAdmin()
	return Controls{Edit: admin, Delete: admin, Book: true}
}

// DeleteStatus returns the last delete request made for id.
func (v *View) DeleteStatus(id string) DeleteOp {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deletes[id]
}

// Snapshot copies the state needed for one render.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	items := append([]models.Car(nil), v.items...)
	visible := Filter(items, v.query)
	deletes := make(map[string]DeleteOp, len(v.deletes))
	for id, op := range v.deletes {
		deletes[id] = op
	}

	return Snapshot{
		Phase:    phaseOf(v.loading, items, visible, v.loadErr),
		Items:    items,
		Visible:  visible,
		Query:    v.query,
		LoadErr:  v.loadErr,
		Controls: v.Controls(),
		Deletes:  deletes,
	}
}

// Edit routes to the edit view of a car.
func (v *View) Edit(id string) (Route, error) {
	if !v.session.IsAdmin() {
		return Route{}, ErrForbidden
	}
	return editRoute(id), nil
}

// Book routes to the booking view, or to the login page for guests.
func (v *View) Book(id string) Route {
	if !v.session.IsAuthenticated() {
		return loginRoute()
	}
	return bookRoute(id)
}

// Delete asks for confirmation and removes a car through the backend.
// Items change only once the backend has accepted the removal.
func (v *View) Delete(ctx context.Context, id string) error {
	if !v.session.IsAdmin() {
		return ErrForbidden
	}
	if err := v.checkDeletable(id); err != nil {
		return err
	}

	ok, err := v.confirmer.Confirm(ctx, DeletePrompt)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return ErrCancelled
	}

	v.mu.Lock()
	if v.deletes[id].Pending() {
		v.mu.Unlock()
		return ErrDeletePending
	}
	// another confirmed delete may have removed it while the prompt was open
	if models.IndexOfCar(v.items, id) < 0 {
		v.mu.Unlock()
		return ErrNotFound
	}
	v.deletes[id] = DeleteOp{State: DeletePending}
	v.mu.Unlock()

	logger := v.logger.WithField("car_id", id)
	err = v.api.DeleteCar(ctx, id, v.session.Token)

	v.mu.Lock()
	if err != nil {
		v.deletes[id] = DeleteOp{State: DeleteFailed, Err: err}
	} else {
		v.deletes[id] = DeleteOp{State: DeleteSucceeded}
		if !v.disposed {
			v.items = removeCar(v.items, id)
		}
	}
	v.mu.Unlock()

	if err != nil {
		logger.WithError(err).Error("Failed to delete car")
		v.notifier.Dispatch(ctx, notify.Failure(DeleteFailureMessage).ForCar(id).To(v.audience))
		return fmt.Errorf("delete car %s: %w", id, err)
	}

	logger.Info("Car deleted")
	v.notifier.Dispatch(ctx, notify.Success(DeleteSuccessMessage).ForCar(id).To(v.audience))
	return nil
}

func (v *View) checkDeletable(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return ErrDisposed
	}
	if v.deletes[id].Pending() {
		return ErrDeletePending
	}
	if models.IndexOfCar(v.items, id) < 0 {
		return ErrNotFound
	}
	return nil
}

func removeCar(cars []models.Car, id string) []models.Car {
	out := make([]models.Car, 0, len(cars))
	for _, c := range cars {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
