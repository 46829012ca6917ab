package listview

import (
	"github.com/ukydev/carrental-web/internal/models"
)

// Phase is what the list region shows.
type Phase int

const (
	PhaseLoading    Phase = iota // first fetch of the mount still in flight
	PhaseLoadFailed              // nothing to show because the fetch failed
	PhaseEmpty                   // the backend has no cars
	PhaseNoMatches               // cars exist but the search hides all of them
	PhasePopulated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoadFailed:
		return "load-failed"
	case PhaseEmpty:
		return "empty"
	case PhaseNoMatches:
		return "no-matches"
	case PhasePopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// DeleteState tracks one delete request.
type DeleteState int

const (
	DeleteIdle DeleteState = iota
	DeletePending
	DeleteSucceeded
	DeleteFailed
)

func (s DeleteState) String() string {
	switch s {
	case DeletePending:
		return "pending"
	case DeleteSucceeded:
		return "succeeded"
	case DeleteFailed:
		return "failed"
	default:
		return "idle"
	}
}

// DeleteOp is the last delete request issued for a car.
type DeleteOp struct {
	State DeleteState
	Err   error
}

// Pending reports whether the request is still outstanding.
func (op DeleteOp) Pending() bool { return op.State == DeletePending }

// Controls lists the per-card actions the session may use.
type Controls struct {
	Edit   bool
	Delete bool
	Book   bool
}

// Snapshot is a consistent copy of the view state for one render.
type Snapshot struct {
	Phase    Phase
	Items    []models.Car
	Visible  []models.Car
	Query    string
	LoadErr  error
	Controls Controls
	Deletes  map[string]DeleteOp
}

// DeleteOp returns the delete state of a car in the snapshot.
func (s Snapshot) DeleteOp(id string) DeleteOp {
	return s.Deletes[id]
}

func phaseOf(loading bool, items, visible []models.Car, loadErr error) Phase {
	switch {
	case loading:
		return PhaseLoading
	case len(items) == 0 && loadErr != nil:
		return PhaseLoadFailed
	case len(items) == 0:
		return PhaseEmpty
	case len(visible) == 0:
		return PhaseNoMatches
	default:
		return PhasePopulated
	}
}
