package session

import (
	"context"

	"github.com/AvaProtocol/ercx-bot/model"
)

// Mutator changes a session in place. Returning an error aborts the update
// and leaves the stored session untouched.
type Mutator func(s *model.Session) error

// Store keeps one session per user. Updates of a single user's session are
// atomic; different users never wait on each other.
type Store interface {
	// GetOrCreate returns the session of userID, creating an empty one.
	GetOrCreate(ctx context.Context, userID int64) (model.Session, error)
	// Update applies fn to the session of userID and returns the result.
	Update(ctx context.Context, userID int64, fn Mutator) (model.Session, error)
	// Reset clears the selections of userID.
	Reset(ctx context.Context, userID int64) (model.Session, error)
	// Count returns how many sessions are stored.
	Count(ctx context.Context) (int64, error)
	// List returns a snapshot of every stored session.
	List(ctx context.Context) ([]model.Session, error)
}

func resetMutator(s *model.Session) error {
	s.Reset()
	return nil
}
