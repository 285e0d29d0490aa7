package storage

import (
	"context"

	"github.com/roman-kulish/spirange/internal/measurement"
)

// Store provides an interface for persisting ranging sessions.
// It records each session's parameters, the raw samples and the reported result.
type Store interface {
	// CreateSession records a new ranging session and returns its unique identifier.
	// The session's ID and StartTime are assigned by the store.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - session: Session parameters
	//   - config: Optional full configuration. Can be string, []byte, or JSON-serializable object
	CreateSession(ctx context.Context, session *measurement.Session, config any) (sessionID int64, err error)

	// Session retrieves a session by its ID.
	Session(ctx context.Context, id int64) (session *measurement.Session, err error)

	// Sessions returns all sessions ordered by start time in ascending order.
	Sessions(ctx context.Context) (sessions []*measurement.Session, err error)

	// StoreSamples saves the high bit counts of a session in the order they
	// were taken. Each batch is written in a single transaction.
	StoreSamples(ctx context.Context, sessionID int64, samples []int) error

	// Samples returns the samples of a session in the order they were taken.
	Samples(ctx context.Context, sessionID int64) (samples []int, err error)

	// StoreResult saves the reported result of a session.
	StoreResult(ctx context.Context, result *measurement.Result) error

	// Result retrieves the result of a session.
	Result(ctx context.Context, sessionID int64) (result *measurement.Result, err error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}
