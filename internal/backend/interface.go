package backend

import (
	"context"

	"fintrack/internal/services"
)

// Store is the full persistence surface the application needs from a backend.
type Store interface {
	services.TransactionStore
	services.CategoryStore
	services.BudgetStore
	services.SavingStore
	services.UserStore
	services.SessionStore

	Ping(ctx context.Context) error
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the store, the optional reset notifier and a cleanup
// function releasing both.
type Result struct {
	Store Store
	// Notifier is nil when no broker is configured.
	Notifier services.ResetNotifier
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional AMQP broker for password reset notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
