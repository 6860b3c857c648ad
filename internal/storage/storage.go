package storage

import (
	"context"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/domain"
)

// Storage defines the interface for the settings store.
// Implementations must be safe for concurrent use.
type Storage interface {
	access.Source

	// Close closes the storage connection.
	Close() error

	// BeginTx starts a transaction.
	BeginTx(ctx context.Context) (Transaction, error)

	// Settings
	GetSetting(ctx context.Context, name string) (*domain.Setting, error)
	ListSettings(ctx context.Context) ([]*domain.Setting, error)
	PutSetting(ctx context.Context, setting *domain.Setting) error
	DeleteSetting(ctx context.Context, name string) error

	// Setting changes
	CreateSettingChange(ctx context.Context, change *domain.SettingChange) error
	ListSettingChanges(ctx context.Context, limit, offset int) ([]*domain.SettingChange, error)
}

// Transaction groups writes that must land together.
type Transaction interface {
	PutSetting(ctx context.Context, setting *domain.Setting) error
	CreateSettingChange(ctx context.Context, change *domain.SettingChange) error
	Commit() error
	Rollback() error
}
