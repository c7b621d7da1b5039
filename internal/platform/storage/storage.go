package storage

import (
	"context"
	"fmt"

	"errdeck/internal/platform/config"
	"errdeck/internal/platform/models"
)

// Config keys owned by the panel.
const (
	KeySlackIntegration = "slackIntegration"
	KeyEmailIntegration = "emailIntegration"
	KeyAlertURL         = "alertUrl"
	KeyJWTSecret        = "jwtSecretKey"
)

// Storage is the pluggable persistence adapter behind the panel. Lookups
// for absent rows return (nil, nil), never an error. Credential hashing
// and verification are the adapter's responsibility.
type Storage interface {
	Name() string
	Version() string
	Dialect() string
	Ping(ctx context.Context) error
	Close() error

	GetConfig(ctx context.Context, key string) (*models.ConfigItem, error)
	SetConfig(ctx context.Context, key, value string) (*models.ConfigItem, error)
	DeleteConfig(ctx context.Context, key string) error

	GetUserCount(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error)
	VerifyUser(ctx context.Context, email, password string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserByEmail(ctx context.Context, email, name string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, currentPassword, newPassword string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SchemaManager is implemented by adapters that can bootstrap their own
// schema. Used by cmd/migrate.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}

// Open builds the adapter selected by the storage config.
func Open(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(cfg.DSN)
	case "postgres":
		return OpenPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
