package repository

import (
	"context"
	"database/sql"
	"time"

	"spacloud/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// EventRepo is the append-only service event log.
type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]models.DeviceEvent, error)
}

// TokenRepo persists the cloud session so a restart does not force a fresh
// login against the rate-limited endpoint.
type TokenRepo interface {
	Save(ctx context.Context, t models.CloudToken) error
	Load(ctx context.Context) (models.CloudToken, error)
}

type Repository struct {
	Events EventRepo
	Tokens TokenRepo
	Auth   Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(db),
		Tokens: NewTokenSQLite(db),
		Auth:   NewUserRepository(db),
	}
}
