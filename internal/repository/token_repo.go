package repository

import (
	"context"
	"database/sql"
	"errors"

	"spacloud/internal/models"
)

type TokenSQLite struct {
	db *sql.DB
}

func NewTokenSQLite(db *sql.DB) *TokenSQLite {
	return &TokenSQLite{db: db}
}

// The cloud session is a singleton, so the table holds one fixed row.
const (
	cloudTokenRowID = 1

	insertOrUpdateTokenSQL = `
		INSERT INTO cloud_token (id, uid, token, expire_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uid=excluded.uid,
			token=excluded.token,
			expire_at=excluded.expire_at
	`

	selectTokenSQL = `
		SELECT uid, token, expire_at
		FROM cloud_token WHERE id=?
	`
)

// Save updates or inserts the cloud_token row (id always 1).
func (r *TokenSQLite) Save(ctx context.Context, t models.CloudToken) error {
	_, err := r.db.ExecContext(ctx, insertOrUpdateTokenSQL,
		cloudTokenRowID,
		t.UID,
		t.Token,
		t.ExpireAt,
	)
	return err
}

// Load fetches the single cloud_token row (id=1). A missing row yields the
// zero value with no error.
func (r *TokenSQLite) Load(ctx context.Context) (models.CloudToken, error) {
	row := r.db.QueryRowContext(ctx, selectTokenSQL, cloudTokenRowID)

	var t models.CloudToken
	if err := row.Scan(&t.UID, &t.Token, &t.ExpireAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CloudToken{}, nil // no session stored yet
		}
		return models.CloudToken{}, err
	}
	return t, nil
}
