package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"alightgram/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type CredentialRepository interface {
	Create(ctx context.Context, cred *models.Credential) error
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Credential, error)
}

type credentialRepository struct {
	db *sqlx.DB
}

func NewCredentialRepository(db *sqlx.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

const credentialColumns = `uid, email, password_hash, provider, provider_subject, created_at`

func (r *credentialRepository) Create(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO credentials (` + credentialColumns + `)
		VALUES (:uid, :email, :password_hash, :provider, :provider_subject, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, cred); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}

	return nil
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE email = $1 AND provider = $2
	`
	return r.get(ctx, query, email, models.ProviderPassword)
}

func (r *credentialRepository) GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE provider = $1 AND provider_subject = $2
	`
	return r.get(ctx, query, provider, subject)
}

func (r *credentialRepository) get(ctx context.Context, query string, args ...interface{}) (*models.Credential, error) {
	var cred models.Credential
	err := r.db.GetContext(ctx, &cred, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &cred, nil
}
