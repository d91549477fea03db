package resetrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	query := `
		INSERT INTO password_resets (email, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, reset.Email, reset.TokenHash, reset.ExpiresAt).Scan(&reset.ID, &reset.CreatedAt)
	if err != nil {
		zap.L().Error("can't save password reset", zap.Error(err))
		return err
	}
	return nil
}

// LatestActive returns the newest unused, unexpired reset for the email.
func (r *Repository) LatestActive(ctx context.Context, email string) (*domain.PasswordReset, error) {
	query := `
		SELECT id, email, token_hash, expires_at, used_at, created_at
		FROM password_resets
		WHERE lower(email) = lower($1) AND used_at IS NULL AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1
	`
	var reset domain.PasswordReset
	err := r.db.QueryRow(ctx, query, email).
		Scan(&reset.ID, &reset.Email, &reset.TokenHash, &reset.ExpiresAt, &reset.UsedAt, &reset.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get password reset", zap.Error(err))
		return nil, err
	}
	return &reset, nil
}

// MarkUsed consumes the reset; false means it was already used.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, "UPDATE password_resets SET used_at = now() WHERE id = $1 AND used_at IS NULL", id)
	if err != nil {
		zap.L().Error("failed to consume password reset", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
