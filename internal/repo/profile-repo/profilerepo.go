package profilerepo

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

const profileColumns = "id, user_id, full_name, role, email, created_at, updated_at"

func (repo *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	query := "SELECT " + profileColumns + " FROM user_profiles WHERE user_id = $1"
	return repo.findOne(ctx, query, userID)
}

func (repo *Repository) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	query := "SELECT " + profileColumns + " FROM user_profiles WHERE lower(email) = lower($1)"
	return repo.findOne(ctx, query, email)
}

func (repo *Repository) findOne(ctx context.Context, query string, arg any) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := repo.db.QueryRow(ctx, query, arg).Scan(&p.ID, &p.UserID, &p.FullName, &p.Role, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find user profile", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (repo *Repository) Create(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	query := `
		INSERT INTO user_profiles (user_id, full_name, role, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := repo.db.QueryRow(ctx, query, p.UserID, p.FullName, p.Role, p.Email).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		zap.L().Error("can't save user profile", zap.Error(err), zap.String("user_id", p.UserID.String()))
		return nil, err
	}
	return p, nil
}

// SubjectID returns the id of the caller's row in the role table, or
// uuid.Nil when the row has not been created.
func (repo *Repository) SubjectID(ctx context.Context, role domain.Role, userID uuid.UUID) (uuid.UUID, error) {
	table := role.Table()
	if table == "" {
		return uuid.Nil, domain.ErrForbidden
	}
	query := "SELECT id FROM " + pgx.Identifier{table}.Sanitize() + " WHERE user_id = $1"
	var id uuid.UUID
	if err := repo.db.QueryRow(ctx, query, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		zap.L().Error("can't resolve subject id", zap.Error(err), zap.String("role", string(role)))
		return uuid.Nil, err
	}
	return id, nil
}

// UserIDForSubject maps a role table row back to the auth user id that owns
// it. Notifications are addressed by user id.
func (repo *Repository) UserIDForSubject(ctx context.Context, role domain.Role, subjectID uuid.UUID) (uuid.UUID, error) {
	table := role.Table()
	if table == "" {
		return uuid.Nil, domain.ErrNotFound
	}
	query := "SELECT user_id FROM " + pgx.Identifier{table}.Sanitize() + " WHERE id = $1"
	var id uuid.UUID
	if err := repo.db.QueryRow(ctx, query, subjectID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, domain.ErrNotFound
		}
		zap.L().Error("can't resolve user id", zap.Error(err), zap.String("role", string(role)))
		return uuid.Nil, err
	}
	return id, nil
}
