package profilerepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(mockDB.Close)

	return repo, mockDB
}

func TestRepository_FindByUserID(t *testing.T) {
	repo, mock := NewMock(t)

	userID := uuid.New()
	profileID := uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta("SELECT id, user_id, full_name, role, email, created_at, updated_at FROM user_profiles WHERE user_id = $1")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.UserProfile
	}{
		{
			name: "Profile found",
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "user_id", "full_name", "role", "email", "created_at", "updated_at"}).
					AddRow(profileID, userID, "Aline Uwase", domain.RoleHomeowner, "aline@example.rw", now, now)
				mock.ExpectQuery(query).WithArgs(userID).WillReturnRows(rows)
			},
			result: &domain.UserProfile{
				ID:        profileID,
				UserID:    userID,
				FullName:  "Aline Uwase",
				Role:      domain.RoleHomeowner,
				Email:     "aline@example.rw",
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		{
			name: "Profile not found",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(userID).WillReturnError(pgx.ErrNoRows)
			},
			result: nil,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(userID).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByUserID(context.Background(), userID)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)

	userID := uuid.New()
	profileID := uuid.New()
	now := time.Now()
	query := regexp.QuoteMeta(`
		INSERT INTO user_profiles (user_id, full_name, role, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Create profile successfully",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, "Jean Bosco", domain.RoleWorker, "jb@example.rw").
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(profileID, now, now))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(userID, "Jean Bosco", domain.RoleWorker, "jb@example.rw").
					WillReturnError(errors.New("duplicate key"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			p := &domain.UserProfile{UserID: userID, FullName: "Jean Bosco", Role: domain.RoleWorker, Email: "jb@example.rw"}
			result, err := repo.Create(context.Background(), p)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, profileID, result.ID)
			}
		})
	}
}

func TestRepository_SubjectID(t *testing.T) {
	repo, mock := NewMock(t)

	userID := uuid.New()
	workerID := uuid.New()
	query := regexp.QuoteMeta(`SELECT id FROM "workers" WHERE user_id = $1`)

	mock.ExpectQuery(query).WithArgs(userID).WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(workerID))
	id, err := repo.SubjectID(context.Background(), domain.RoleWorker, userID)
	assert.NoError(t, err)
	assert.Equal(t, workerID, id)

	mock.ExpectQuery(query).WithArgs(userID).WillReturnError(pgx.ErrNoRows)
	id, err = repo.SubjectID(context.Background(), domain.RoleWorker, userID)
	assert.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)

	_, err = repo.SubjectID(context.Background(), domain.Role("guest"), userID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRepository_UserIDForSubject(t *testing.T) {
	repo, mock := NewMock(t)

	userID := uuid.New()
	homeownerID := uuid.New()
	query := regexp.QuoteMeta(`SELECT user_id FROM "homeowners" WHERE id = $1`)

	mock.ExpectQuery(query).WithArgs(homeownerID).WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))
	id, err := repo.UserIDForSubject(context.Background(), domain.RoleHomeowner, homeownerID)
	assert.NoError(t, err)
	assert.Equal(t, userID, id)

	mock.ExpectQuery(query).WithArgs(homeownerID).WillReturnError(pgx.ErrNoRows)
	_, err = repo.UserIDForSubject(context.Background(), domain.RoleHomeowner, homeownerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
