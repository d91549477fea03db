package notificationrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(mockDB.Close)

	return repo, mockDB
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	userID, id := uuid.New(), uuid.New()
	now := time.Now()
	query := regexp.QuoteMeta("INSERT INTO notifications (user_id, type, title, message)")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Notification stored",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(userID, "payment", "Payment Successful", "Paid").
					WillReturnRows(pgxmock.NewRows([]string{"id", "read", "created_at"}).AddRow(id, false, now))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			n := &domain.Notification{UserID: userID, Type: "payment", Title: "Payment Successful", Message: "Paid"}
			result, err := repo.Create(context.Background(), n)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, result.ID)
			assert.False(t, result.Read)
		})
	}
}

func TestRepository_ListByUser(t *testing.T) {
	repo, mock := NewMock(t)
	userID, id := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM notifications WHERE user_id = $1 AND read = false ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs(userID, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "type", "title", "message", "read", "created_at"}).
			AddRow(id, userID, "booking", "New application", "A worker applied", false, now))

	result, err := repo.ListByUser(context.Background(), userID, true, domain.Page{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, []domain.Notification{{ID: id, UserID: userID, Type: "booking", Title: "New application",
		Message: "A worker applied", CreatedAt: now}}, result)
}

func TestRepository_MarkRead(t *testing.T) {
	repo, mock := NewMock(t)
	userID, id := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2")).
		WithArgs(id, userID).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	ok, err := repo.MarkRead(context.Background(), userID, id)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = true WHERE user_id = $1 AND read = false")).
		WithArgs(userID).WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	n, err := repo.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
