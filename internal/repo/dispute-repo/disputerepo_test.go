package disputerepo

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

var disputeColumns = []string{"id", "booking_id", "raised_by", "respondent_id", "reason", "description", "status",
	"resolution_action", "resolution_notes", "refund_amount", "resolved_by", "resolved_at", "created_at", "updated_at"}

func sampleDispute() domain.Dispute {
	now := time.Date(2026, 8, 3, 14, 0, 0, 0, time.UTC)
	return domain.Dispute{
		ID:           uuid.New(),
		BookingID:    uuid.New(),
		RaisedBy:     uuid.New(),
		RespondentID: uuid.New(),
		Reason:       "no_show",
		Description:  "Worker did not arrive",
		Status:       domain.DisputeOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func disputeRow(d domain.Dispute) []any {
	return []any{d.ID, d.BookingID, d.RaisedBy, d.RespondentID, d.Reason, d.Description, d.Status,
		d.ResolutionAction, d.ResolutionNotes, d.RefundAmount, nil, nil, d.CreatedAt, d.UpdatedAt}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	d := sampleDispute()
	id := d.ID
	query := regexp.QuoteMeta("INSERT INTO disputes (booking_id, raised_by, respondent_id, reason, description, status)")

	mock.ExpectQuery(query).
		WithArgs(d.BookingID, d.RaisedBy, d.RespondentID, d.Reason, d.Description, domain.DisputeOpen).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, d.CreatedAt, d.UpdatedAt))
	d.ID = uuid.Nil
	result, err := repo.Create(context.Background(), &d)
	require.NoError(t, err)
	assert.Equal(t, id, result.ID)

	mock.ExpectQuery(query).WillReturnError(errors.New("database error"))
	_, err = repo.Create(context.Background(), &d)
	assert.Error(t, err)
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := NewMock(t)
	d := sampleDispute()
	query := regexp.QuoteMeta("FROM disputes WHERE id = $1")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.Dispute
	}{
		{
			name: "Dispute found",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(d.ID).WillReturnRows(pgxmock.NewRows(disputeColumns).AddRow(disputeRow(d)...))
			},
			result: &d,
		},
		{
			name: "Dispute not found",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(d.ID).WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(d.ID).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetByID(context.Background(), d.ID)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
		})
	}
}

func TestRepository_List(t *testing.T) {
	repo, mock := NewMock(t)
	d := sampleDispute()

	mock.ExpectQuery(regexp.QuoteMeta("FROM disputes WHERE (raised_by = $1 OR respondent_id = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs(d.RaisedBy, domain.DefaultLimit, 0).
		WillReturnRows(pgxmock.NewRows(disputeColumns).AddRow(disputeRow(d)...))

	result, err := repo.List(context.Background(), domain.DisputeFilter{PartyID: &d.RaisedBy})
	require.NoError(t, err)
	assert.Equal(t, []domain.Dispute{d}, result)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := NewMock(t)
	id, adminID := uuid.New(), uuid.New()
	query := regexp.QuoteMeta("WHERE id = $6 AND status = $7")
	upd := domain.DisputeUpdate{Action: domain.ResolutionRefundPartial, Notes: "half refund", RefundAmount: 5000, ResolvedBy: &adminID}

	mock.ExpectExec(query).
		WithArgs(domain.DisputeResolved, domain.ResolutionRefundPartial, "half refund", 5000.0, &adminID, id, domain.DisputeInvestigating).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.UpdateStatus(context.Background(), id, domain.DisputeInvestigating, domain.DisputeResolved, upd))

	mock.ExpectExec(query).
		WithArgs(domain.DisputeResolved, domain.ResolutionRefundPartial, "half refund", 5000.0, &adminID, id, domain.DisputeInvestigating).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), id, domain.DisputeInvestigating, domain.DisputeResolved, upd), domain.ErrConflict)
}
