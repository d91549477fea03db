package bookingrepo

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

var bookingColumns = []string{"id", "homeowner_id", "worker_id", "service_type", "description", "booking_date",
	"start_time", "end_time", "address", "amount", "status", "special_requests", "created_at", "updated_at"}

func bookingRow(b domain.Booking) []any {
	return []any{b.ID, b.HomeownerID, nil, b.ServiceType, b.Description, b.BookingDate, b.StartTime, b.EndTime,
		b.Address, b.Amount, b.Status, b.SpecialRequests, b.CreatedAt, b.UpdatedAt}
}

func sampleBooking() domain.Booking {
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	return domain.Booking{
		ID:          uuid.New(),
		HomeownerID: uuid.New(),
		ServiceType: "cleaning",
		Description: "Weekly house cleaning",
		BookingDate: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   "08:00",
		EndTime:     "12:00",
		Address:     "KG 11 Ave, Kigali",
		Amount:      10000,
		Status:      domain.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := NewMock(t)
	b := sampleBooking()
	query := regexp.QuoteMeta("SELECT " + columns + " FROM bookings WHERE id = $1")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.Booking
	}{
		{
			name: "Booking found",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(b.ID).
					WillReturnRows(pgxmock.NewRows(bookingColumns).AddRow(bookingRow(b)...))
			},
			result: &b,
		},
		{
			name: "Booking not found",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(b.ID).WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(b.ID).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetByID(context.Background(), b.ID)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
		})
	}
}

func TestRepository_GetForUpdate(t *testing.T) {
	repo, mock := NewMock(t)
	b := sampleBooking()

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1 FOR UPDATE")).WithArgs(b.ID).
		WillReturnRows(pgxmock.NewRows(bookingColumns).AddRow(bookingRow(b)...))

	result, err := repo.GetForUpdate(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, result.ID)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	b := sampleBooking()
	id := b.ID
	b.ID = uuid.Nil

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(b.HomeownerID, pgxmock.AnyArg(), b.ServiceType, b.Description, b.BookingDate, b.StartTime,
			b.EndTime, b.Address, b.Amount, b.Status, b.SpecialRequests).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, b.CreatedAt, b.UpdatedAt))

	result, err := repo.Create(context.Background(), &b)
	require.NoError(t, err)
	assert.Equal(t, id, result.ID)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).WillReturnError(errors.New("fk violation"))
	_, err = repo.Create(context.Background(), &b)
	assert.Error(t, err)
}

func TestRepository_List(t *testing.T) {
	repo, mock := NewMock(t)
	b := sampleBooking()
	workerID := uuid.New()

	tests := []struct {
		name      string
		filter    domain.BookingFilter
		mockSetup func()
		expectLen int
	}{
		{
			name:   "Homeowner sees own bookings",
			filter: domain.BookingFilter{HomeownerID: &b.HomeownerID},
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE homeowner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
					WithArgs(b.HomeownerID, domain.DefaultLimit, 0).
					WillReturnRows(pgxmock.NewRows(bookingColumns).AddRow(bookingRow(b)...))
			},
			expectLen: 1,
		},
		{
			name:   "Worker sees assigned and open bookings",
			filter: domain.BookingFilter{WorkerID: &workerID, OpenForWorkers: true, Status: domain.BookingPending},
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE (worker_id = $1 OR (worker_id IS NULL AND status = 'pending')) AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
					WithArgs(workerID, domain.BookingPending, domain.DefaultLimit, 0).
					WillReturnRows(pgxmock.NewRows(bookingColumns).AddRow(bookingRow(b)...).AddRow(bookingRow(b)...))
			},
			expectLen: 2,
		},
		{
			name:   "Admin sees everything",
			filter: domain.BookingFilter{Page: domain.Page{Limit: 10, Offset: 10}},
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM bookings ORDER BY created_at DESC LIMIT $1 OFFSET $2")).
					WithArgs(10, 10).
					WillReturnRows(pgxmock.NewRows(bookingColumns))
			},
			expectLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, result, tt.expectLen)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Update(t *testing.T) {
	repo, mock := NewMock(t)
	b := sampleBooking()
	later := b.UpdatedAt.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE bookings")).
		WithArgs(b.ServiceType, b.Description, b.BookingDate, b.StartTime, b.EndTime, b.Address, b.Amount, b.SpecialRequests, b.ID).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(later))
	result, err := repo.Update(context.Background(), &b)
	require.NoError(t, err)
	assert.Equal(t, later, result.UpdatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE bookings")).WillReturnError(pgx.ErrNoRows)
	_, err = repo.Update(context.Background(), &b)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := NewMock(t)
	id := uuid.New()
	workerID := uuid.New()
	query := regexp.QuoteMeta("UPDATE bookings SET status = $1, worker_id = COALESCE($2, worker_id), updated_at = now() WHERE id = $3 AND status = $4")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr error
	}{
		{
			name: "Status moved",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(domain.BookingAssigned, &workerID, id, domain.BookingPending).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "Status changed concurrently",
			mockSetup: func() {
				mock.ExpectExec(query).WithArgs(domain.BookingAssigned, &workerID, id, domain.BookingPending).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			expectErr: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.UpdateStatus(context.Background(), id, domain.BookingPending, domain.BookingAssigned, &workerID)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := NewMock(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1")).WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	ok, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
}
