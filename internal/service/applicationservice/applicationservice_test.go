package applicationservice

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/internal/pg"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
)

type mocks struct {
	repo      *MockRepo
	bookings  *MockBookingRepo
	directory *MockDirectory
	notifier  *MockNotifier
	tx        *pg.MockTXManager
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		repo:      NewMockRepo(ctrl),
		bookings:  NewMockBookingRepo(ctrl),
		directory: NewMockDirectory(ctrl),
		notifier:  NewMockNotifier(ctrl),
		tx:        pg.NewMockTXManager(ctrl),
	}
	return New(m.repo, m.bookings, m.directory, m.notifier, m.tx), m
}

func (m *mocks) passthrough() {
	m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
}

// lockInOrder expects the booking row to be locked before the application row.
func (m *mocks) lockInOrder(app *domain.Application, b *domain.Booking) {
	gomock.InOrder(
		m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil),
		m.bookings.EXPECT().GetForUpdate(gomock.Any(), b.ID).Return(b, nil),
		m.repo.EXPECT().GetForUpdate(gomock.Any(), app.ID).Return(app, nil),
	)
}

var (
	admin     = &auth.Principal{UserID: uuid.New(), Role: domain.RoleAdmin, SubjectID: uuid.New()}
	homeowner = &auth.Principal{UserID: uuid.New(), Role: domain.RoleHomeowner, SubjectID: uuid.New()}
	worker    = &auth.Principal{UserID: uuid.New(), Role: domain.RoleWorker, SubjectID: uuid.New()}
	rival     = &auth.Principal{UserID: uuid.New(), Role: domain.RoleWorker, SubjectID: uuid.New()}
)

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID:          uuid.New(),
		HomeownerID: homeowner.SubjectID,
		ServiceType: "cleaning",
		Amount:      10000,
		Status:      domain.BookingPending,
	}
}

func application(b *domain.Booking, workerID uuid.UUID, status domain.ApplicationStatus) *domain.Application {
	return &domain.Application{ID: uuid.New(), BookingID: b.ID, WorkerID: workerID, Status: status}
}

func TestApply(t *testing.T) {
	t.Run("Worker applies to an open booking", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		m.bookings.EXPECT().GetByID(gomock.Any(), b.ID).Return(b, nil)
		m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *domain.Application) (*domain.Application, error) {
			assert.Equal(t, worker.SubjectID, a.WorkerID)
			assert.Equal(t, domain.ApplicationPending, a.Status)
			assert.Equal(t, 9000.0, a.ProposedRate)
			a.ID = uuid.New()
			return a, nil
		})
		m.directory.EXPECT().UserIDForSubject(gomock.Any(), domain.RoleHomeowner, homeowner.SubjectID).Return(homeowner.UserID, nil)
		m.notifier.EXPECT().Notify(gomock.Any(), homeowner.UserID, "application", "New Application", gomock.Any())

		app, err := service.Apply(context.Background(), worker, dto.ApplyRequestDTO{BookingID: b.ID, ProposedRate: 9000})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, app.ID)
	})

	t.Run("Duplicate application", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		m.bookings.EXPECT().GetByID(gomock.Any(), b.ID).Return(b, nil)
		m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, domain.ErrConflict)

		_, err := service.Apply(context.Background(), worker, dto.ApplyRequestDTO{BookingID: b.ID})

		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Booking targeted at another worker", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		b.WorkerID = &rival.SubjectID
		m.bookings.EXPECT().GetByID(gomock.Any(), b.ID).Return(b, nil)

		_, err := service.Apply(context.Background(), worker, dto.ApplyRequestDTO{BookingID: b.ID})

		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("Booking already assigned", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		b.Status = domain.BookingAssigned
		m.bookings.EXPECT().GetByID(gomock.Any(), b.ID).Return(b, nil)

		_, err := service.Apply(context.Background(), worker, dto.ApplyRequestDTO{BookingID: b.ID})

		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("Homeowners cannot apply", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.Apply(context.Background(), homeowner, dto.ApplyRequestDTO{BookingID: uuid.New()})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestAccept(t *testing.T) {
	t.Run("Accepting rejects the rest and assigns the booking", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.passthrough()
		m.lockInOrder(app, b)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), app.ID, domain.ApplicationPending, domain.ApplicationAccepted).Return(nil)
		m.repo.EXPECT().RejectSiblings(gomock.Any(), b.ID, app.ID).Return([]uuid.UUID{rival.SubjectID}, nil)
		m.bookings.EXPECT().UpdateStatus(gomock.Any(), b.ID, domain.BookingPending, domain.BookingAssigned, &worker.SubjectID).Return(nil)
		m.directory.EXPECT().UserIDForSubject(gomock.Any(), domain.RoleWorker, worker.SubjectID).Return(worker.UserID, nil)
		m.directory.EXPECT().UserIDForSubject(gomock.Any(), domain.RoleWorker, rival.SubjectID).Return(rival.UserID, nil)
		m.notifier.EXPECT().Notify(gomock.Any(), worker.UserID, "application", "Application Accepted", gomock.Any())
		m.notifier.EXPECT().Notify(gomock.Any(), rival.UserID, "application", "Application Rejected", gomock.Any())

		got, err := service.Accept(context.Background(), homeowner, app.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationAccepted, got.Status)
	})

	t.Run("Booking already taken", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		b.Status = domain.BookingAssigned
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.passthrough()
		m.lockInOrder(app, b)

		_, err := service.Accept(context.Background(), homeowner, app.ID)

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Only the booking owner may accept", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.passthrough()
		m.lockInOrder(app, b)

		_, err := service.Accept(context.Background(), worker, app.ID)

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Booking assignment fails and nothing is announced", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.passthrough()
		m.lockInOrder(app, b)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), app.ID, domain.ApplicationPending, domain.ApplicationAccepted).Return(nil)
		m.repo.EXPECT().RejectSiblings(gomock.Any(), b.ID, app.ID).Return(nil, nil)
		m.bookings.EXPECT().UpdateStatus(gomock.Any(), b.ID, domain.BookingPending, domain.BookingAssigned, &worker.SubjectID).Return(domain.ErrConflict)

		_, err := service.Accept(context.Background(), admin, app.ID)

		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Unknown application", func(t *testing.T) {
		service, m := NewMock(t)
		id := uuid.New()
		m.passthrough()
		m.repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

		_, err := service.Accept(context.Background(), homeowner, id)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Application decided while waiting for the booking lock", func(t *testing.T) {
		service, m := NewMock(t)
		b := pendingBooking()
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		decided := *app
		decided.Status = domain.ApplicationRejected
		m.passthrough()
		gomock.InOrder(
			m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil),
			m.bookings.EXPECT().GetForUpdate(gomock.Any(), b.ID).Return(b, nil),
			m.repo.EXPECT().GetForUpdate(gomock.Any(), app.ID).Return(&decided, nil),
		)

		_, err := service.Accept(context.Background(), homeowner, app.ID)

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestReject(t *testing.T) {
	service, m := NewMock(t)
	b := pendingBooking()
	app := application(b, worker.SubjectID, domain.ApplicationPending)
	m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
	m.bookings.EXPECT().GetByID(gomock.Any(), b.ID).Return(b, nil)
	m.repo.EXPECT().UpdateStatus(gomock.Any(), app.ID, domain.ApplicationPending, domain.ApplicationRejected).Return(nil)
	m.directory.EXPECT().UserIDForSubject(gomock.Any(), domain.RoleWorker, worker.SubjectID).Return(worker.UserID, nil)
	m.notifier.EXPECT().Notify(gomock.Any(), worker.UserID, "application", "Application Rejected", gomock.Any())

	got, err := service.Reject(context.Background(), homeowner, app.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationRejected, got.Status)
}

func TestWithdraw(t *testing.T) {
	b := pendingBooking()

	t.Run("Applicant withdraws", func(t *testing.T) {
		service, m := NewMock(t)
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), app.ID, domain.ApplicationPending, domain.ApplicationWithdrawn).Return(nil)

		got, err := service.Withdraw(context.Background(), worker, app.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationWithdrawn, got.Status)
	})

	t.Run("Another worker", func(t *testing.T) {
		service, m := NewMock(t)
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)

		_, err := service.Withdraw(context.Background(), rival, app.ID)

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Already accepted", func(t *testing.T) {
		service, m := NewMock(t)
		app := application(b, worker.SubjectID, domain.ApplicationAccepted)
		m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)

		_, err := service.Withdraw(context.Background(), worker, app.ID)

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestList(t *testing.T) {
	tests := []struct {
		name      string
		principal *auth.Principal
		check     func(t *testing.T, f domain.ApplicationFilter)
	}{
		{
			name:      "Worker sees own applications",
			principal: worker,
			check: func(t *testing.T, f domain.ApplicationFilter) {
				require.NotNil(t, f.WorkerID)
				assert.Equal(t, worker.SubjectID, *f.WorkerID)
				assert.Nil(t, f.HomeownerID)
			},
		},
		{
			name:      "Homeowner sees applications to own bookings",
			principal: homeowner,
			check: func(t *testing.T, f domain.ApplicationFilter) {
				require.NotNil(t, f.HomeownerID)
				assert.Equal(t, homeowner.SubjectID, *f.HomeownerID)
			},
		},
		{
			name:      "Admin sees everything",
			principal: admin,
			check: func(t *testing.T, f domain.ApplicationFilter) {
				assert.Nil(t, f.WorkerID)
				assert.Nil(t, f.HomeownerID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			m.repo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f domain.ApplicationFilter) ([]domain.Application, error) {
				tt.check(t, f)
				assert.Equal(t, domain.DefaultLimit, f.Limit)
				return nil, nil
			})

			_, err := service.List(context.Background(), tt.principal, nil, "", domain.Page{})

			require.NoError(t, err)
		})
	}
}

func TestDelete(t *testing.T) {
	b := pendingBooking()

	t.Run("Applicant deletes a pending application", func(t *testing.T) {
		service, m := NewMock(t)
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
		m.repo.EXPECT().DeletePending(gomock.Any(), app.ID).Return(true, nil)

		assert.NoError(t, service.Delete(context.Background(), worker, app.ID))
	})

	t.Run("Raced with an accept", func(t *testing.T) {
		service, m := NewMock(t)
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)
		m.repo.EXPECT().DeletePending(gomock.Any(), app.ID).Return(false, nil)

		assert.ErrorIs(t, service.Delete(context.Background(), admin, app.ID), domain.ErrConflict)
	})

	t.Run("Homeowner cannot delete", func(t *testing.T) {
		service, m := NewMock(t)
		app := application(b, worker.SubjectID, domain.ApplicationPending)
		m.repo.EXPECT().GetByID(gomock.Any(), app.ID).Return(app, nil)

		assert.ErrorIs(t, service.Delete(context.Background(), homeowner, app.ID), domain.ErrForbidden)
	})
}
