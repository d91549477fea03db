package disputeservice

import (
	"context"
	"errors"
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
	refunder  *MockRefunder
	tx        *pg.MockTXManager
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		repo:      NewMockRepo(ctrl),
		bookings:  NewMockBookingRepo(ctrl),
		directory: NewMockDirectory(ctrl),
		notifier:  NewMockNotifier(ctrl),
		refunder:  NewMockRefunder(ctrl),
		tx:        pg.NewMockTXManager(ctrl),
	}
	m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	}).AnyTimes()
	return New(m.repo, m.bookings, m.directory, m.notifier, m.refunder, m.tx), m
}

var (
	admin     = &auth.Principal{UserID: uuid.New(), Role: domain.RoleAdmin, SubjectID: uuid.New()}
	homeowner = &auth.Principal{UserID: uuid.New(), Role: domain.RoleHomeowner, SubjectID: uuid.New()}
	worker    = &auth.Principal{UserID: uuid.New(), Role: domain.RoleWorker, SubjectID: uuid.New()}
)

func activeBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:          uuid.New(),
		HomeownerID: homeowner.SubjectID,
		WorkerID:    &worker.SubjectID,
		ServiceType: "cleaning",
		Amount:      10000,
		Status:      status,
	}
}

func dispute(status domain.DisputeStatus) *domain.Dispute {
	return &domain.Dispute{
		ID:           uuid.New(),
		BookingID:    uuid.New(),
		RaisedBy:     homeowner.UserID,
		RespondentID: worker.UserID,
		Reason:       "No show",
		Status:       status,
	}
}

func TestOpen(t *testing.T) {
	t.Run("Homeowner disputes an in-progress booking", func(t *testing.T) {
		service, m := NewMock(t)
		b := activeBooking(domain.BookingInProgress)
		m.bookings.EXPECT().GetForUpdate(gomock.Any(), b.ID).Return(b, nil)
		m.directory.EXPECT().UserIDForSubject(gomock.Any(), domain.RoleWorker, worker.SubjectID).Return(worker.UserID, nil)
		m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, d *domain.Dispute) (*domain.Dispute, error) {
			assert.Equal(t, homeowner.UserID, d.RaisedBy)
			assert.Equal(t, worker.UserID, d.RespondentID)
			assert.Equal(t, domain.DisputeOpen, d.Status)
			d.ID = uuid.New()
			return d, nil
		})
		m.bookings.EXPECT().UpdateStatus(gomock.Any(), b.ID, domain.BookingInProgress, domain.BookingDisputed, nil).Return(nil)
		m.notifier.EXPECT().Notify(gomock.Any(), worker.UserID, "dispute", "Dispute Opened", gomock.Any())

		d, err := service.Open(context.Background(), homeowner, dto.OpenDisputeRequestDTO{BookingID: b.ID, Reason: "No show"})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, d.ID)
	})

	t.Run("Worker disputes an assigned booking", func(t *testing.T) {
		service, m := NewMock(t)
		b := activeBooking(domain.BookingAssigned)
		m.bookings.EXPECT().GetForUpdate(gomock.Any(), b.ID).Return(b, nil)
		m.directory.EXPECT().UserIDForSubject(gomock.Any(), domain.RoleHomeowner, homeowner.SubjectID).Return(homeowner.UserID, nil)
		m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, d *domain.Dispute) (*domain.Dispute, error) {
			d.ID = uuid.New()
			return d, nil
		})
		m.bookings.EXPECT().UpdateStatus(gomock.Any(), b.ID, domain.BookingAssigned, domain.BookingDisputed, nil).Return(nil)
		m.notifier.EXPECT().Notify(gomock.Any(), homeowner.UserID, "dispute", "Dispute Opened", gomock.Any())

		_, err := service.Open(context.Background(), worker, dto.OpenDisputeRequestDTO{BookingID: b.ID, Reason: "Unsafe"})

		require.NoError(t, err)
	})

	t.Run("Completed bookings cannot be disputed", func(t *testing.T) {
		service, m := NewMock(t)
		b := activeBooking(domain.BookingCompleted)
		m.bookings.EXPECT().GetForUpdate(gomock.Any(), b.ID).Return(b, nil)
		m.directory.EXPECT().UserIDForSubject(gomock.Any(), domain.RoleWorker, worker.SubjectID).Return(worker.UserID, nil)

		_, err := service.Open(context.Background(), homeowner, dto.OpenDisputeRequestDTO{BookingID: b.ID, Reason: "x"})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Outsiders cannot open a dispute", func(t *testing.T) {
		service, m := NewMock(t)
		b := activeBooking(domain.BookingAssigned)
		m.bookings.EXPECT().GetForUpdate(gomock.Any(), b.ID).Return(b, nil)

		stranger := &auth.Principal{UserID: uuid.New(), Role: domain.RoleWorker, SubjectID: uuid.New()}
		_, err := service.Open(context.Background(), stranger, dto.OpenDisputeRequestDTO{BookingID: b.ID, Reason: "x"})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Booking without a worker", func(t *testing.T) {
		service, m := NewMock(t)
		b := activeBooking(domain.BookingPending)
		b.WorkerID = nil
		m.bookings.EXPECT().GetForUpdate(gomock.Any(), b.ID).Return(b, nil)

		_, err := service.Open(context.Background(), homeowner, dto.OpenDisputeRequestDTO{BookingID: b.ID, Reason: "x"})

		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestResolve(t *testing.T) {
	t.Run("Full refund cancels the booking", func(t *testing.T) {
		service, m := NewMock(t)
		d := dispute(domain.DisputeInvestigating)
		m.repo.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), d.ID, domain.DisputeInvestigating, domain.DisputeResolved,
			domain.DisputeUpdate{Action: domain.ResolutionRefundFull, Notes: "sorry", ResolvedBy: &admin.UserID}).Return(nil)
		refunded := []domain.Payment{{ID: uuid.New(), BookingID: d.BookingID, Amount: 10000, Status: domain.PaymentRefunded}}
		m.refunder.EXPECT().RefundBooking(gomock.Any(), d.BookingID).Return(refunded, nil)
		m.bookings.EXPECT().UpdateStatus(gomock.Any(), d.BookingID, domain.BookingDisputed, domain.BookingCancelled, nil).Return(nil)
		m.refunder.EXPECT().SettleRefunds(gomock.Any(), refunded, 0.0)
		m.notifier.EXPECT().Notify(gomock.Any(), homeowner.UserID, "dispute", "Dispute Resolved", gomock.Any())
		m.notifier.EXPECT().Notify(gomock.Any(), worker.UserID, "dispute", "Dispute Resolved", gomock.Any())

		got, err := service.Resolve(context.Background(), admin, d.ID, dto.ResolveDisputeRequestDTO{Action: "refund_full", Notes: "sorry"})

		require.NoError(t, err)
		assert.Equal(t, domain.DisputeResolved, got.Status)
		assert.Equal(t, domain.ResolutionRefundFull, got.ResolutionAction)
	})

	t.Run("Warning completes the booking", func(t *testing.T) {
		service, m := NewMock(t)
		d := dispute(domain.DisputeEscalated)
		m.repo.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), d.ID, domain.DisputeEscalated, domain.DisputeResolved, gomock.Any()).Return(nil)
		m.bookings.EXPECT().UpdateStatus(gomock.Any(), d.BookingID, domain.BookingDisputed, domain.BookingCompleted, nil).Return(domain.ErrConflict)
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), "dispute", "Dispute Resolved", gomock.Any()).Times(2)

		_, err := service.Resolve(context.Background(), admin, d.ID, dto.ResolveDisputeRequestDTO{Action: "warning"})

		require.NoError(t, err)
	})

	t.Run("Partial refund needs an amount", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.Resolve(context.Background(), admin, uuid.New(), dto.ResolveDisputeRequestDTO{Action: "refund_partial"})

		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("Refund failure rolls back", func(t *testing.T) {
		service, m := NewMock(t)
		d := dispute(domain.DisputeInvestigating)
		m.repo.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), d.ID, domain.DisputeInvestigating, domain.DisputeResolved, gomock.Any()).Return(nil)
		m.refunder.EXPECT().RefundBooking(gomock.Any(), d.BookingID).Return(nil, errors.New("db error"))
		m.refunder.EXPECT().SettleRefunds(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := service.Resolve(context.Background(), admin, d.ID, dto.ResolveDisputeRequestDTO{Action: "refund_partial", RefundAmount: 2500})

		assert.Error(t, err)
	})

	t.Run("Gateway refund and notifications wait for the commit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := &mocks{
			repo:      NewMockRepo(ctrl),
			bookings:  NewMockBookingRepo(ctrl),
			directory: NewMockDirectory(ctrl),
			notifier:  NewMockNotifier(ctrl),
			refunder:  NewMockRefunder(ctrl),
			tx:        pg.NewMockTXManager(ctrl),
		}
		service := New(m.repo, m.bookings, m.directory, m.notifier, m.refunder, m.tx)

		committed := false
		m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
			if err := fn(ctx); err != nil {
				return err
			}
			committed = true
			return nil
		})
		d := dispute(domain.DisputeInvestigating)
		refunded := []domain.Payment{{ID: uuid.New(), Amount: 4000}, {ID: uuid.New(), Amount: 3000}}
		m.repo.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), d.ID, domain.DisputeInvestigating, domain.DisputeResolved, gomock.Any()).Return(nil)
		m.refunder.EXPECT().RefundBooking(gomock.Any(), d.BookingID).DoAndReturn(func(context.Context, uuid.UUID) ([]domain.Payment, error) {
			assert.False(t, committed)
			return refunded, nil
		})
		m.bookings.EXPECT().UpdateStatus(gomock.Any(), d.BookingID, domain.BookingDisputed, domain.BookingCancelled, nil).Return(nil)
		m.refunder.EXPECT().SettleRefunds(gomock.Any(), refunded, 5000.0).Do(func(context.Context, []domain.Payment, float64) {
			assert.True(t, committed)
		})
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), "dispute", "Dispute Resolved", gomock.Any()).Do(func(context.Context, uuid.UUID, string, string, string) {
			assert.True(t, committed)
		}).Times(2)

		_, err := service.Resolve(context.Background(), admin, d.ID, dto.ResolveDisputeRequestDTO{Action: "refund_partial", RefundAmount: 5000})

		require.NoError(t, err)
	})

	t.Run("Open disputes must be investigated first", func(t *testing.T) {
		service, m := NewMock(t)
		d := dispute(domain.DisputeOpen)
		m.repo.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)

		_, err := service.Resolve(context.Background(), admin, d.ID, dto.ResolveDisputeRequestDTO{Action: "no_action"})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Parties cannot resolve", func(t *testing.T) {
		service, _ := NewMock(t)

		_, err := service.Resolve(context.Background(), homeowner, uuid.New(), dto.ResolveDisputeRequestDTO{Action: "no_action"})

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestInvestigateAndClose(t *testing.T) {
	service, m := NewMock(t)
	d := dispute(domain.DisputeOpen)
	m.repo.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil).Times(2)
	m.repo.EXPECT().UpdateStatus(gomock.Any(), d.ID, domain.DisputeOpen, domain.DisputeInvestigating, gomock.Any()).Return(nil)
	m.repo.EXPECT().UpdateStatus(gomock.Any(), d.ID, domain.DisputeInvestigating, domain.DisputeClosed, gomock.Any()).Return(nil)
	m.bookings.EXPECT().UpdateStatus(gomock.Any(), d.BookingID, domain.BookingDisputed, domain.BookingCompleted, nil).Return(nil)
	m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), "dispute", gomock.Any(), gomock.Any()).Times(4)

	_, err := service.Investigate(context.Background(), admin, d.ID, "")
	require.NoError(t, err)

	got, err := service.Close(context.Background(), admin, d.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeClosed, got.Status)
}

func TestGetAndList(t *testing.T) {
	t.Run("Parties see their dispute", func(t *testing.T) {
		service, m := NewMock(t)
		d := dispute(domain.DisputeOpen)
		m.repo.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)

		_, err := service.Get(context.Background(), worker, d.ID)

		assert.NoError(t, err)
	})

	t.Run("Others do not", func(t *testing.T) {
		service, m := NewMock(t)
		d := dispute(domain.DisputeOpen)
		m.repo.EXPECT().GetByID(gomock.Any(), d.ID).Return(d, nil)

		_, err := service.Get(context.Background(), &auth.Principal{UserID: uuid.New(), Role: domain.RoleWorker}, d.ID)

		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Listing is scoped to the caller", func(t *testing.T) {
		service, m := NewMock(t)
		m.repo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f domain.DisputeFilter) ([]domain.Dispute, error) {
			require.NotNil(t, f.PartyID)
			assert.Equal(t, homeowner.UserID, *f.PartyID)
			return nil, nil
		})

		_, err := service.List(context.Background(), homeowner, nil, "", domain.Page{})

		require.NoError(t, err)
	})
}
