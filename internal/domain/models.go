package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record is a loosely typed row of one of the profile or catalogue tables.
// Keys are column names.
type Record map[string]any

type UserProfile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      Role      `db:"role" json:"role"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Booking struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	HomeownerID     uuid.UUID     `db:"homeowner_id" json:"homeowner_id"`
	WorkerID        *uuid.UUID    `db:"worker_id" json:"worker_id"`
	ServiceType     string        `db:"service_type" json:"service_type"`
	Description     string        `db:"description" json:"description"`
	BookingDate     time.Time     `db:"booking_date" json:"booking_date"`
	StartTime       string        `db:"start_time" json:"start_time"`
	EndTime         string        `db:"end_time" json:"end_time"`
	Address         string        `db:"address" json:"address"`
	Amount          float64       `db:"amount" json:"amount"`
	Status          BookingStatus `db:"status" json:"status"`
	SpecialRequests string        `db:"special_requests" json:"special_requests"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// AssignedTo reports whether the booking is held by the given worker.
func (b *Booking) AssignedTo(workerID uuid.UUID) bool {
	return b.WorkerID != nil && *b.WorkerID == workerID
}

type Application struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	BookingID    uuid.UUID         `db:"booking_id" json:"booking_id"`
	WorkerID     uuid.UUID         `db:"worker_id" json:"worker_id"`
	Message      string            `db:"message" json:"message"`
	ProposedRate float64           `db:"proposed_rate" json:"proposed_rate"`
	Status       ApplicationStatus `db:"status" json:"status"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

type Payment struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	BookingID   uuid.UUID     `db:"booking_id" json:"booking_id"`
	HomeownerID uuid.UUID     `db:"homeowner_id" json:"homeowner_id"`
	WorkerID    *uuid.UUID    `db:"worker_id" json:"worker_id"`
	Amount      float64       `db:"amount" json:"amount"`
	Currency    string        `db:"currency" json:"currency"`
	Status      PaymentStatus `db:"status" json:"status"`
	Method      PaymentMethod `db:"method" json:"method"`
	Gateway     string        `db:"gateway" json:"gateway"`
	TxRef       string        `db:"tx_ref" json:"tx_ref"`
	GatewayRef  string        `db:"gateway_ref" json:"gateway_ref"`
	Phone       string        `db:"phone" json:"phone"`
	CardLast4   string        `db:"card_last4" json:"card_last4"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

type Withdrawal struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	WorkerID    uuid.UUID        `db:"worker_id" json:"worker_id"`
	Amount      float64          `db:"amount" json:"amount"`
	Fee         float64          `db:"fee" json:"fee"`
	NetAmount   float64          `db:"net_amount" json:"net_amount"`
	Method      PaymentMethod    `db:"method" json:"method"`
	Phone       string           `db:"phone" json:"phone"`
	Status      WithdrawalStatus `db:"status" json:"status"`
	AdminNotes  string           `db:"admin_notes" json:"admin_notes"`
	GatewayRef  string           `db:"gateway_ref" json:"gateway_ref"`
	ProcessedBy *uuid.UUID       `db:"processed_by" json:"processed_by"`
	ProcessedAt *time.Time       `db:"processed_at" json:"processed_at"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// WithdrawalUpdate carries the optional fields written with a status change.
type WithdrawalUpdate struct {
	AdminNotes  string
	GatewayRef  string
	ProcessedBy *uuid.UUID
}

// Balance is computed on demand from payments and withdrawals, never stored.
type Balance struct {
	WorkerID            uuid.UUID `json:"worker_id"`
	TotalEarned         float64   `json:"total_earned"`
	TotalWithdrawn      float64   `json:"total_withdrawn"`
	AvailableBalance    float64   `json:"available_balance"`
	PendingWithdrawals  float64   `json:"pending_withdrawals"`
	WithdrawableBalance float64   `json:"withdrawable_balance"`
}

// NewBalance derives the available and withdrawable amounts from the three
// stored sums. Withdrawable never goes below zero.
func NewBalance(workerID uuid.UUID, earned, withdrawn, pending float64) *Balance {
	available := earned - withdrawn
	return &Balance{
		WorkerID:            workerID,
		TotalEarned:         earned,
		TotalWithdrawn:      withdrawn,
		AvailableBalance:    available,
		PendingWithdrawals:  pending,
		WithdrawableBalance: max(0, available-pending),
	}
}

type Dispute struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	BookingID        uuid.UUID        `db:"booking_id" json:"booking_id"`
	RaisedBy         uuid.UUID        `db:"raised_by" json:"raised_by"`
	RespondentID     uuid.UUID        `db:"respondent_id" json:"respondent_id"`
	Reason           string           `db:"reason" json:"reason"`
	Description      string           `db:"description" json:"description"`
	Status           DisputeStatus    `db:"status" json:"status"`
	ResolutionAction ResolutionAction `db:"resolution_action" json:"resolution_action"`
	ResolutionNotes  string           `db:"resolution_notes" json:"resolution_notes"`
	RefundAmount     float64          `db:"refund_amount" json:"refund_amount"`
	ResolvedBy       *uuid.UUID       `db:"resolved_by" json:"resolved_by"`
	ResolvedAt       *time.Time       `db:"resolved_at" json:"resolved_at"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// DisputeUpdate carries the resolution fields written with a status change.
type DisputeUpdate struct {
	Action       ResolutionAction
	Notes        string
	RefundAmount float64
	ResolvedBy   *uuid.UUID
}

type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PasswordReset struct {
	ID        uuid.UUID  `db:"id"`
	Email     string     `db:"email"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Option is one dropdown entry of an options category.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
