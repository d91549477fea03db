package domain

import "github.com/google/uuid"

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type BookingFilter struct {
	HomeownerID *uuid.UUID
	WorkerID    *uuid.UUID
	// OpenForWorkers also matches pending bookings that have no worker yet.
	OpenForWorkers bool
	Status         BookingStatus
	Page
}

type ApplicationFilter struct {
	BookingID *uuid.UUID
	WorkerID  *uuid.UUID
	// HomeownerID matches applications on bookings owned by the homeowner.
	HomeownerID *uuid.UUID
	Status      ApplicationStatus
	Page
}

type PaymentFilter struct {
	BookingID   *uuid.UUID
	HomeownerID *uuid.UUID
	WorkerID    *uuid.UUID
	Status      PaymentStatus
	Page
}

type WithdrawalFilter struct {
	WorkerID *uuid.UUID
	Status   WithdrawalStatus
	Page
}

type DisputeFilter struct {
	// PartyID matches disputes raised by or against the user.
	PartyID   *uuid.UUID
	BookingID *uuid.UUID
	Status    DisputeStatus
	Page
}
