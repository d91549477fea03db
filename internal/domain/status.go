package domain

import (
	"slices"
	"strings"
)

type Role string

const (
	RoleWorker    Role = "worker"
	RoleHomeowner Role = "homeowner"
	RoleAdmin     Role = "admin"
)

var roles = []Role{RoleWorker, RoleHomeowner, RoleAdmin}

func ParseRole(s string) (Role, error) {
	return parseEnum("role", s, roles)
}

// Table is the role-specific detail table keyed by user_id.
func (r Role) Table() string {
	switch r {
	case RoleWorker:
		return "workers"
	case RoleHomeowner:
		return "homeowners"
	case RoleAdmin:
		return "admins"
	}
	return ""
}

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingAssigned   BookingStatus = "assigned"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
	BookingDisputed   BookingStatus = "disputed"
)

var bookingTransitions = transitions[BookingStatus]{
	BookingPending:    {BookingAssigned, BookingCancelled, BookingDisputed},
	BookingAssigned:   {BookingInProgress, BookingDisputed},
	BookingInProgress: {BookingCompleted, BookingDisputed},
	BookingDisputed:   {BookingCompleted, BookingCancelled},
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	return parseEnum("status", s, bookingTransitions.states(BookingCompleted))
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return bookingTransitions.allows(s, next)
}

// Open reports whether a dispute may still be raised against the booking.
func (s BookingStatus) Open() bool {
	return s == BookingPending || s == BookingAssigned || s == BookingInProgress
}

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

var applicationTransitions = transitions[ApplicationStatus]{
	ApplicationPending: {ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn},
}

func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	return applicationTransitions.allows(s, next)
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

var paymentTransitions = transitions[PaymentStatus]{
	PaymentPending: {PaymentSuccess, PaymentFailed, PaymentCancelled},
	PaymentSuccess: {PaymentRefunded},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return paymentTransitions.allows(s, next)
}

type PaymentMethod string

const (
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
)

var paymentMethods = []PaymentMethod{MethodMobileMoney, MethodCard, MethodBankTransfer, MethodCash}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	return parseEnum("method", s, paymentMethods)
}

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalApproved   WithdrawalStatus = "approved"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalRejected   WithdrawalStatus = "rejected"
)

var withdrawalTransitions = transitions[WithdrawalStatus]{
	WithdrawalPending:    {WithdrawalApproved, WithdrawalRejected},
	WithdrawalApproved:   {WithdrawalProcessing},
	WithdrawalProcessing: {WithdrawalCompleted},
}

func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	return withdrawalTransitions.allows(s, next)
}

type DisputeStatus string

const (
	DisputeOpen          DisputeStatus = "open"
	DisputeInvestigating DisputeStatus = "investigating"
	DisputeResolved      DisputeStatus = "resolved"
	DisputeClosed        DisputeStatus = "closed"
	DisputeEscalated     DisputeStatus = "escalated"
)

var disputeTransitions = transitions[DisputeStatus]{
	DisputeOpen:          {DisputeInvestigating},
	DisputeInvestigating: {DisputeResolved, DisputeClosed, DisputeEscalated},
	DisputeEscalated:     {DisputeResolved, DisputeClosed},
}

func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	return disputeTransitions.allows(s, next)
}

type ResolutionAction string

const (
	ResolutionNone          ResolutionAction = ""
	ResolutionRefundFull    ResolutionAction = "refund_full"
	ResolutionRefundPartial ResolutionAction = "refund_partial"
	ResolutionNoAction      ResolutionAction = "no_action"
	ResolutionWarning       ResolutionAction = "warning"
	ResolutionSuspension    ResolutionAction = "suspension"
)

var resolutionActions = []ResolutionAction{
	ResolutionRefundFull, ResolutionRefundPartial, ResolutionNoAction, ResolutionWarning, ResolutionSuspension,
}

func ParseResolutionAction(s string) (ResolutionAction, error) {
	return parseEnum("action", s, resolutionActions)
}

func (a ResolutionAction) Refunds() bool {
	return a == ResolutionRefundFull || a == ResolutionRefundPartial
}

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

type transitions[S ~string] map[S][]S

func (t transitions[S]) allows(from, to S) bool {
	return slices.Contains(t[from], to)
}

// states lists every state mentioned by the table; terminal states that never
// appear as a target can be passed in extra.
func (t transitions[S]) states(extra ...S) []S {
	var out []S
	add := func(s S) {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	for from, tos := range t {
		add(from)
		for _, to := range tos {
			add(to)
		}
	}
	for _, s := range extra {
		add(s)
	}
	return out
}

func parseEnum[S ~string](field, s string, allowed []S) (S, error) {
	v := S(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(allowed, v) {
		return v, nil
	}
	return "", NewValidationError("invalid value for "+field, field)
}
