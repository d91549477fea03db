package dto

import "github.com/google/uuid"

type OpenDisputeRequestDTO struct {
	BookingID   uuid.UUID `json:"bookingId" validate:"required"`
	Reason      string    `json:"reason" validate:"required" example:"Worker did not show up"`
	Description string    `json:"description"`
}

type ResolveDisputeRequestDTO struct {
	Action       string  `json:"action" validate:"required" example:"refund_partial"`
	Notes        string  `json:"notes"`
	RefundAmount float64 `json:"refundAmount" validate:"gte=0"`
}

type DisputeActionDTO struct {
	Notes string `json:"notes"`
}
