package dto

import "github.com/google/uuid"

type ApplyRequestDTO struct {
	BookingID    uuid.UUID `json:"bookingId" validate:"required"`
	Message      string    `json:"message"`
	ProposedRate float64   `json:"proposedRate" validate:"gte=0"`
}
