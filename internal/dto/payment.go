package dto

import "github.com/google/uuid"

type InitiatePaymentRequestDTO struct {
	BookingID  uuid.UUID `json:"bookingId" validate:"required"`
	Method     string    `json:"method" validate:"required" example:"MTN Mobile Money"`
	Phone      string    `json:"phone" validate:"omitempty,rwphone" example:"0788123456"`
	CardNumber string    `json:"cardNumber" validate:"omitempty,luhn"`
}

type InitiatePaymentResponseDTO struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	TxRef       string    `json:"tx_ref"`
	Status      string    `json:"status" example:"pending"`
	PaymentLink string    `json:"payment_link,omitempty"`
}

// UpdatePaymentRequestDTO changes the non-status fields of a payment.
type UpdatePaymentRequestDTO struct {
	Method     *string `json:"method"`
	Phone      *string `json:"phone" validate:"omitempty,rwphone"`
	GatewayRef *string `json:"gatewayRef"`
}
