package dto

import "github.com/google/uuid"

type CreateBookingRequestDTO struct {
	WorkerID        *uuid.UUID `json:"workerId"`
	ServiceType     string     `json:"serviceType" validate:"required" example:"cleaning"`
	Description     string     `json:"description"`
	BookingDate     string     `json:"bookingDate" validate:"required,datetime=2006-01-02" example:"2026-03-01"`
	StartTime       string     `json:"startTime" example:"08:00"`
	EndTime         string     `json:"endTime" example:"12:00"`
	Address         string     `json:"address" validate:"required" example:"KG 11 Ave, Kigali"`
	Amount          float64    `json:"amount" validate:"gt=0" example:"10000"`
	SpecialRequests string     `json:"specialRequests"`
}

// UpdateBookingRequestDTO is a partial update; nil fields are left as they are.
type UpdateBookingRequestDTO struct {
	ServiceType     *string  `json:"serviceType"`
	Description     *string  `json:"description"`
	BookingDate     *string  `json:"bookingDate" validate:"omitempty,datetime=2006-01-02"`
	StartTime       *string  `json:"startTime"`
	EndTime         *string  `json:"endTime"`
	Address         *string  `json:"address"`
	Amount          *float64 `json:"amount" validate:"omitempty,gt=0"`
	SpecialRequests *string  `json:"specialRequests"`
}

type AssignBookingRequestDTO struct {
	WorkerID uuid.UUID `json:"workerId" validate:"required"`
}

type BookingStatusRequestDTO struct {
	Status string `json:"status" validate:"required" example:"in_progress"`
}

type FeesResponseDTO struct {
	Amount      float64 `json:"amount" example:"10000"`
	PlatformFee float64 `json:"platform_fee" example:"100"`
	WelfareFund float64 `json:"welfare_fund" example:"700"`
	Insurance   float64 `json:"insurance" example:"500"`
	Tax         float64 `json:"tax" example:"200"`
	WorkerEarns float64 `json:"worker_earns" example:"8500"`
}
