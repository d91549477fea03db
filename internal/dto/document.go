package dto

type RejectDocumentRequestDTO struct {
	Reason string `json:"reason" validate:"required" example:"Image is unreadable"`
}
