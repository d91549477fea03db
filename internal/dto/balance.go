package dto

type WithdrawalRequestDTO struct {
	Amount float64 `json:"amount" validate:"gt=0" example:"5000"`
	Method string  `json:"method" validate:"required" example:"mobile_money"`
	Phone  string  `json:"phone" validate:"omitempty,rwphone" example:"0788123456"`
}

type WithdrawalActionDTO struct {
	Notes string `json:"notes" example:"Paid via MoMo"`
}
