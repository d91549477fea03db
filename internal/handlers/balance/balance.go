package balance

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

type Service interface {
	GetBalance(ctx context.Context, p *auth.Principal) (*domain.Balance, error)
	Withdraw(ctx context.Context, p *auth.Principal, req dto.WithdrawalRequestDTO) (*domain.Withdrawal, error)
	GetWithdrawals(ctx context.Context, p *auth.Principal, status string, page domain.Page) ([]domain.Withdrawal, error)
	GetWithdrawal(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Withdrawal, error)
	Approve(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error)
	Reject(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error)
	Process(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error)
	Complete(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error)
}

type BalanceHandler struct {
	balanceService Service
}

func New(balanceService Service) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
	}
}

// GetBalance godoc
//
//	@Summary		Get worker balance
//	@Description	Earnings from completed bookings minus completed and pending withdrawals.
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	utils.Response{data=domain.Balance}	"Current balance"
//	@Failure		401	{object}	utils.Response						"User not authorized"
//	@Failure		403	{object}	utils.Response						"Access denied"
//	@Router			/api/withdrawals/balance [get]
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	balance, err := h.balanceService.GetBalance(r.Context(), p)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, balance)
}

// Withdraw godoc
//
//	@Summary		Request a withdrawal
//	@Description	A 2% fee is deducted; the request is rejected when the amount exceeds the withdrawable balance.
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.WithdrawalRequestDTO				true	"Withdrawal request payload"
//	@Success		201		{object}	utils.Response{data=domain.Withdrawal}	"Withdrawal requested"
//	@Failure		400		{object}	utils.Response							"Insufficient balance"
//	@Failure		401		{object}	utils.Response							"User not authorized"
//	@Router			/api/withdrawals [post]
func (h *BalanceHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	var req dto.WithdrawalRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	wd, err := h.balanceService.Withdraw(r.Context(), p, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusCreated, "Withdrawal requested", wd)
}

// GetWithdrawals godoc
//
//	@Summary		List withdrawals
//	@Description	Workers see their own withdrawals, admins see all of them.
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	utils.Response{data=[]domain.Withdrawal}
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Router			/api/withdrawals [get]
func (h *BalanceHandler) GetWithdrawals(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	withdrawals, err := h.balanceService.GetWithdrawals(r.Context(), p, r.URL.Query().Get("status"), utils.Page(r))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	if withdrawals == nil {
		withdrawals = []domain.Withdrawal{}
	}
	utils.RespondWithJSON(w, http.StatusOK, withdrawals)
}

// GetWithdrawal godoc
//
//	@Summary	Get a withdrawal
//	@Tags		Withdrawals
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Withdrawal id"
//	@Success	200	{object}	utils.Response{data=domain.Withdrawal}
//	@Failure	404	{object}	utils.Response	"Resource not found"
//	@Router		/api/withdrawals/{id} [get]
func (h *BalanceHandler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	wd, err := h.balanceService.GetWithdrawal(r.Context(), p, id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, wd)
}

type actionFunc func(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Withdrawal, error)

func (h *BalanceHandler) action(w http.ResponseWriter, r *http.Request, fn actionFunc, message string) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	// The body is optional for admin actions.
	var req dto.WithdrawalActionDTO
	if r.ContentLength != 0 && !utils.DecodeJSON(w, r, &req) {
		return
	}

	wd, err := fn(r.Context(), p, id, req.Notes)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, message, wd)
}

// Approve godoc
//
//	@Summary	Approve a pending withdrawal
//	@Tags		Withdrawals
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Withdrawal id"
//	@Param		request	body		dto.WithdrawalActionDTO	false	"Admin notes"
//	@Success	200		{object}	utils.Response{data=domain.Withdrawal}
//	@Failure	400		{object}	utils.Response	"Invalid status transition"
//	@Failure	403		{object}	utils.Response	"Access denied"
//	@Router		/api/withdrawals/{id}/approve [put]
func (h *BalanceHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.balanceService.Approve, "Withdrawal approved")
}

// Reject godoc
//
//	@Summary	Reject a pending withdrawal
//	@Tags		Withdrawals
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Withdrawal id"
//	@Param		request	body		dto.WithdrawalActionDTO	false	"Admin notes"
//	@Success	200		{object}	utils.Response{data=domain.Withdrawal}
//	@Router		/api/withdrawals/{id}/reject [put]
func (h *BalanceHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.balanceService.Reject, "Withdrawal rejected")
}

// Process godoc
//
//	@Summary		Pay out an approved withdrawal
//	@Description	Sends the net amount through PayPack cash-out when the gateway is configured.
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Withdrawal id"
//	@Param			request	body		dto.WithdrawalActionDTO	false	"Admin notes"
//	@Success		200		{object}	utils.Response{data=domain.Withdrawal}
//	@Failure		502		{object}	utils.Response	"Upstream service unavailable"
//	@Router			/api/withdrawals/{id}/process [put]
func (h *BalanceHandler) Process(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.balanceService.Process, "Withdrawal processing")
}

// Complete godoc
//
//	@Summary	Mark a processing withdrawal as paid
//	@Tags		Withdrawals
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Withdrawal id"
//	@Param		request	body		dto.WithdrawalActionDTO	false	"Admin notes"
//	@Success	200		{object}	utils.Response{data=domain.Withdrawal}
//	@Router		/api/withdrawals/{id}/complete [put]
func (h *BalanceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.balanceService.Complete, "Withdrawal completed")
}
