package payments

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/dto"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/flutterwave"
	"github.com/divinecia/Househelp-sub000/pkg/gateways/paypack"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

const maxWebhookBody = 1 << 20

type Service interface {
	Initiate(ctx context.Context, p *auth.Principal, req dto.InitiatePaymentRequestDTO) (*dto.InitiatePaymentResponseDTO, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Payment, error)
	List(ctx context.Context, p *auth.Principal, bookingID *uuid.UUID, status string, page domain.Page) ([]domain.Payment, error)
	UpdateDetails(ctx context.Context, p *auth.Principal, id uuid.UUID, req dto.UpdatePaymentRequestDTO) (*domain.Payment, error)
	Verify(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Payment, error)
	HandleFlutterwaveWebhook(ctx context.Context, hash string, body []byte) error
	HandlePaypackWebhook(ctx context.Context, signature string, body []byte) error
}

type PaymentHandler struct {
	paymentService Service
}

func New(paymentService Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Initiate godoc
//
//	@Summary		Start paying for a booking
//	@Description	Mobile money is charged through PayPack cash-in; card and bank payments return a Flutterwave payment link.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.InitiatePaymentRequestDTO	true	"Payment request"
//	@Success		201		{object}	utils.Response{data=dto.InitiatePaymentResponseDTO}
//	@Failure		400		{object}	utils.Response	"Invalid card number"
//	@Failure		409		{object}	utils.Response	"Booking already paid"
//	@Failure		502		{object}	utils.Response	"Upstream service unavailable"
//	@Router			/api/payments/initiate [post]
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	var req dto.InitiatePaymentRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.paymentService.Initiate(r.Context(), p, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusCreated, "Payment initiated", resp)
}

// List godoc
//
//	@Summary	List payments
//	@Tags		Payments
//	@Security	BearerAuth
//	@Produce	json
//	@Param		booking_id	query		string	false	"Filter by booking"
//	@Param		status		query		string	false	"Filter by status"
//	@Param		limit		query		int		false	"Page size"
//	@Param		offset		query		int		false	"Page offset"
//	@Success	200			{object}	utils.Response{data=[]domain.Payment}
//	@Router		/api/payments [get]
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	payments, err := h.paymentService.List(r.Context(), p, utils.QueryID(r, "booking_id"), r.URL.Query().Get("status"), utils.Page(r))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	utils.RespondWithJSON(w, http.StatusOK, payments)
}

// Get godoc
//
//	@Summary	Get a payment
//	@Tags		Payments
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Payment id"
//	@Success	200	{object}	utils.Response{data=domain.Payment}
//	@Router		/api/payments/{id} [get]
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	pay, err := h.paymentService.Get(r.Context(), p, id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, pay)
}

// Update godoc
//
//	@Summary		Edit payment details
//	@Description	Admins may change the method, phone and gateway reference. The status only changes through the gateways.
//	@Tags			Payments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Payment id"
//	@Param			request	body		dto.UpdatePaymentRequestDTO	true	"Fields to change"
//	@Success		200		{object}	utils.Response{data=domain.Payment}
//	@Router			/api/payments/{id} [put]
func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdatePaymentRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	pay, err := h.paymentService.UpdateDetails(r.Context(), p, id, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Payment updated", pay)
}

// Verify godoc
//
//	@Summary	Re-check a payment with its gateway
//	@Tags		Payments
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Payment id"
//	@Success	200	{object}	utils.Response{data=domain.Payment}
//	@Failure	502	{object}	utils.Response	"Upstream service unavailable"
//	@Router		/api/payments/{id}/verify [post]
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	pay, err := h.paymentService.Verify(r.Context(), p, id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, pay)
}

// FlutterwaveWebhook godoc
//
//	@Summary		Flutterwave webhook
//	@Description	Checked against the verif-hash header, then confirmed with the Flutterwave API.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			verif-hash	header		string	true	"Secret hash"
//	@Success		200			{object}	utils.Response
//	@Failure		401			{object}	utils.Response	"Invalid credentials"
//	@Router			/api/payments/webhooks/flutterwave [post]
func (h *PaymentHandler) FlutterwaveWebhook(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := h.paymentService.HandleFlutterwaveWebhook(r.Context(), r.Header.Get(flutterwave.HashHeader), body); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Webhook processed", nil)
}

// PaypackWebhook godoc
//
//	@Summary		PayPack webhook
//	@Description	The HMAC signature of the raw body is checked, then the transaction is confirmed with PayPack.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			X-Paypack-Signature	header		string	true	"HMAC signature"
//	@Success		200					{object}	utils.Response
//	@Failure		401					{object}	utils.Response	"Invalid credentials"
//	@Router			/api/payments/webhooks/paypack [post]
func (h *PaymentHandler) PaypackWebhook(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := h.paymentService.HandlePaypackWebhook(r.Context(), r.Header.Get(paypack.SignatureHeader), body); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Webhook processed", nil)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	return body, true
}
