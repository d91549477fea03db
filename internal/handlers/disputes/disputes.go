package disputes

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
	Open(ctx context.Context, p *auth.Principal, req dto.OpenDisputeRequestDTO) (*domain.Dispute, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Dispute, error)
	List(ctx context.Context, p *auth.Principal, bookingID *uuid.UUID, status string, page domain.Page) ([]domain.Dispute, error)
	Investigate(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Dispute, error)
	Escalate(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Dispute, error)
	Close(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Dispute, error)
	Resolve(ctx context.Context, p *auth.Principal, id uuid.UUID, req dto.ResolveDisputeRequestDTO) (*domain.Dispute, error)
}

type DisputeHandler struct {
	disputeService Service
}

func New(disputeService Service) *DisputeHandler {
	return &DisputeHandler{
		disputeService: disputeService,
	}
}

// Open godoc
//
//	@Summary		Open a dispute
//	@Description	Either party of a booking may open a dispute. The booking moves to disputed.
//	@Tags			Disputes
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.OpenDisputeRequestDTO	true	"Dispute"
//	@Success		201		{object}	utils.Response{data=domain.Dispute}
//	@Failure		400		{object}	utils.Response	"Invalid status transition"
//	@Failure		403		{object}	utils.Response	"Access denied"
//	@Router			/api/disputes [post]
func (h *DisputeHandler) Open(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	var req dto.OpenDisputeRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	d, err := h.disputeService.Open(r.Context(), p, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusCreated, "Dispute opened", d)
}

// List godoc
//
//	@Summary	List disputes
//	@Tags		Disputes
//	@Security	BearerAuth
//	@Produce	json
//	@Param		booking_id	query		string	false	"Filter by booking"
//	@Param		status		query		string	false	"Filter by status"
//	@Param		limit		query		int		false	"Page size"
//	@Param		offset		query		int		false	"Page offset"
//	@Success	200			{object}	utils.Response{data=[]domain.Dispute}
//	@Router		/api/disputes [get]
func (h *DisputeHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	list, err := h.disputeService.List(r.Context(), p, utils.QueryID(r, "booking_id"), r.URL.Query().Get("status"), utils.Page(r))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Dispute{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// Get godoc
//
//	@Summary	Get a dispute
//	@Tags		Disputes
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Dispute id"
//	@Success	200	{object}	utils.Response{data=domain.Dispute}
//	@Router		/api/disputes/{id} [get]
func (h *DisputeHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.disputeService.Get(r.Context(), p, id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, d)
}

// Investigate godoc
//
//	@Summary	Start investigating a dispute
//	@Tags		Disputes
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Dispute id"
//	@Param		request	body		dto.DisputeActionDTO	false	"Notes"
//	@Success	200		{object}	utils.Response{data=domain.Dispute}
//	@Router		/api/disputes/{id}/investigate [put]
func (h *DisputeHandler) Investigate(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.disputeService.Investigate, "Dispute under investigation")
}

// Escalate godoc
//
//	@Summary	Escalate a dispute
//	@Tags		Disputes
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Dispute id"
//	@Param		request	body		dto.DisputeActionDTO	false	"Notes"
//	@Success	200		{object}	utils.Response{data=domain.Dispute}
//	@Router		/api/disputes/{id}/escalate [put]
func (h *DisputeHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.disputeService.Escalate, "Dispute escalated")
}

// Close godoc
//
//	@Summary	Close a dispute without a resolution
//	@Tags		Disputes
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Dispute id"
//	@Param		request	body		dto.DisputeActionDTO	false	"Notes"
//	@Success	200		{object}	utils.Response{data=domain.Dispute}
//	@Router		/api/disputes/{id}/close [put]
func (h *DisputeHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.disputeService.Close, "Dispute closed")
}

// Resolve godoc
//
//	@Summary		Resolve a dispute
//	@Description	Refund actions mark the booking's successful payments refunded and request a gateway refund.
//	@Tags			Disputes
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Dispute id"
//	@Param			request	body		dto.ResolveDisputeRequestDTO	true	"Resolution"
//	@Success		200		{object}	utils.Response{data=domain.Dispute}
//	@Failure		400		{object}	utils.Response	"Invalid resolution action"
//	@Router			/api/disputes/{id}/resolve [put]
func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	d, err := h.disputeService.Resolve(r.Context(), p, id, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Dispute resolved", d)
}

type actionFunc func(ctx context.Context, p *auth.Principal, id uuid.UUID, notes string) (*domain.Dispute, error)

func (h *DisputeHandler) action(w http.ResponseWriter, r *http.Request, fn actionFunc, message string) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	var req dto.DisputeActionDTO
	if r.ContentLength != 0 && !utils.DecodeJSON(w, r, &req) {
		return
	}

	d, err := fn(r.Context(), p, id, req.Notes)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, message, d)
}
