package applications

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
	Apply(ctx context.Context, p *auth.Principal, req dto.ApplyRequestDTO) (*domain.Application, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error)
	List(ctx context.Context, p *auth.Principal, bookingID *uuid.UUID, status string, page domain.Page) ([]domain.Application, error)
	Accept(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error)
	Reject(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error)
	Withdraw(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

type ApplicationHandler struct {
	applicationService Service
}

func New(applicationService Service) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
	}
}

// Apply godoc
//
//	@Summary		Apply to an open booking
//	@Description	One application per worker per booking. The homeowner is notified.
//	@Tags			Applications
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ApplyRequestDTO	true	"Application"
//	@Success		201		{object}	utils.Response{data=domain.Application}
//	@Failure		400		{object}	utils.Response	"Booking is not open for applications"
//	@Failure		409		{object}	utils.Response	"Already applied"
//	@Router			/api/applications [post]
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	var req dto.ApplyRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	app, err := h.applicationService.Apply(r.Context(), p, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusCreated, "Application submitted", app)
}

// List godoc
//
//	@Summary	List applications
//	@Tags		Applications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		booking_id	query		string	false	"Filter by booking"
//	@Param		status		query		string	false	"Filter by status"
//	@Param		limit		query		int		false	"Page size"
//	@Param		offset		query		int		false	"Page offset"
//	@Success	200			{object}	utils.Response{data=[]domain.Application}
//	@Router		/api/applications [get]
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	apps, err := h.applicationService.List(r.Context(), p, utils.QueryID(r, "booking_id"), r.URL.Query().Get("status"), utils.Page(r))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	utils.RespondWithJSON(w, http.StatusOK, apps)
}

// Get godoc
//
//	@Summary	Get an application
//	@Tags		Applications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Application id"
//	@Success	200	{object}	utils.Response{data=domain.Application}
//	@Router		/api/applications/{id} [get]
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.applicationService.Get, "")
}

// Accept godoc
//
//	@Summary		Accept an application
//	@Description	Accepts the application, rejects the other pending ones and assigns the booking in one transaction.
//	@Tags			Applications
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Application id"
//	@Success		200	{object}	utils.Response{data=domain.Application}
//	@Failure		409	{object}	utils.Response	"Resource was modified by another request"
//	@Router			/api/applications/{id}/accept [put]
func (h *ApplicationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.applicationService.Accept, "Application accepted")
}

// Reject godoc
//
//	@Summary	Reject an application
//	@Tags		Applications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Application id"
//	@Success	200	{object}	utils.Response{data=domain.Application}
//	@Router		/api/applications/{id}/reject [put]
func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.applicationService.Reject, "Application rejected")
}

// Withdraw godoc
//
//	@Summary	Withdraw an own application
//	@Tags		Applications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Application id"
//	@Success	200	{object}	utils.Response{data=domain.Application}
//	@Router		/api/applications/{id}/withdraw [put]
func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.applicationService.Withdraw, "Application withdrawn")
}

// Delete godoc
//
//	@Summary	Delete a pending application
//	@Tags		Applications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Application id"
//	@Success	200	{object}	utils.Response
//	@Failure	409	{object}	utils.Response	"Resource was modified by another request"
//	@Router		/api/applications/{id} [delete]
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	if err := h.applicationService.Delete(r.Context(), p, id); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Application deleted", nil)
}

type applicationFunc func(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Application, error)

func (h *ApplicationHandler) byID(w http.ResponseWriter, r *http.Request, fn applicationFunc, message string) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	app, err := fn(r.Context(), p, id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	if message == "" {
		utils.RespondWithJSON(w, http.StatusOK, app)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, message, app)
}
