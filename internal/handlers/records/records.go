// Package records exposes the generic profile and catalogue tables. One
// handler serves every resource; the resource name is bound at routing time.
package records

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
	List(ctx context.Context, p *auth.Principal, name string, query map[string]string, page domain.Page) ([]domain.Record, error)
	Get(ctx context.Context, p *auth.Principal, name string, id uuid.UUID) (domain.Record, error)
	Create(ctx context.Context, p *auth.Principal, name string, payload map[string]any) (domain.Record, error)
	Update(ctx context.Context, p *auth.Principal, name string, id uuid.UUID, payload map[string]any) (domain.Record, error)
	Delete(ctx context.Context, p *auth.Principal, name string, id uuid.UUID) error
	VerifyDocument(ctx context.Context, p *auth.Principal, id uuid.UUID) (domain.Record, error)
	RejectDocument(ctx context.Context, p *auth.Principal, id uuid.UUID, reason string) (domain.Record, error)
}

type RecordHandler struct {
	recordService Service
}

func New(recordService Service) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
	}
}

// List godoc
//
//	@Summary		List records of a resource
//	@Description	Resources: workers, homeowners, admins, services, trainings, reports, documents, favorites, availability. Non-admins only see rows they own where the resource is owner scoped. Other query parameters filter on whitelisted columns.
//	@Tags			Records
//	@Security		BearerAuth
//	@Produce		json
//	@Param			resource	path		string	true	"Resource name"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	utils.Response{data=[]domain.Record}
//	@Failure		403			{object}	utils.Response	"Access denied"
//	@Router			/api/{resource} [get]
func (h *RecordHandler) List(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.FromContext(r.Context())

		query := make(map[string]string)
		for k, v := range r.URL.Query() {
			if k == "limit" || k == "offset" || len(v) == 0 {
				continue
			}
			query[k] = v[0]
		}

		records, err := h.recordService.List(r.Context(), p, name, query, utils.Page(r))
		if err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		if records == nil {
			records = []domain.Record{}
		}
		utils.RespondWithJSON(w, http.StatusOK, records)
	}
}

// Get godoc
//
//	@Summary	Get a record
//	@Tags		Records
//	@Security	BearerAuth
//	@Produce	json
//	@Param		resource	path		string	true	"Resource name"
//	@Param		id			path		string	true	"Record id"
//	@Success	200			{object}	utils.Response{data=domain.Record}
//	@Failure	404			{object}	utils.Response	"Resource not found"
//	@Router		/api/{resource}/{id} [get]
func (h *RecordHandler) Get(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.FromContext(r.Context())
		id, ok := utils.URLID(w, r, "id")
		if !ok {
			return
		}

		rec, err := h.recordService.Get(r.Context(), p, name, id)
		if err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, rec)
	}
}

// Create godoc
//
//	@Summary		Create a record
//	@Description	Body keys may use camelCase or snake_case; they are mapped onto the table columns.
//	@Tags			Records
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			resource	path		string			true	"Resource name"
//	@Param			request		body		domain.Record	true	"Record"
//	@Success		201			{object}	utils.Response{data=domain.Record}
//	@Failure		400			{object}	utils.Response	"Missing required fields"
//	@Router			/api/{resource} [post]
func (h *RecordHandler) Create(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.FromContext(r.Context())
		payload, ok := utils.DecodeMap(w, r)
		if !ok {
			return
		}

		rec, err := h.recordService.Create(r.Context(), p, name, payload)
		if err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		utils.RespondWithMessage(w, http.StatusCreated, "Created successfully", rec)
	}
}

// Update godoc
//
//	@Summary	Update a record
//	@Tags		Records
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		resource	path		string			true	"Resource name"
//	@Param		id			path		string			true	"Record id"
//	@Param		request		body		domain.Record	true	"Fields to change"
//	@Success	200			{object}	utils.Response{data=domain.Record}
//	@Router		/api/{resource}/{id} [put]
func (h *RecordHandler) Update(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.FromContext(r.Context())
		id, ok := utils.URLID(w, r, "id")
		if !ok {
			return
		}
		payload, ok := utils.DecodeMap(w, r)
		if !ok {
			return
		}

		rec, err := h.recordService.Update(r.Context(), p, name, id, payload)
		if err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		utils.RespondWithMessage(w, http.StatusOK, "Updated successfully", rec)
	}
}

// Delete godoc
//
//	@Summary	Delete a record
//	@Tags		Records
//	@Security	BearerAuth
//	@Produce	json
//	@Param		resource	path		string	true	"Resource name"
//	@Param		id			path		string	true	"Record id"
//	@Success	200			{object}	utils.Response
//	@Failure	403			{object}	utils.Response	"Access denied"
//	@Router		/api/{resource}/{id} [delete]
func (h *RecordHandler) Delete(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.FromContext(r.Context())
		id, ok := utils.URLID(w, r, "id")
		if !ok {
			return
		}

		if err := h.recordService.Delete(r.Context(), p, name, id); err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		utils.RespondWithMessage(w, http.StatusOK, "Deleted successfully", nil)
	}
}

// VerifyDocument godoc
//
//	@Summary	Mark an uploaded document as verified
//	@Tags		Records
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Document id"
//	@Success	200	{object}	utils.Response{data=domain.Record}
//	@Router		/api/documents/{id}/verify [put]
func (h *RecordHandler) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.recordService.VerifyDocument(r.Context(), p, id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Document verified", rec)
}

// RejectDocument godoc
//
//	@Summary	Reject an uploaded document
//	@Tags		Records
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Document id"
//	@Param		request	body		dto.RejectDocumentRequestDTO	true	"Reason"
//	@Success	200		{object}	utils.Response{data=domain.Record}
//	@Router		/api/documents/{id}/reject [put]
func (h *RecordHandler) RejectDocument(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	var req dto.RejectDocumentRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	rec, err := h.recordService.RejectDocument(r.Context(), p, id, req.Reason)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Document rejected", rec)
}
