package bookings

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
	Create(ctx context.Context, p *auth.Principal, req dto.CreateBookingRequestDTO) (*domain.Booking, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error)
	List(ctx context.Context, p *auth.Principal, status string, page domain.Page) ([]domain.Booking, error)
	Update(ctx context.Context, p *auth.Principal, id uuid.UUID, req dto.UpdateBookingRequestDTO) (*domain.Booking, error)
	Accept(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error)
	Assign(ctx context.Context, p *auth.Principal, id, workerID uuid.UUID) (*domain.Booking, error)
	Cancel(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error)
	Start(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error)
	Complete(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error)
	SetStatus(ctx context.Context, p *auth.Principal, id uuid.UUID, label string) (*domain.Booking, error)
	Fees(ctx context.Context, p *auth.Principal, id uuid.UUID) (*dto.FeesResponseDTO, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

type BookingHandler struct {
	bookingService Service
}

func New(bookingService Service) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// Create godoc
//
//	@Summary		Create a booking
//	@Description	Homeowners book a service. Passing workerId targets a specific worker.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateBookingRequestDTO	true	"Booking"
//	@Success		201		{object}	utils.Response{data=domain.Booking}
//	@Failure		400		{object}	utils.Response	"Missing required fields"
//	@Failure		403		{object}	utils.Response	"Access denied"
//	@Router			/api/bookings [post]
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	var req dto.CreateBookingRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	booking, err := h.bookingService.Create(r.Context(), p, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusCreated, "Booking created", booking)
}

// List godoc
//
//	@Summary		List bookings
//	@Description	Homeowners see their own bookings. Workers see bookings assigned to them and open bookings without a worker.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	utils.Response{data=[]domain.Booking}
//	@Router			/api/bookings [get]
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	bookings, err := h.bookingService.List(r.Context(), p, r.URL.Query().Get("status"), utils.Page(r))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, bookings)
}

// Get godoc
//
//	@Summary	Get a booking
//	@Tags		Bookings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Booking id"
//	@Success	200	{object}	utils.Response{data=domain.Booking}
//	@Failure	404	{object}	utils.Response	"Resource not found"
//	@Router		/api/bookings/{id} [get]
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.bookingService.Get, "")
}

// Update godoc
//
//	@Summary		Edit a booking
//	@Description	Only pending bookings can be edited, by their owner or an admin.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Booking id"
//	@Param			request	body		dto.UpdateBookingRequestDTO	true	"Fields to change"
//	@Success		200		{object}	utils.Response{data=domain.Booking}
//	@Router			/api/bookings/{id} [put]
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateBookingRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	booking, err := h.bookingService.Update(r.Context(), p, id, req)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Booking updated", booking)
}

// Delete godoc
//
//	@Summary	Delete a booking
//	@Tags		Bookings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Booking id"
//	@Success	200	{object}	utils.Response
//	@Failure	403	{object}	utils.Response	"Access denied"
//	@Router		/api/bookings/{id} [delete]
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	if err := h.bookingService.Delete(r.Context(), p, id); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Booking deleted", nil)
}

// Accept godoc
//
//	@Summary	Accept a booking targeted at the calling worker
//	@Tags		Bookings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Booking id"
//	@Success	200	{object}	utils.Response{data=domain.Booking}
//	@Failure	409	{object}	utils.Response	"Resource was modified by another request"
//	@Router		/api/bookings/{id}/accept [put]
func (h *BookingHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.bookingService.Accept, "Booking accepted")
}

// Assign godoc
//
//	@Summary	Assign a worker to a pending booking
//	@Tags		Bookings
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Booking id"
//	@Param		request	body		dto.AssignBookingRequestDTO	true	"Worker"
//	@Success	200		{object}	utils.Response{data=domain.Booking}
//	@Router		/api/bookings/{id}/assign [put]
func (h *BookingHandler) Assign(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	var req dto.AssignBookingRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	booking, err := h.bookingService.Assign(r.Context(), p, id, req.WorkerID)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Worker assigned", booking)
}

// Cancel godoc
//
//	@Summary	Cancel a pending booking
//	@Tags		Bookings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Booking id"
//	@Success	200	{object}	utils.Response{data=domain.Booking}
//	@Router		/api/bookings/{id}/cancel [put]
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.bookingService.Cancel, "Booking cancelled")
}

// Start godoc
//
//	@Summary	Start an assigned booking
//	@Tags		Bookings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Booking id"
//	@Success	200	{object}	utils.Response{data=domain.Booking}
//	@Router		/api/bookings/{id}/start [put]
func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.bookingService.Start, "Booking started")
}

// Complete godoc
//
//	@Summary	Complete a booking in progress
//	@Tags		Bookings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Booking id"
//	@Success	200	{object}	utils.Response{data=domain.Booking}
//	@Router		/api/bookings/{id}/complete [put]
func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.bookingService.Complete, "Booking completed")
}

// SetStatus godoc
//
//	@Summary		Change a booking status
//	@Description	Applies the same transition rules as the dedicated endpoints.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Booking id"
//	@Param			request	body		dto.BookingStatusRequestDTO	true	"Target status"
//	@Success		200		{object}	utils.Response{data=domain.Booking}
//	@Failure		400		{object}	utils.Response	"Invalid status transition"
//	@Router			/api/bookings/{id}/status [put]
func (h *BookingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	var req dto.BookingStatusRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	booking, err := h.bookingService.SetStatus(r.Context(), p, id, req.Status)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Booking status updated", booking)
}

// Fees godoc
//
//	@Summary	Fee breakdown of a booking
//	@Tags		Bookings
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Booking id"
//	@Success	200	{object}	utils.Response{data=dto.FeesResponseDTO}
//	@Router		/api/bookings/{id}/fees [get]
func (h *BookingHandler) Fees(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	fees, err := h.bookingService.Fees(r.Context(), p, id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, fees)
}

type bookingFunc func(ctx context.Context, p *auth.Principal, id uuid.UUID) (*domain.Booking, error)

func (h *BookingHandler) byID(w http.ResponseWriter, r *http.Request, fn bookingFunc, message string) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	booking, err := fn(r.Context(), p, id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	if message == "" {
		utils.RespondWithJSON(w, http.StatusOK, booking)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, message, booking)
}
