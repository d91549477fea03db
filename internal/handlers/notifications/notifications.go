package notifications

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

type Service interface {
	List(ctx context.Context, p *auth.Principal, unreadOnly bool, page domain.Page) ([]domain.Notification, error)
	MarkRead(ctx context.Context, p *auth.Principal, id uuid.UUID) error
	MarkAllRead(ctx context.Context, p *auth.Principal) (int64, error)
}

type NotificationHandler struct {
	notificationService Service
}

func New(notificationService Service) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List godoc
//
//	@Summary	List own notifications
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		unread	query		bool	false	"Only unread notifications"
//	@Param		limit	query		int		false	"Page size"
//	@Param		offset	query		int		false	"Page offset"
//	@Success	200		{object}	utils.Response{data=[]domain.Notification}
//	@Router		/api/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	list, err := h.notificationService.List(r.Context(), p, unread, utils.Page(r))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Notification{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// MarkRead godoc
//
//	@Summary	Mark a notification as read
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Notification id"
//	@Success	200	{object}	utils.Response
//	@Failure	404	{object}	utils.Response	"Resource not found"
//	@Router		/api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	id, ok := utils.URLID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), p, id); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllRead godoc
//
//	@Summary	Mark every notification as read
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	utils.Response
//	@Router		/api/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	n, err := h.notificationService.MarkAllRead(r.Context(), p)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Notifications marked as read", map[string]int64{"updated": n})
}
