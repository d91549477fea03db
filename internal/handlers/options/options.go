package options

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

type Service interface {
	List(ctx context.Context, category string) ([]domain.Option, error)
}

type OptionHandler struct {
	optionService Service
}

func New(optionService Service) *OptionHandler {
	return &OptionHandler{
		optionService: optionService,
	}
}

// List godoc
//
//	@Summary		Dropdown options
//	@Description	Categories: genders, marital-statuses, residence-types, payment-methods, service-types, languages, districts. A built-in list is served when the table is empty or unreachable.
//	@Tags			Options
//	@Produce		json
//	@Param			category	path		string	true	"Option category"
//	@Success		200			{object}	utils.Response{data=[]domain.Option}
//	@Failure		404			{object}	utils.Response	"Resource not found"
//	@Router			/api/options/{category} [get]
func (h *OptionHandler) List(w http.ResponseWriter, r *http.Request) {
	options, err := h.optionService.List(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, options)
}
