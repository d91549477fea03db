package health

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/pkg/utils"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func New(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Ping godoc
//
//	@Summary	Liveness check
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	utils.Response
//	@Router		/api/ping [get]
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithMessage(w, http.StatusOK, "pong", map[string]string{"status": "ok"})
}

// Database godoc
//
//	@Summary	Database connectivity check
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	utils.Response
//	@Failure	503	{object}	utils.Response	"Database unavailable"
//	@Router		/api/health/db [get]
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		zap.L().Error("database ping failed", zap.Error(err))
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"database": "connected"})
}
