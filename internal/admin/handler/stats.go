package handler

import (
	"net/http"

	"roombook/internal/admin/service"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AdminHandler struct {
	service service.StatsService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewAdminHandler(service service.StatsService, auth *middleware.Authenticator, log *logger.Logger) *AdminHandler {
	return &AdminHandler{service: service, auth: auth, log: log}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/stats", h.auth.RequireRole(h.Stats, model.RoleAdmin))
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stats", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}
