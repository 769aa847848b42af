package handler

import (
	"net/http"

	"roombook/internal/rooms/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RoomHandler struct {
	service service.RoomService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewRoomHandler(service service.RoomService, auth *middleware.Authenticator, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	staff := []model.Role{model.RoleManager, model.RoleAdmin}

	router.GET("/api/v1/rooms", h.auth.Authenticate(h.GetAll))
	router.GET("/api/v1/rooms/available", h.auth.Authenticate(h.FindAvailable))
	router.GET("/api/v1/rooms/id/:id", h.auth.Authenticate(h.GetByID))
	router.GET("/api/v1/rooms/id/:id/availability", h.auth.Authenticate(h.Availability))
	router.POST("/api/v1/rooms", h.auth.RequireRole(h.Create, staff...))
	router.PATCH("/api/v1/rooms/id/:id", h.auth.RequireRole(h.Update, staff...))
	router.DELETE("/api/v1/rooms/id/:id", h.auth.RequireRole(h.Delete, staff...))
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var room model.Room
	if err := httputil.DecodeJSON(r, &room); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &room); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, room); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	rooms, totalCount, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, rooms, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.RoomUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	room, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteNoContent(w); err != nil {
		h.log.Error("failed to write no content response", "handler", "Delete", "operation", "WriteNoContent", "error", err)
	}
}

// Availability serves the slot grid of one room for ?date=, with optional
// granularity, day_start, day_end and include_closing overrides.
func (h *RoomHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query, err := slotQuery(r)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	result, err := h.service.Availability(r.Context(), ps.ByName("id"), r.URL.Query().Get("date"), query)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) FindAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	if q.Get("date") == "" || q.Get("start_time") == "" || q.Get("end_time") == "" {
		h.writeError(w, "FindAvailable", apperrors.InvalidInput("date, start_time and end_time are required"))
		return
	}

	rooms, err := h.service.FindAvailable(r.Context(), q.Get("date"), q.Get("start_time"), q.Get("end_time"))
	if err != nil {
		h.writeError(w, "FindAvailable", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "FindAvailable", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func slotQuery(r *http.Request) (model.SlotQuery, error) {
	q := r.URL.Query()
	query := model.SlotQuery{
		DayStart: q.Get("day_start"),
		DayEnd:   q.Get("day_end"),
	}

	granularity, ok, err := httputil.QueryInt(r, "granularity")
	if err != nil {
		return query, err
	}
	if ok {
		if granularity == 0 {
			return query, apperrors.InvalidInput("granularity must be positive")
		}
		query.Granularity = granularity
	}

	include, ok, err := httputil.QueryBool(r, "include_closing")
	if err != nil {
		return query, err
	}
	if ok {
		query.IncludeClosing = &include
	}

	return query, nil
}
