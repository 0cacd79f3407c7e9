package stock

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ardentlabs/ardent-pos-backend/internal/modules/auth"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/user"
	"github.com/go-chi/chi/v5"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct {
	service Service
	require func(user.Role) func(http.Handler) http.Handler
}

func NewHandler(service Service, require func(user.Role) func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, require: require}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Use(h.require(user.RoleInventoryStaff))
		r.Get("/", h.listStock)
		r.Get("/low-stock", h.lowStock)
		r.Get("/{product_id}/movements", h.movements)
		r.Patch("/{product_id}", h.updateStock)
	})
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListStock(r.Context(), ListFilter{
		Search: r.URL.Query().Get("search"),
		Filter: r.URL.Query().Get("filter"),
	})
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch inventory"})
		return
	}
	respond(w, http.StatusOK, items)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch low stock items"})
		return
	}
	respond(w, http.StatusOK, items)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	movements, err := h.service.Movements(r.Context(), chi.URLParam(r, "product_id"), limit, offset)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "invalid product_id") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, movements)
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.ActorID(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rec, err := h.service.UpdateStock(r.Context(), chi.URLParam(r, "product_id"), req, actorID)
	if err != nil {
		var ntErr *NotTrackedError
		var isErr *InsufficientStockError
		switch {
		case errors.As(err, &ntErr):
			respond(w, http.StatusNotFound, map[string]string{"error": ntErr.Error()})
		case errors.As(err, &isErr):
			respond(w, http.StatusConflict, map[string]string{"error": isErr.Error()})
		default:
			code := http.StatusInternalServerError
			msg := err.Error()
			if strings.Contains(msg, "invalid") || strings.Contains(msg, "cannot be") || strings.Contains(msg, "no fields") {
				code = http.StatusBadRequest
			}
			respond(w, code, map[string]string{"error": msg})
		}
		return
	}
	respond(w, http.StatusOK, rec)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
