package sale

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ardentlabs/ardent-pos-backend/internal/modules/auth"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/stock"
	"github.com/ardentlabs/ardent-pos-backend/internal/modules/user"
	"github.com/go-chi/chi/v5"
)

// Handler exposes sale HTTP endpoints.
type Handler struct {
	service Service
	require func(user.Role) func(http.Handler) http.Handler
}

func NewHandler(service Service, require func(user.Role) func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, require: require}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/sales", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.require(user.RoleCashier))
			r.Post("/", h.commitSale)
			r.Get("/", h.listSales)
			r.Get("/{id}", h.getSale)
			r.Get("/number/{sale_number}", h.getSaleByNumber)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.require(user.RoleManager))
			r.Patch("/{id}/fulfillment", h.updateFulfillment)
		})
	})
}

func (h *Handler) commitSale(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.ActorID(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.service.CommitSale(r.Context(), req, actorID)
	if err != nil {
		h.respondCommitError(w, err)
		return
	}
	respond(w, http.StatusCreated, result)
}

func (h *Handler) respondCommitError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	var nfErr *ProductNotFoundError
	var stockErr *stock.InsufficientStockError

	switch {
	case errors.As(err, &vErr):
		respond(w, http.StatusBadRequest, map[string]string{"error": vErr.Msg})
	case errors.As(err, &nfErr):
		respond(w, http.StatusBadRequest, map[string]string{
			"error":      nfErr.Error(),
			"product_id": nfErr.ProductID,
		})
	case errors.As(err, &stockErr):
		respond(w, http.StatusConflict, map[string]interface{}{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID.String(),
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	case errors.Is(err, ErrDuplicateSaleNumber):
		respond(w, http.StatusConflict, map[string]string{"error": "could not allocate sale number, retry the request"})
	default:
		respond(w, http.StatusInternalServerError, map[string]string{"error": "failed to process sale"})
	}
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "sale not found"})
		return
	}
	respond(w, http.StatusOK, s)
}

func (h *Handler) getSaleByNumber(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetSaleByNumber(r.Context(), chi.URLParam(r, "sale_number"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "sale not found"})
		return
	}
	respond(w, http.StatusOK, s)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	f := ListFilter{
		DateFrom:      r.URL.Query().Get("date_from"),
		DateTo:        r.URL.Query().Get("date_to"),
		PaymentStatus: r.URL.Query().Get("status"),
		Limit:         limit,
		Offset:        offset,
	}
	sales, err := h.service.ListSales(r.Context(), f)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch sales"})
		return
	}
	respond(w, http.StatusOK, sales)
}

func (h *Handler) updateFulfillment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.ActorID(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	type request struct {
		Status string `json:"status"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s, err := h.service.UpdateFulfillment(r.Context(), chi.URLParam(r, "id"), req.Status, actorID)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			respond(w, http.StatusUnprocessableEntity, map[string]string{"error": vErr.Msg})
		default:
			respond(w, http.StatusNotFound, map[string]string{"error": "sale not found"})
		}
		return
	}
	respond(w, http.StatusOK, s)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
