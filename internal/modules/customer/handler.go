package customer

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	require func(http.Handler) http.Handler
}

func NewHandler(service Service, require func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, require: require}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/customers", func(r chi.Router) {
		r.Use(h.require)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.deactivate)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.service.CreateCustomer(r.Context(), req)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, c)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "failed to list customers"})
		return
	}
	respond(w, http.StatusOK, customers)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.service.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "customer deactivated"})
}

func respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
