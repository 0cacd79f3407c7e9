package payment

import (
	"encoding/json"
	"errors"
	"io"
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
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(h.require)
		r.Post("/initialize", h.initialize)
		r.Get("/verify", h.verify)
		r.Get("/sale/{sale_id}", h.listBySale)
	})
	// Webhooks are authenticated by signature, not by session.
	r.Post("/api/v1/webhooks/paystack", h.webhook)
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.service.Initialize(r.Context(), req)
	if err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			respond(w, http.StatusBadGateway, map[string]string{"error": "payment gateway unavailable"})
			return
		}
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, result)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "reference is required"})
		return
	}

	p, err := h.service.Verify(r.Context(), reference)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond(w, http.StatusNotFound, map[string]string{"error": "payment not found"})
			return
		}
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			respond(w, http.StatusBadGateway, map[string]string{"error": "payment gateway unavailable"})
			return
		}
		respond(w, http.StatusInternalServerError, map[string]string{"error": "verification failed"})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) listBySale(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListBySale(r.Context(), chi.URLParam(r, "sale_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, payments)
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	err = h.service.HandleWebhook(r.Context(), body, r.Header.Get("X-Paystack-Signature"))
	if err != nil {
		// One generic rejection for bad signatures and bad payloads alike.
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
