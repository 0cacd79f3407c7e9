package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ardentlabs/ardent-pos-backend/internal/modules/user"
	"github.com/go-chi/chi/v5"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service Service
	require func(user.Role) func(http.Handler) http.Handler
}

func NewHandler(service Service, require func(user.Role) func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, require: require}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.require(user.RoleCashier))
			r.Get("/", h.listProducts)
			r.Get("/{id}", h.getProduct)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.require(user.RoleManager))
			r.Post("/", h.createProduct)
			r.Patch("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deactivateProduct)
		})
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.require(user.RoleCashier))
			r.Get("/", h.listCategories)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.require(user.RoleManager))
			r.Post("/", h.createCategory)
		})
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		code := http.StatusInternalServerError
		msg := err.Error()
		if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") || strings.Contains(msg, "cannot be") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	products, err := h.service.ListProducts(r.Context(),
		r.URL.Query().Get("search"), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, products)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		code := http.StatusInternalServerError
		msg := err.Error()
		if strings.Contains(msg, "no rows") {
			code = http.StatusNotFound
			msg = "product not found"
		} else if strings.Contains(msg, "cannot be") || strings.Contains(msg, "no fields") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "product deactivated"})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "required") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, c)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, categories)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
