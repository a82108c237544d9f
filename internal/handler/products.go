package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/guitarshop/internal/model"
	"github.com/mmeshcher/guitarshop/internal/repository"
	"github.com/mmeshcher/guitarshop/internal/validation"
)

type productRequest struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageURL"`
}

type productResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	Description string `json:"description"`
	ImageURL    string `json:"imageURL"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func decodeProduct(r *http.Request) (*model.Product, error) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}

	p := &model.Product{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := validation.Product(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts возвращает каталог; параметр query фильтрует по названию.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.internalError(w, "list products error", err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, toProductResponse(&products[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct возвращает товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		h.internalError(w, "get product error", err, zap.Int64("productID", id))
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProduct(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.CreateProduct(r.Context(), p); err != nil {
		h.internalError(w, "create product error", err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

// UpdateProduct перезаписывает поля товара.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	p, err := decodeProduct(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.ID = id

	if err := h.service.UpdateProduct(r.Context(), p); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		h.internalError(w, "update product error", err, zap.Int64("productID", id))
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// DeleteProduct удаляет товар из каталога.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrProductInUse):
			http.Error(w, "product is referenced by orders", http.StatusConflict)
		default:
			h.internalError(w, "delete product error", err, zap.Int64("productID", id))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
