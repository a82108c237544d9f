package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/guitarshop/internal/middleware"
	"github.com/mmeshcher/guitarshop/internal/model"
	"github.com/mmeshcher/guitarshop/internal/pricing"
	"github.com/mmeshcher/guitarshop/internal/service"
	"github.com/mmeshcher/guitarshop/internal/validation"
)

type orderLineRequest struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type createOrderRequest struct {
	Products []orderLineRequest `json:"products"`
}

type orderLineResponse struct {
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     string           `json:"price"`
	Product   *productResponse `json:"product,omitempty"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId"`
	Status    model.OrderStatus   `json:"status"`
	Total     string              `json:"total"`
	Products  []orderLineResponse `json:"products"`
	CreatedAt string              `json:"createdAt"`
	UpdatedAt string              `json:"updatedAt"`
}

func toOrderResponse(o *model.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		line := orderLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice.StringFixed(2),
		}
		if l.Product != nil {
			p := toProductResponse(l.Product)
			line.Product = &p
		}
		lines = append(lines, line)
	}

	return orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		Total:     o.Total.StringFixed(2),
		Products:  lines,
		CreatedAt: formatTime(o.CreatedAt),
		UpdatedAt: formatTime(o.UpdatedAt),
	}
}

// CreateOrder оформляет заказ текущего пользователя по текущим ценам каталога.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	lines := make([]model.LineRequest, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, model.LineRequest{ProductID: p.ID, Quantity: p.Quantity})
	}
	if err := validation.OrderLines(lines); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, err := h.service.CreateOrder(r.Context(), principal, lines)
	if err != nil {
		var notFound *pricing.ProductNotFoundError
		switch {
		case errors.As(err, &notFound):
			http.Error(w, notFound.Error(), http.StatusBadRequest)
		case errors.Is(err, pricing.ErrNoLines), errors.Is(err, pricing.ErrInvalidQuantity):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.internalError(w, "create order error", err, zap.String("userID", principal.SubjectID))
		}
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders возвращает все заказы администратору и собственные заказы остальным.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var (
		orders []model.Order
		err    error
	)
	if principal.IsAdmin() {
		orders, err = h.service.ListAllOrders(r.Context())
	} else {
		orders, err = h.service.ListOrdersForOwner(r.Context(), principal.SubjectID)
	}
	if err != nil {
		h.internalError(w, "list orders error", err, zap.String("userID", principal.SubjectID))
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder возвращает заказ с позициями.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	o, err := h.service.GetOrder(r.Context(), id, principal)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		h.internalError(w, "get order error", err, zap.String("orderID", id))
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CancelOrder отменяет заказ.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.CancelOrder(r.Context(), id, principal); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		h.internalError(w, "cancel order error", err, zap.String("orderID", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
