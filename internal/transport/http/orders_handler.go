package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
)

// OrderReader is the read side of order storage.
type OrderReader interface {
	GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	repo    OrderReader
	timeout time.Duration
}

func NewOrdersHandler(repo OrderReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		repo:    repo,
		timeout: timeout,
	}
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderNumber := chi.URLParam(r, "order_number")
	if orderNumber == "" {
		respondError(w, http.StatusBadRequest, "invalid_order_number", "order_number must not be empty")
		return
	}

	order, err := h.repo.GetOrder(ctx, orderNumber)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	result, err := h.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if result == nil {
		result = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, result)
}
