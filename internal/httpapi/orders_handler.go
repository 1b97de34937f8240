package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jayyveer/yarnbykrosh/internal/orders"
)

type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*orders.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status orders.OrderStatus) error
}

type OrdersHandler struct {
	store OrderStore
}

func NewOrdersHandler(store OrderStore) *OrdersHandler {
	return &OrdersHandler{store: store}
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	list, err := h.store.ListByUser(r.Context(), user.ID.String())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if list == nil {
		list = []*orders.Order{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	orderID, ok := orderParam(w, r)
	if !ok {
		return
	}

	order, err := h.store.GetByID(r.Context(), orderID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	// Order detail is private; hide existence from other users.
	if order.UserID != user.ID.String() {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func orderParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return uuid.Nil, false
	}
	return orderID, true
}
