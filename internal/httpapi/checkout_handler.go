package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jayyveer/yarnbykrosh/internal/checkout"
	"github.com/jayyveer/yarnbykrosh/internal/orders"
	"github.com/jayyveer/yarnbykrosh/internal/pricing"
)

type CheckoutService interface {
	Begin(ctx context.Context, userID string) (*checkout.Session, error)
	Get(ctx context.Context, userID string, sessionID uuid.UUID) (*checkout.Session, error)
	Continue(ctx context.Context, userID string, sessionID uuid.UUID) (*checkout.Session, error)
	Back(ctx context.Context, userID string, sessionID uuid.UUID) (*checkout.Session, error)
	SelectAddress(ctx context.Context, userID string, sessionID uuid.UUID, addressID int64) (*checkout.Session, error)
	Quote(ctx context.Context, userID string) (*pricing.Quote, error)
	PlaceOrder(ctx context.Context, userID string, sessionID uuid.UUID) (*orders.Order, error)
}

type CheckoutHandler struct {
	svc CheckoutService
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type selectAddressDTO struct {
	AddressID int64 `json:"address_id"`
}

func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	session, err := h.svc.Begin(r.Context(), user.ID.String())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, http.StatusOK, h.svc.Get)
}

func (h *CheckoutHandler) Continue(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, http.StatusOK, h.svc.Continue)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, http.StatusOK, h.svc.Back)
}

func (h *CheckoutHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	var req selectAddressDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.AddressID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be positive")
		return
	}

	session, err := h.svc.SelectAddress(r.Context(), user.ID.String(), sessionID, req.AddressID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	quote, err := h.svc.Quote(r.Context(), user.ID.String())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	order, err := h.svc.PlaceOrder(r.Context(), user.ID.String(), sessionID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	ordersPlaced.Inc()

	respondJSON(w, http.StatusCreated, order)
}

func (h *CheckoutHandler) sessionAction(w http.ResponseWriter, r *http.Request, status int,
	fn func(ctx context.Context, userID string, sessionID uuid.UUID) (*checkout.Session, error)) {
	user, _ := userFrom(r.Context())

	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	session, err := fn(r.Context(), user.ID.String(), sessionID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, status, session)
}

func sessionParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "session_id must be a UUID")
		return uuid.Nil, false
	}
	return sessionID, true
}
