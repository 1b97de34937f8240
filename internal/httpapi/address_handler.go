package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jayyveer/yarnbykrosh/internal/address"
)

type AddressStore interface {
	ListByUser(ctx context.Context, userID string) ([]*address.Address, error)
	GetOwned(ctx context.Context, id int64, userID string) (*address.Address, error)
	Create(ctx context.Context, a *address.Address) error
	Update(ctx context.Context, a *address.Address) error
	Delete(ctx context.Context, id int64, userID string) error
	SetPrimary(ctx context.Context, id int64, userID string) error
}

type AddressHandler struct {
	store AddressStore
}

func NewAddressHandler(store AddressStore) *AddressHandler {
	return &AddressHandler{store: store}
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	addresses, err := h.store.ListByUser(r.Context(), user.ID.String())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if addresses == nil {
		addresses = []*address.Address{}
	}
	respondJSON(w, http.StatusOK, addresses)
}

func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	id, ok := idParam(w, r, "address_id")
	if !ok {
		return
	}

	addr, err := h.store.GetOwned(r.Context(), id, user.ID.String())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, addr)
}

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	var addr address.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	addr.UserID = user.ID.String()
	if err := addr.Validate(); err != nil {
		handleDomainError(w, err)
		return
	}

	if err := h.store.Create(r.Context(), &addr); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, addr)
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	id, ok := idParam(w, r, "address_id")
	if !ok {
		return
	}

	// Ownership first, then the write.
	if _, err := h.store.GetOwned(r.Context(), id, user.ID.String()); err != nil {
		handleDomainError(w, err)
		return
	}

	var addr address.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	addr.ID = id
	addr.UserID = user.ID.String()
	if err := addr.Validate(); err != nil {
		handleDomainError(w, err)
		return
	}

	if err := h.store.Update(r.Context(), &addr); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, addr)
}

func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	id, ok := idParam(w, r, "address_id")
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id, user.ID.String()); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AddressHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	id, ok := idParam(w, r, "address_id")
	if !ok {
		return
	}

	if err := h.store.SetPrimary(r.Context(), id, user.ID.String()); err != nil {
		handleDomainError(w, err)
		return
	}

	addr, err := h.store.GetOwned(r.Context(), id, user.ID.String())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, addr)
}
