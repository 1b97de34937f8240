package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jayyveer/yarnbykrosh/internal/address"
	"github.com/jayyveer/yarnbykrosh/internal/cart"
	"github.com/jayyveer/yarnbykrosh/internal/catalog"
	"github.com/jayyveer/yarnbykrosh/internal/checkout"
	"github.com/jayyveer/yarnbykrosh/internal/identity"
	"github.com/jayyveer/yarnbykrosh/internal/imagestore"
	"github.com/jayyveer/yarnbykrosh/internal/orders"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError maps service sentinels to HTTP status codes. Anything
// unmapped is a 500 with a generic body, the real cause goes to the log.
func handleDomainError(w http.ResponseWriter, err error) {
	var validationErr *address.ValidationError
	if errors.As(err, &validationErr) {
		respondError(w, http.StatusBadRequest, "invalid_"+validationErr.Field, validationErr.Error())
		return
	}

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrVariantOutOfStock),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoAddressSelected),
		errors.Is(err, checkout.ErrNotAtSummary),
		errors.Is(err, checkout.ErrAtLastStep),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, identity.ErrInvalidRole),
		errors.Is(err, imagestore.ErrImageTooLarge),
		errors.Is(err, imagestore.ErrUnsupportedFormat):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrSessionNotFound):
		respondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())

	case errors.Is(err, checkout.ErrNotOwned),
		errors.Is(err, address.ErrNotOwned),
		errors.Is(err, identity.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrVariantNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, address.ErrAddressNotFound),
		errors.Is(err, checkout.ErrSessionNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, checkout.ErrSessionClosed):
		respondError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, imagestore.ErrStoreUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())

	default:
		log.Printf("unhandled error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
