package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jayyveer/yarnbykrosh/internal/identity"
	"github.com/jayyveer/yarnbykrosh/internal/imagestore"
	"github.com/jayyveer/yarnbykrosh/internal/orders"
)

// AdminService is the back-office slice of the identity service.
type AdminService interface {
	Dashboard(ctx context.Context) (*identity.DashboardCounts, error)
	MakeAdmin(ctx context.Context, actorID uuid.UUID, targetEmail string, role identity.AdminRole) (*identity.Admin, error)
}

// ImageStore uploads and deletes product images.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

type AdminHandler struct {
	svc    AdminService
	images ImageStore
	orders OrderStore
}

func NewAdminHandler(svc AdminService, images ImageStore, orderStore OrderStore) *AdminHandler {
	return &AdminHandler{svc: svc, images: images, orders: orderStore}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Dashboard(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

type makeAdminDTO struct {
	Email string             `json:"email"`
	Role  identity.AdminRole `json:"role"`
}

func (h *AdminHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	actor, _ := userFrom(r.Context())

	var req makeAdminDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	admin, err := h.svc.MakeAdmin(r.Context(), actor.ID, req.Email, req.Role)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, admin)
}

// UploadImage accepts a raw image body and returns its public URL. The
// multipart form shape is also accepted for back-office convenience.
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body

	if mediaType := r.Header.Get("Content-Type"); len(mediaType) >= 19 && mediaType[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(imagestore.MaxImageSize); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "malformed multipart body")
			return
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "missing image field")
			return
		}
		defer file.Close()
		body = file
	}

	url, err := h.images.Upload(r.Context(), body)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	imageUploads.Inc()

	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}

type removeImageDTO struct {
	URL string `json:"url"`
}

func (h *AdminHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	var req removeImageDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "url is required")
		return
	}

	if err := h.images.Remove(r.Context(), req.URL); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type updateOrderStatusDTO struct {
	Status orders.OrderStatus `json:"status"`
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderParam(w, r)
	if !ok {
		return
	}

	var req updateOrderStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !req.Status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		handleDomainError(w, err)
		return
	}

	order, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
