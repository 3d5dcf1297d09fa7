package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/bulkdrop/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// AddressStore defines the database methods needed by saved address handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AddressStore interface {
	ListSavedAddresses(ctx context.Context, userID uuid.UUID) ([]database.SavedAddress, error)
	UpdateSavedAddress(ctx context.Context, arg database.UpdateSavedAddressParams) (database.SavedAddress, error)
	DeleteSavedAddress(ctx context.Context, arg database.DeleteSavedAddressParams) (uuid.UUID, error)
}

// AddressServicer is satisfied by *service.AddressService.
type AddressServicer interface {
	Create(ctx context.Context, arg database.CreateSavedAddressParams) (database.SavedAddress, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) (database.SavedAddress, error)
}

// AddressHandler manages the caller's saved delivery addresses.
type AddressHandler struct {
	svc   AddressServicer
	store AddressStore
	log   *logrus.Entry
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(svc AddressServicer, store AddressStore, log *logrus.Entry) *AddressHandler {
	return &AddressHandler{svc: svc, store: store, log: log}
}

// RegisterRoutes registers address endpoints. Expected at /api/addresses.
func (h *AddressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/default", h.SetDefault)
}

type addressRequest struct {
	Label        string   `json:"label"`
	FullName     string   `json:"full_name"`
	Phone        string   `json:"phone"`
	AddressLine1 string   `json:"address_line1"`
	AddressLine2 string   `json:"address_line2"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postal_code"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	IsDefault    bool     `json:"is_default"`
}

type addressResponse struct {
	ID           uuid.UUID `json:"id"`
	Label        *string   `json:"label"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 *string   `json:"address_line2"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toAddressResponse(a database.SavedAddress) addressResponse {
	return addressResponse{
		ID:           a.ID,
		Label:        textPtr(a.Label),
		FullName:     a.FullName,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: textPtr(a.AddressLine2),
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Latitude:     floatPtr(a.Latitude),
		Longitude:    floatPtr(a.Longitude),
		IsDefault:    a.IsDefault,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// validateAddress returns the name of the first missing required field.
func validateAddress(req *addressRequest) string {
	fields := []struct {
		name  string
		value *string
	}{
		{"full_name", &req.FullName},
		{"phone", &req.Phone},
		{"address_line1", &req.AddressLine1},
		{"city", &req.City},
		{"state", &req.State},
		{"postal_code", &req.PostalCode},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return f.name + " is required"
		}
	}
	return ""
}

// List returns the caller's addresses, default first.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	addrs, err := h.store.ListSavedAddresses(r.Context(), actor.ID)
	if err != nil {
		writeInternal(w, h.log, r, "list addresses", err)
		return
	}

	resp := make([]addressResponse, len(addrs))
	for i, a := range addrs {
		resp[i] = toAddressResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create saves a new address.
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateAddress(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	addr, err := h.svc.Create(r.Context(), database.CreateSavedAddressParams{
		UserID:       actor.ID,
		Label:        optText(req.Label),
		FullName:     req.FullName,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: optText(req.AddressLine2),
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Latitude:     optFloat(req.Latitude),
		Longitude:    optFloat(req.Longitude),
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		writeInternal(w, h.log, r, "create address", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAddressResponse(addr))
}

// Update edits an address. The default flag is changed via SetDefault.
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address ID")
		return
	}

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateAddress(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	addr, err := h.store.UpdateSavedAddress(r.Context(), database.UpdateSavedAddressParams{
		ID:           id,
		UserID:       actor.ID,
		Label:        optText(req.Label),
		FullName:     req.FullName,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: optText(req.AddressLine2),
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Latitude:     optFloat(req.Latitude),
		Longitude:    optFloat(req.Longitude),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "address not found")
			return
		}
		writeInternal(w, h.log, r, "update address", err)
		return
	}

	writeJSON(w, http.StatusOK, toAddressResponse(addr))
}

// Delete removes one of the caller's addresses.
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address ID")
		return
	}

	if _, err := h.store.DeleteSavedAddress(r.Context(), database.DeleteSavedAddressParams{ID: id, UserID: actor.ID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "address not found")
			return
		}
		writeInternal(w, h.log, r, "delete address", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefault makes one address the caller's default.
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address ID")
		return
	}

	addr, err := h.svc.SetDefault(r.Context(), actor.ID, id)
	if err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			writeError(w, http.StatusNotFound, "address not found")
			return
		}
		writeInternal(w, h.log, r, "set default address", err)
		return
	}

	writeJSON(w, http.StatusOK, toAddressResponse(addr))
}
