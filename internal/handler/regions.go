package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bulkdrop/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// RegionStore defines the database methods needed by region handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RegionStore interface {
	ListActiveRegions(ctx context.Context) ([]database.Region, error)
	ListRegions(ctx context.Context) ([]database.Region, error)
	CreateRegion(ctx context.Context, arg database.CreateRegionParams) (database.Region, error)
	UpdateRegion(ctx context.Context, arg database.UpdateRegionParams) (database.Region, error)
}

// RegionHandler lists regions and lets super admins manage them.
type RegionHandler struct {
	store RegionStore
	log   *logrus.Entry
}

// NewRegionHandler creates a new RegionHandler.
func NewRegionHandler(store RegionStore, log *logrus.Entry) *RegionHandler {
	return &RegionHandler{store: store, log: log}
}

// RegisterRoutes registers the public listing. Expected at /api/regions.
func (h *RegionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListActive)
}

// RegisterAdminRoutes registers region management. Expected at
// /api/admin/regions behind RequireSuperAdmin.
func (h *RegionHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.ListAll)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
}

type regionRequest struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	SupportEmail string `json:"support_email"`
	SupportPhone string `json:"support_phone"`
	IsActive     *bool  `json:"is_active"`
}

type regionResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	SupportEmail *string   `json:"support_email"`
	SupportPhone *string   `json:"support_phone"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toRegionResponse(rg database.Region) regionResponse {
	return regionResponse{
		ID:           rg.ID,
		Name:         rg.Name,
		Code:         rg.Code,
		SupportEmail: textPtr(rg.SupportEmail),
		SupportPhone: textPtr(rg.SupportPhone),
		IsActive:     rg.IsActive,
		CreatedAt:    rg.CreatedAt,
		UpdatedAt:    rg.UpdatedAt,
	}
}

func toRegionList(regions []database.Region) []regionResponse {
	resp := make([]regionResponse, len(regions))
	for i, rg := range regions {
		resp[i] = toRegionResponse(rg)
	}
	return resp
}

func validateRegion(req regionRequest) (string, string, string) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", "", "name is required"
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return "", "", "code is required"
	}
	return name, code, ""
}

// ListActive returns regions customers can pick.
func (h *RegionHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	regions, err := h.store.ListActiveRegions(r.Context())
	if err != nil {
		writeInternal(w, h.log, r, "list regions", err)
		return
	}
	writeJSON(w, http.StatusOK, toRegionList(regions))
}

// ListAll returns every region, including inactive ones.
func (h *RegionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	regions, err := h.store.ListRegions(r.Context())
	if err != nil {
		writeInternal(w, h.log, r, "list regions", err)
		return
	}
	writeJSON(w, http.StatusOK, toRegionList(regions))
}

// Create adds a region.
func (h *RegionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req regionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name, code, msg := validateRegion(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	region, err := h.store.CreateRegion(r.Context(), database.CreateRegionParams{
		Name:         name,
		Code:         code,
		SupportEmail: optText(req.SupportEmail),
		SupportPhone: optText(req.SupportPhone),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "region code already exists")
			return
		}
		writeInternal(w, h.log, r, "create region", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRegionResponse(region))
}

// Update replaces a region's fields.
func (h *RegionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid region ID")
		return
	}

	var req regionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name, code, msg := validateRegion(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	region, err := h.store.UpdateRegion(r.Context(), database.UpdateRegionParams{
		ID:           id,
		Name:         name,
		Code:         code,
		SupportEmail: optText(req.SupportEmail),
		SupportPhone: optText(req.SupportPhone),
		IsActive:     isActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, http.StatusNotFound, "region not found")
		case isUniqueViolation(err):
			writeError(w, http.StatusConflict, "region code already exists")
		default:
			writeInternal(w, h.log, r, "update region", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toRegionResponse(region))
}
