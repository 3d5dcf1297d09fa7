package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
)

// ProfileStore defines the database methods needed by self-service profile handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProfileStore interface {
	GetRegion(ctx context.Context, id uuid.UUID) (database.Region, error)
	UpdateProfile(ctx context.Context, arg database.UpdateProfileParams) (database.Profile, error)
	SubmitKyc(ctx context.Context, arg database.SubmitKycParams) (database.Profile, error)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	store ProfileStore
	log   *logrus.Entry
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(store ProfileStore, log *logrus.Entry) *ProfileHandler {
	return &ProfileHandler{store: store, log: log}
}

// RegisterRoutes registers profile endpoints on the given Chi router.
// Expected to be mounted at /api/profile.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Patch("/", h.Update)
	r.Post("/kyc", h.SubmitKYC)
}

// Nil fields keep their current value.
type updateProfileRequest struct {
	FullName     *string `json:"full_name"`
	Phone        *string `json:"phone"`
	BusinessName *string `json:"business_name"`
	BusinessType *string `json:"business_type"`
	TaxID        *string `json:"tax_id"`
	RegionID     *string `json:"region_id"`
}

type submitKYCRequest struct {
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	TaxID        string `json:"tax_id"`
}

func mergeText(current pgtype.Text, next *string) pgtype.Text {
	if next == nil {
		return current
	}
	return optText(*next)
}

// Get returns the authenticated caller's profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toProfileResponse(middleware.ActorFromContext(r.Context()).Profile))
}

// Update edits contact and business fields. The region can be chosen once
// while it is still unset.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := database.UpdateProfileParams{
		ID:           actor.ID,
		FullName:     actor.FullName,
		Phone:        mergeText(actor.Phone, req.Phone),
		BusinessName: mergeText(actor.BusinessName, req.BusinessName),
		BusinessType: mergeText(actor.BusinessType, req.BusinessType),
		TaxID:        mergeText(actor.TaxID, req.TaxID),
		RegionID:     actor.RegionID,
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "full_name cannot be empty")
			return
		}
		params.FullName = name
	}

	if req.RegionID != nil {
		regionID, err := uuid.Parse(strings.TrimSpace(*req.RegionID))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid region_id")
			return
		}
		if actor.HasRegion() && actor.Region() != regionID {
			writeError(w, http.StatusBadRequest, "region cannot be changed once set")
			return
		}
		region, err := h.store.GetRegion(r.Context(), regionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusBadRequest, "invalid region_id")
				return
			}
			writeInternal(w, h.log, r, "get region", err)
			return
		}
		if !region.IsActive {
			writeError(w, http.StatusBadRequest, "region is not active")
			return
		}
		params.RegionID = pgUUID(region.ID)
	}

	profile, err := h.store.UpdateProfile(r.Context(), params)
	if err != nil {
		writeInternal(w, h.log, r, "update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// SubmitKYC sends business details for verification. Rejected or pending
// submissions may be resent; an approved profile is final.
func (h *ProfileHandler) SubmitKYC(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req submitKYCRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		writeError(w, http.StatusBadRequest, "business_name is required")
		return
	}

	profile, err := h.store.SubmitKyc(r.Context(), database.SubmitKycParams{
		ID:           actor.ID,
		BusinessName: optText(req.BusinessName),
		BusinessType: optText(req.BusinessType),
		TaxID:        optText(req.TaxID),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "KYC is already approved")
			return
		}
		writeInternal(w, h.log, r, "submit kyc", err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}
