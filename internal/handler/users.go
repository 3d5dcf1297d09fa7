package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/enum"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/bulkdrop/api/internal/notify"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
)

// UserStore defines the database methods needed by admin user handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (database.Profile, error)
	ListProfiles(ctx context.Context, arg database.ListProfilesParams) ([]database.Profile, error)
	ReviewKyc(ctx context.Context, arg database.ReviewKycParams) (database.Profile, error)
	UpdateProfileRole(ctx context.Context, arg database.UpdateProfileRoleParams) (database.Profile, error)
}

// UserHandler handles admin endpoints over customer, partner and admin profiles.
type UserHandler struct {
	store    UserStore
	notifier notify.Notifier
	log      *logrus.Entry
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore, notifier notify.Notifier, log *logrus.Entry) *UserHandler {
	return &UserHandler{store: store, notifier: notifier, log: log}
}

// RegisterRoutes registers admin user endpoints on the given Chi router.
// Expected to be mounted at /api/admin/users.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/kyc", h.ReviewKYC)
	r.Patch("/{id}/role", h.UpdateRole)
}

// --- Request / Response types ---

type kycReviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

type updateRoleRequest struct {
	Role      string  `json:"role"`
	AdminRole string  `json:"admin_role"`
	RegionID  *string `json:"region_id"`
}

type profileResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	Phone              *string    `json:"phone"`
	BusinessName       *string    `json:"business_name"`
	BusinessType       *string    `json:"business_type"`
	TaxID              *string    `json:"tax_id"`
	Role               string     `json:"role"`
	AdminRole          *string    `json:"admin_role"`
	RegionID           *uuid.UUID `json:"region_id"`
	KYCStatus          string     `json:"kyc_status"`
	KYCRejectionReason *string    `json:"kyc_rejection_reason"`
	KYCSubmittedAt     *time.Time `json:"kyc_submitted_at"`
	KYCReviewedAt      *time.Time `json:"kyc_reviewed_at"`
	KYCReviewedBy      *uuid.UUID `json:"kyc_reviewed_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func toProfileResponse(p database.Profile) profileResponse {
	resp := profileResponse{
		ID:                 p.ID,
		Email:              p.Email,
		FullName:           p.FullName,
		Phone:              textPtr(p.Phone),
		BusinessName:       textPtr(p.BusinessName),
		BusinessType:       textPtr(p.BusinessType),
		TaxID:              textPtr(p.TaxID),
		Role:               string(p.Role),
		RegionID:           uuidPtr(p.RegionID),
		KYCStatus:          string(p.KycStatus),
		KYCRejectionReason: textPtr(p.KycRejectionReason),
		KYCSubmittedAt:     timePtr(p.KycSubmittedAt),
		KYCReviewedAt:      timePtr(p.KycReviewedAt),
		KYCReviewedBy:      uuidPtr(p.KycReviewedBy),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.AdminRole.Valid {
		ar := string(p.AdminRole.AdminRole)
		resp.AdminRole = &ar
	}
	return resp
}

// --- Helpers ---

func isValidRole(role string) bool {
	switch database.UserRole(role) {
	case database.UserRoleUser, database.UserRoleAdmin, database.UserRoleLogistics:
		return true
	}
	return false
}

func isValidAdminRole(role string) bool {
	switch database.AdminRole(role) {
	case database.AdminRoleSuperAdmin, database.AdminRoleRegionalAdmin:
		return true
	}
	return false
}

func isValidKYCStatus(s string) bool {
	switch database.KycStatus(s) {
	case database.KycStatusPending, database.KycStatusApproved, database.KycStatusRejected:
		return true
	}
	return false
}

// loadScopedProfile fetches a profile and checks the caller's region scope.
// It writes the error response and returns false on failure.
func (h *UserHandler) loadScopedProfile(w http.ResponseWriter, r *http.Request) (database.Profile, bool) {
	actor := middleware.ActorFromContext(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return database.Profile{}, false
	}

	profile, err := h.store.GetProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return database.Profile{}, false
		}
		writeInternal(w, h.log, r, "get profile", err)
		return database.Profile{}, false
	}

	if !actor.IsSuperAdmin() && (!profile.RegionID.Valid || !actor.CanAccessRegion(uuid.UUID(profile.RegionID.Bytes))) {
		writeError(w, http.StatusForbidden, "user is outside your region")
		return database.Profile{}, false
	}
	return profile, true
}

// --- Handlers ---

// List returns profiles in the caller's scope, filtered by role and kyc_status.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	scope, err := adminScope(actor, r)
	if err != nil {
		writeScopeError(w, err)
		return
	}

	params := database.ListProfilesParams{RegionID: scope}
	if role := r.URL.Query().Get("role"); role != "" {
		if !isValidRole(role) {
			writeError(w, http.StatusBadRequest, "invalid role filter")
			return
		}
		params.Role = database.NullUserRole{UserRole: database.UserRole(role), Valid: true}
	}
	if ks := r.URL.Query().Get("kyc_status"); ks != "" {
		if !isValidKYCStatus(ks) {
			writeError(w, http.StatusBadRequest, "invalid kyc_status filter")
			return
		}
		params.KycStatus = database.NullKycStatus{KycStatus: database.KycStatus(ks), Valid: true}
	}

	params.Limit, params.Offset, err = pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profiles, err := h.store.ListProfiles(r.Context(), params)
	if err != nil {
		writeInternal(w, h.log, r, "list profiles", err)
		return
	}

	resp := make([]profileResponse, len(profiles))
	for i, p := range profiles {
		resp[i] = toProfileResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns one profile in scope.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadScopedProfile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// ReviewKYC approves or rejects a pending business verification and emails
// the customer the outcome.
func (h *UserHandler) ReviewKYC(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req kycReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := database.ReviewKycParams{KycReviewedBy: pgUUID(actor.ID)}
	switch req.Decision {
	case enum.KYCDecisionApprove:
		params.KycStatus = database.KycStatusApproved
	case enum.KYCDecisionReject:
		if strings.TrimSpace(req.Reason) == "" {
			writeError(w, http.StatusBadRequest, "reason is required when rejecting")
			return
		}
		params.KycStatus = database.KycStatusRejected
		params.KycRejectionReason = pgtype.Text{String: req.Reason, Valid: true}
	default:
		writeError(w, http.StatusBadRequest, "decision must be approve or reject")
		return
	}

	profile, ok := h.loadScopedProfile(w, r)
	if !ok {
		return
	}
	params.ID = profile.ID

	updated, err := h.store.ReviewKyc(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusConflict, "KYC is not pending review")
			return
		}
		writeInternal(w, h.log, r, "review kyc", err)
		return
	}

	err = h.notifier.KYCDecision(r.Context(), notify.KYCDecision{
		To:       updated.Email,
		Name:     updated.FullName,
		Approved: updated.KycStatus == database.KycStatusApproved,
		Reason:   updated.KycRejectionReason.String,
	})
	if err != nil {
		h.log.WithError(err).WithField("user_id", updated.ID).Error("notify kyc decision")
	}

	writeJSON(w, http.StatusOK, toProfileResponse(updated))
}

// UpdateRole changes a profile's role. Regional admins may only move
// in-region profiles between user and logistics; granting admin or moving a
// profile to another region needs a super admin.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !isValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "role must be user, admin or logistics")
		return
	}

	profile, ok := h.loadScopedProfile(w, r)
	if !ok {
		return
	}
	if profile.ID == actor.ID {
		writeError(w, http.StatusBadRequest, "cannot change your own role")
		return
	}

	params := database.UpdateProfileRoleParams{
		ID:       profile.ID,
		Role:     database.UserRole(req.Role),
		RegionID: profile.RegionID,
	}

	if req.RegionID != nil {
		region, err := optUUID(*req.RegionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid region_id")
			return
		}
		params.RegionID = region
	}

	if !actor.IsSuperAdmin() {
		if profile.Role == database.UserRoleAdmin || params.Role == database.UserRoleAdmin {
			writeError(w, http.StatusForbidden, "only a super admin can manage admins")
			return
		}
		if params.RegionID != profile.RegionID {
			writeError(w, http.StatusForbidden, "only a super admin can move users between regions")
			return
		}
	}

	if params.Role == database.UserRoleAdmin {
		if !isValidAdminRole(req.AdminRole) {
			writeError(w, http.StatusBadRequest, "admin_role must be super_admin or regional_admin")
			return
		}
		params.AdminRole = database.NullAdminRole{AdminRole: database.AdminRole(req.AdminRole), Valid: true}
		if params.AdminRole.AdminRole == database.AdminRoleRegionalAdmin && !params.RegionID.Valid {
			writeError(w, http.StatusBadRequest, "regional admins need a region_id")
			return
		}
	}

	updated, err := h.store.UpdateProfileRole(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "invalid region_id")
			return
		}
		writeInternal(w, h.log, r, "update role", err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(updated))
}
