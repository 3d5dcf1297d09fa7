package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/bulkdrop/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
)

var errNoAdminRegion = errors.New("admin account has no region")

// AdminOrderStore defines the database methods needed by admin order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AdminOrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListLogisticsPartners(ctx context.Context, regionID pgtype.UUID) ([]database.Profile, error)
}

// AdminOrderHandler handles order management for admins.
type AdminOrderHandler struct {
	svc   FulfillmentServicer
	store AdminOrderStore
	log   *logrus.Entry
}

// NewAdminOrderHandler creates a new AdminOrderHandler.
func NewAdminOrderHandler(svc FulfillmentServicer, store AdminOrderStore, log *logrus.Entry) *AdminOrderHandler {
	return &AdminOrderHandler{svc: svc, store: store, log: log}
}

// RegisterRoutes registers admin order endpoints on the given Chi router.
// Expected to be mounted at /api/admin/orders.
func (h *AdminOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
}

// adminScope resolves the region filter for admin list endpoints. Super
// admins see every region unless region_id narrows it.
func adminScope(actor *auth.Actor, r *http.Request) (pgtype.UUID, error) {
	if actor.IsSuperAdmin() {
		return optUUID(r.URL.Query().Get("region_id"))
	}
	if !actor.HasRegion() {
		return pgtype.UUID{}, errNoAdminRegion
	}
	return actor.RegionScope(), nil
}

func writeScopeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoAdminRegion) {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid region_id")
}

// adminOrderPatch keeps assigned_to raw so an explicit null (unassign) can be
// told apart from an absent field.
type adminOrderPatch struct {
	Status        *string         `json:"status"`
	PaymentStatus *string         `json:"payment_status"`
	AssignedTo    json.RawMessage `json:"assigned_to"`
}

type logisticsPartnerResponse struct {
	ID       uuid.UUID  `json:"id"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Phone    *string    `json:"phone"`
	RegionID *uuid.UUID `json:"region_id"`
}

// toAdminOrderUpdate converts the patch body into the service input.
func (p adminOrderPatch) toAdminOrderUpdate() (service.AdminOrderUpdate, error) {
	upd := service.AdminOrderUpdate{
		Status:        p.Status,
		PaymentStatus: p.PaymentStatus,
	}
	if p.AssignedTo == nil {
		return upd, nil
	}
	if bytes.Equal(bytes.TrimSpace(p.AssignedTo), []byte("null")) {
		upd.Assignment = &service.AssignmentChange{}
		return upd, nil
	}
	var s string
	if err := json.Unmarshal(p.AssignedTo, &s); err != nil {
		return upd, errors.New("invalid assigned_to")
	}
	if s == "" {
		upd.Assignment = &service.AssignmentChange{}
		return upd, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return upd, errors.New("invalid assigned_to")
	}
	upd.Assignment = &service.AssignmentChange{PartnerID: &id}
	return upd, nil
}

// List returns orders in the caller's scope. Filters: status, assigned
// (true/false or a partner id), limit, offset and, for super admins, region_id.
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	scope, err := adminScope(actor, r)
	if err != nil {
		writeScopeError(w, err)
		return
	}

	status, err := parseStatusFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := database.ListOrdersParams{
		RegionID: scope,
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	}
	switch a := r.URL.Query().Get("assigned"); a {
	case "":
	case "true", "false":
		params.Assigned = pgtype.Bool{Bool: a == "true", Valid: true}
	default:
		id, err := uuid.Parse(a)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid assigned filter")
			return
		}
		params.AssignedTo = pgUUID(id)
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		writeInternal(w, h.log, r, "list orders", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderList(orders))
}

// Get returns one order in scope with its items.
func (h *AdminOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	orderID, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternal(w, h.log, r, "get order", err)
		return
	}
	if !actor.CanAccessRegion(order.RegionID) {
		writeError(w, http.StatusForbidden, "order is outside your region")
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		writeInternal(w, h.log, r, "list order items", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetail(order, items))
}

// Update applies an admin patch of status, assignment and payment status.
func (h *AdminOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req adminOrderPatch
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd, err := req.toAdminOrderUpdate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.svc.AdminUpdate(r.Context(), middleware.ActorFromContext(r.Context()), orderID, upd)
	if err != nil {
		writeFulfillmentError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListPartners returns logistics partners that orders in scope can be
// assigned to.
func (h *AdminOrderHandler) ListPartners(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	scope, err := adminScope(actor, r)
	if err != nil {
		writeScopeError(w, err)
		return
	}

	partners, err := h.store.ListLogisticsPartners(r.Context(), scope)
	if err != nil {
		writeInternal(w, h.log, r, "list logistics partners", err)
		return
	}

	resp := make([]logisticsPartnerResponse, len(partners))
	for i, p := range partners {
		resp[i] = logisticsPartnerResponse{
			ID:       p.ID,
			FullName: p.FullName,
			Email:    p.Email,
			Phone:    textPtr(p.Phone),
			RegionID: uuidPtr(p.RegionID),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
