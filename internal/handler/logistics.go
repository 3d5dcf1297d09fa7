package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/bulkdrop/api/internal/orderflow"
	"github.com/bulkdrop/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// FulfillmentServicer is satisfied by *service.FulfillmentService.
type FulfillmentServicer interface {
	LogisticsTransition(ctx context.Context, actor *auth.Actor, orderID uuid.UUID, status string) (database.Order, error)
	AdminUpdate(ctx context.Context, actor *auth.Actor, orderID uuid.UUID, upd service.AdminOrderUpdate) (database.Order, error)
}

// LogisticsStore defines the database methods needed by logistics handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type LogisticsStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrdersByAssignee(ctx context.Context, arg database.ListOrdersByAssigneeParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// LogisticsHandler serves the delivery partner's view of assigned orders.
type LogisticsHandler struct {
	svc   FulfillmentServicer
	store LogisticsStore
	log   *logrus.Entry
}

// NewLogisticsHandler creates a new LogisticsHandler.
func NewLogisticsHandler(svc FulfillmentServicer, store LogisticsStore, log *logrus.Entry) *LogisticsHandler {
	return &LogisticsHandler{svc: svc, store: store, log: log}
}

// RegisterRoutes registers logistics endpoints on the given Chi router.
// Expected to be mounted at /api/logistics/orders.
func (h *LogisticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.UpdateStatus)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// writeFulfillmentError maps service and state machine errors to responses.
func writeFulfillmentError(w http.ResponseWriter, log *logrus.Entry, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrNotAssignee),
		errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrStatusConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, orderflow.ErrInvalidStatus),
		errors.Is(err, orderflow.ErrInvalidTransition),
		errors.Is(err, orderflow.ErrNoChange),
		errors.Is(err, service.ErrInvalidAssignee),
		errors.Is(err, service.ErrInvalidPaymentStatus),
		errors.Is(err, service.ErrNothingToUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeInternal(w, log, r, "update order", err)
	}
}

// parseStatusFilter reads the optional status query param.
func parseStatusFilter(r *http.Request) (database.NullOrderStatus, error) {
	s := r.URL.Query().Get("status")
	if s == "" {
		return database.NullOrderStatus{}, nil
	}
	st, err := orderflow.ParseStatus(s)
	if err != nil {
		return database.NullOrderStatus{}, err
	}
	return database.NullOrderStatus{OrderStatus: database.OrderStatus(st), Valid: true}, nil
}

// List returns orders assigned to the caller.
func (h *LogisticsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	status, err := parseStatusFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	orders, err := h.store.ListOrdersByAssignee(r.Context(), database.ListOrdersByAssigneeParams{
		AssignedTo: pgUUID(actor.ID),
		Status:     status,
	})
	if err != nil {
		writeInternal(w, h.log, r, "list assigned orders", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderList(orders))
}

// Get returns an assigned order with its items.
func (h *LogisticsHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	if !order.AssignedTo.Valid || uuid.UUID(order.AssignedTo.Bytes) != actor.ID {
		writeError(w, http.StatusForbidden, service.ErrNotAssignee.Error())
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		writeInternal(w, h.log, r, "list order items", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetail(order, items))
}

// UpdateStatus advances an assigned order along the delivery path.
func (h *LogisticsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	order, err := h.svc.LogisticsTransition(r.Context(), middleware.ActorFromContext(r.Context()), orderID, req.Status)
	if err != nil {
		writeFulfillmentError(w, h.log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}
