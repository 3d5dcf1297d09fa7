package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/enum"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/bulkdrop/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
)

// OrderServicer defines the service methods needed by customer order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// InvoiceBuilder is satisfied by *service.InvoiceService.
type InvoiceBuilder interface {
	Build(ctx context.Context, actor *auth.Actor, orderID uuid.UUID) (*service.Invoice, error)
}

// OrderStore defines the database methods needed by customer order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrdersByUser(ctx context.Context, arg database.ListOrdersByUserParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	CancelPendingOrder(ctx context.Context, arg database.CancelPendingOrderParams) (database.Order, error)
}

// OrderHandler handles the customer-facing order endpoints.
type OrderHandler struct {
	svc       OrderServicer
	invoices  InvoiceBuilder
	store     OrderStore
	publisher service.Publisher
	log       *logrus.Entry
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, invoices InvoiceBuilder, store OrderStore, publisher service.Publisher, log *logrus.Entry) *OrderHandler {
	return &OrderHandler{svc: svc, invoices: invoices, store: store, publisher: publisher, log: log}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /api/orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
	r.Get("/{id}/invoice", h.Invoice)
}

// --- Request / Response types ---

type deliveryRequest struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	AddressLine1 string   `json:"address_line1"`
	AddressLine2 string   `json:"address_line2"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postal_code"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

type createOrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type createOrderRequest struct {
	Items          []createOrderItemRequest `json:"items"`
	SavedAddressID string                   `json:"saved_address_id"`
	Delivery       deliveryRequest          `json:"delivery"`
	Notes          string                   `json:"notes"`
	PaymentMethod  string                   `json:"payment_method"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type deliveryResponse struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	AddressLine1 string   `json:"address_line1"`
	AddressLine2 *string  `json:"address_line2"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postal_code"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

type orderItemResponse struct {
	ID               uuid.UUID  `json:"id"`
	ProductID        *uuid.UUID `json:"product_id"`
	ProductName      string     `json:"product_name"`
	ProductSKU       *string    `json:"product_sku"`
	Quantity         int32      `json:"quantity"`
	Price            string     `json:"price"`
	PricePerQuantity string     `json:"price_per_quantity"`
	Total            string     `json:"total"`
}

type orderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	UserID             uuid.UUID           `json:"user_id"`
	RegionID           uuid.UUID           `json:"region_id"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"payment_status"`
	PaymentMethod      *string             `json:"payment_method"`
	Subtotal           string              `json:"subtotal"`
	TotalAmount        string              `json:"total_amount"`
	Delivery           deliveryResponse    `json:"delivery"`
	Notes              *string             `json:"notes"`
	AssignedTo         *uuid.UUID          `json:"assigned_to"`
	AssignedAt         *time.Time          `json:"assigned_at"`
	DeliveredAt        *time.Time          `json:"delivered_at"`
	CancelledAt        *time.Time          `json:"cancelled_at"`
	CancellationReason *string             `json:"cancellation_reason"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Items              []orderItemResponse `json:"items,omitempty"`
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		RegionID:      o.RegionID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: textPtr(o.PaymentMethod),
		Subtotal:      money(o.Subtotal),
		TotalAmount:   money(o.TotalAmount),
		Delivery: deliveryResponse{
			Name:         o.DeliveryName,
			Phone:        o.DeliveryPhone,
			AddressLine1: o.DeliveryAddressLine1,
			AddressLine2: textPtr(o.DeliveryAddressLine2),
			City:         o.DeliveryCity,
			State:        o.DeliveryState,
			PostalCode:   o.DeliveryPostalCode,
			Latitude:     floatPtr(o.DeliveryLatitude),
			Longitude:    floatPtr(o.DeliveryLongitude),
		},
		Notes:              textPtr(o.Notes),
		AssignedTo:         uuidPtr(o.AssignedTo),
		AssignedAt:         timePtr(o.AssignedAt),
		DeliveredAt:        timePtr(o.DeliveredAt),
		CancelledAt:        timePtr(o.CancelledAt),
		CancellationReason: textPtr(o.CancellationReason),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toOrderItemResponse(item database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:               item.ID,
		ProductID:        uuidPtr(item.ProductID),
		ProductName:      item.ProductName,
		ProductSKU:       textPtr(item.ProductSku),
		Quantity:         item.Quantity,
		Price:            money(item.Price),
		PricePerQuantity: money(item.PricePerQuantity),
		Total:            money(item.Total),
	}
}

func toOrderDetail(o database.Order, items []database.OrderItem) orderResponse {
	resp := toOrderResponse(o)
	resp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		resp.Items[i] = toOrderItemResponse(item)
	}
	return resp
}

func toOrderList(orders []database.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}

// isCheckoutValidationError reports whether err is a client-side checkout
// error whose message is safe to return.
func isCheckoutValidationError(err error) bool {
	for _, target := range []error{
		service.ErrNoRegion,
		service.ErrEmptyItems,
		service.ErrInvalidQuantity,
		service.ErrInvalidProductID,
		service.ErrProductUnavailable,
		service.ErrMissingDeliveryField,
		service.ErrSavedAddressNotFound,
		service.ErrInvalidPaymentMethod,
		service.ErrInvalidSavedAddressID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// --- Handlers ---

// Create places an order for the authenticated customer.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.CreateOrderItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		Customer:       actor.Profile,
		Items:          items,
		SavedAddressID: strings.TrimSpace(req.SavedAddressID),
		Delivery: service.DeliveryAddress{
			Name:         req.Delivery.Name,
			Phone:        req.Delivery.Phone,
			AddressLine1: req.Delivery.AddressLine1,
			AddressLine2: req.Delivery.AddressLine2,
			City:         req.Delivery.City,
			State:        req.Delivery.State,
			PostalCode:   req.Delivery.PostalCode,
			Latitude:     req.Delivery.Latitude,
			Longitude:    req.Delivery.Longitude,
		},
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrKYCNotApproved):
			writeError(w, http.StatusForbidden, err.Error())
		case isCheckoutValidationError(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeInternal(w, h.log, r, "create order", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toOrderDetail(result.Order, result.Items))
}

// List returns the caller's own orders, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.store.ListOrdersByUser(r.Context(), database.ListOrdersByUserParams{
		UserID: actor.ID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeInternal(w, h.log, r, "list orders", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderList(orders))
}

// Get returns one order with its items if the caller may see it.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	if !service.CanView(middleware.ActorFromContext(r.Context()), order) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		writeInternal(w, h.log, r, "list order items", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetail(order, items))
}

// Cancel lets the owner cancel an order that is still pending.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	orderID, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	// The body is optional.
	var req cancelOrderRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.store.CancelPendingOrder(r.Context(), database.CancelPendingOrderParams{
		ID:                 orderID,
		UserID:             actor.ID,
		CancellationReason: optText(req.Reason),
	})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			writeInternal(w, h.log, r, "cancel order", err)
			return
		}
		existing, getErr := h.store.GetOrder(r.Context(), orderID)
		if getErr != nil || existing.UserID != actor.ID {
			if getErr != nil && !errors.Is(getErr, pgx.ErrNoRows) {
				writeInternal(w, h.log, r, "get order", getErr)
				return
			}
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusConflict, "only pending orders can be cancelled")
		return
	}

	h.publisher.Publish(order.RegionID, enum.EventOrderStatusChanged, service.NewOrderEvent(order))
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Invoice returns the printable invoice for an order.
func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	orderID, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	inv, err := h.invoices.Build(r.Context(), middleware.ActorFromContext(r.Context()), orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrForbidden):
			writeError(w, http.StatusForbidden, "you do not have access to this invoice")
		default:
			writeInternal(w, h.log, r, "build invoice", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, inv)
}

func optUUID(s string) (pgtype.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}
