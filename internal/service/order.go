package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/enum"
	"github.com/bulkdrop/api/internal/orderflow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrKYCNotApproved        = errors.New("business verification must be approved before ordering")
	ErrNoRegion              = errors.New("profile has no region")
	ErrEmptyItems            = errors.New("items are required")
	ErrInvalidQuantity       = errors.New("quantity must be > 0")
	ErrInvalidProductID      = errors.New("invalid product_id")
	ErrProductUnavailable    = errors.New("product is not available in your region")
	ErrMissingDeliveryField  = errors.New("delivery address is incomplete")
	ErrSavedAddressNotFound  = errors.New("saved address not found")
	ErrInvalidPaymentMethod  = errors.New("invalid payment_method")
	ErrInvalidSavedAddressID = errors.New("invalid saved_address_id")
)

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	GetSavedAddress(ctx context.Context, arg database.GetSavedAddressParams) (database.SavedAddress, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// DeliveryAddress is the address snapshot written onto the order.
type DeliveryAddress struct {
	Name         string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Latitude     *float64
	Longitude    *float64
}

// CreateOrderRequest is the checkout input. Either SavedAddressID or
// Delivery supplies the address; the saved address wins when both are set.
type CreateOrderRequest struct {
	Customer       database.Profile
	Items          []CreateOrderItemRequest
	SavedAddressID string
	Delivery       DeliveryAddress
	Notes          string
	PaymentMethod  string
}

// CreateOrderItemRequest is a single cart line.
type CreateOrderItemRequest struct {
	ProductID string
	Quantity  int32
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles checkout.
type OrderService struct {
	pool      TxBeginner
	newStore  NewOrderStore
	publisher Publisher
	log       *logrus.Entry

	now    func() time.Time
	suffix orderflow.NumberSource
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, publisher Publisher, log *logrus.Entry) *OrderService {
	return &OrderService{
		pool:      pool,
		newStore:  newStore,
		publisher: publisher,
		log:       log,
		now:       time.Now,
		suffix:    orderflow.RandomSuffix,
	}
}

// CreateOrder validates the cart, prices it from the catalog, and writes the
// order with its items in one transaction. The order number is regenerated
// up to maxOrderNumberRetries times when it collides with an existing one.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if req.Customer.KycStatus != database.KycStatusApproved {
		return nil, ErrKYCNotApproved
	}
	if !req.Customer.RegionID.Valid {
		return nil, ErrNoRegion
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enum.PaymentMethodCOD
	}
	if !enum.IsPaymentMethod(paymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	var savedID uuid.UUID
	if req.SavedAddressID != "" {
		id, err := uuid.Parse(req.SavedAddressID)
		if err != nil {
			return nil, ErrInvalidSavedAddressID
		}
		savedID = id
	} else if err := validateDelivery(req.Delivery); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req, savedID, paymentMethod)
		if err == nil {
			s.publisher.Publish(uuid.UUID(req.Customer.RegionID.Bytes), enum.EventOrderCreated, NewOrderEvent(result.Order))
			return result, nil
		}
		if isOrderNumberConflict(err) {
			s.log.WithField("attempt", attempt+1).Warn("order number collision, regenerating")
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks for a unique violation on the order number.
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func validateDelivery(d DeliveryAddress) error {
	required := []struct{ name, value string }{
		{"name", d.Name},
		{"phone", d.Phone},
		{"address_line1", d.AddressLine1},
		{"city", d.City},
		{"state", d.State},
		{"postal_code", d.PostalCode},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrMissingDeliveryField, f.name)
		}
	}
	return nil
}

func deliveryFromSaved(a database.SavedAddress) DeliveryAddress {
	d := DeliveryAddress{
		Name:         a.FullName,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2.String,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
	}
	if a.Latitude.Valid {
		d.Latitude = &a.Latitude.Float64
	}
	if a.Longitude.Valid {
		d.Longitude = &a.Longitude.Float64
	}
	return d
}

// LineTotal prices a cart line: price is per price_per_quantity units.
func LineTotal(price, perQuantity decimal.Decimal, quantity int32) decimal.Decimal {
	if perQuantity.IsZero() {
		perQuantity = decimal.NewFromInt(1)
	}
	return price.Mul(decimal.NewFromInt32(quantity)).Div(perQuantity).Round(2)
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, savedID uuid.UUID, paymentMethod string) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	regionID := uuid.UUID(req.Customer.RegionID.Bytes)

	delivery := req.Delivery
	if savedID != uuid.Nil {
		addr, err := store.GetSavedAddress(ctx, database.GetSavedAddressParams{ID: savedID, UserID: req.Customer.ID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSavedAddressNotFound
			}
			return nil, fmt.Errorf("get saved address: %w", err)
		}
		delivery = deliveryFromSaved(addr)
		if err := validateDelivery(delivery); err != nil {
			return nil, err
		}
	}

	subtotal := decimal.Zero
	items := make([]database.CreateOrderItemParams, 0, len(req.Items))
	for i, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidProductID)
		}

		product, err := store.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrProductUnavailable)
			}
			return nil, fmt.Errorf("item[%d]: get product: %w", i, err)
		}
		if !product.IsActive || product.RegionID != regionID {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrProductUnavailable)
		}

		price := NumericToDecimal(product.Price)
		perQuantity := NumericToDecimal(product.PricePerQuantity)
		total := LineTotal(price, perQuantity, item.Quantity)
		subtotal = subtotal.Add(total)

		items = append(items, database.CreateOrderItemParams{
			ProductID:        pgUUID(product.ID),
			ProductName:      product.Name,
			ProductSku:       product.Sku,
			Quantity:         item.Quantity,
			Price:            DecimalToNumeric(price),
			PricePerQuantity: DecimalToNumeric(perQuantity),
			Total:            DecimalToNumeric(total),
		})
	}

	params := database.CreateOrderParams{
		OrderNumber:          orderflow.OrderNumber(s.now(), s.suffix),
		UserID:               req.Customer.ID,
		RegionID:             regionID,
		PaymentMethod:        pgText(paymentMethod),
		Subtotal:             DecimalToNumeric(subtotal),
		TotalAmount:          DecimalToNumeric(subtotal),
		DeliveryName:         strings.TrimSpace(delivery.Name),
		DeliveryPhone:        strings.TrimSpace(delivery.Phone),
		DeliveryAddressLine1: strings.TrimSpace(delivery.AddressLine1),
		DeliveryAddressLine2: pgText(strings.TrimSpace(delivery.AddressLine2)),
		DeliveryCity:         strings.TrimSpace(delivery.City),
		DeliveryState:        strings.TrimSpace(delivery.State),
		DeliveryPostalCode:   strings.TrimSpace(delivery.PostalCode),
		Notes:                pgText(req.Notes),
	}
	if delivery.Latitude != nil {
		params.DeliveryLatitude = pgtype.Float8{Float64: *delivery.Latitude, Valid: true}
	}
	if delivery.Longitude != nil {
		params.DeliveryLongitude = pgtype.Float8{Float64: *delivery.Longitude, Valid: true}
	}

	order, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created := make([]database.OrderItem, 0, len(items))
	for _, p := range items {
		p.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: created}, nil
}
