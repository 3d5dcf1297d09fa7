package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bulkdrop/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	products      map[uuid.UUID]database.Product
	address       *database.SavedAddress
	createOrderFn func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)

	orders []database.CreateOrderParams
	items  []database.CreateOrderItemParams
}

func (m *mockOrderStore) GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return database.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockOrderStore) GetSavedAddress(ctx context.Context, arg database.GetSavedAddressParams) (database.SavedAddress, error) {
	if m.address == nil || m.address.ID != arg.ID || m.address.UserID != arg.UserID {
		return database.SavedAddress{}, pgx.ErrNoRows
	}
	return *m.address, nil
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	m.orders = append(m.orders, arg)
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, arg)
	}
	return database.Order{
		ID:                   uuid.New(),
		OrderNumber:          arg.OrderNumber,
		UserID:               arg.UserID,
		RegionID:             arg.RegionID,
		Status:               database.OrderStatusPending,
		PaymentStatus:        database.PaymentStatusPending,
		Subtotal:             arg.Subtotal,
		TotalAmount:          arg.TotalAmount,
		DeliveryName:         arg.DeliveryName,
		DeliveryAddressLine1: arg.DeliveryAddressLine1,
	}, nil
}

func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	m.items = append(m.items, arg)
	return database.OrderItem{
		ID:               uuid.New(),
		OrderID:          arg.OrderID,
		ProductID:        arg.ProductID,
		ProductName:      arg.ProductName,
		Quantity:         arg.Quantity,
		Price:            arg.Price,
		PricePerQuantity: arg.PricePerQuantity,
		Total:            arg.Total,
	}, nil
}

// --- Fixtures ---

type orderFixture struct {
	regionID uuid.UUID
	customer database.Profile
	productA database.Product
	store    *mockOrderStore
	pool     *mockTxBeginner
	pub      *recordingPublisher
	svc      *OrderService
}

func newOrderFixture() *orderFixture {
	regionID := uuid.New()
	productA := database.Product{
		ID:               uuid.New(),
		RegionID:         regionID,
		Name:             "Rice 25kg",
		Sku:              pgtype.Text{String: "RICE-25", Valid: true},
		Price:            testNumeric("50.00"),
		PricePerQuantity: testNumeric("1"),
		IsActive:         true,
	}
	store := &mockOrderStore{products: map[uuid.UUID]database.Product{productA.ID: productA}}
	pool := &mockTxBeginner{}
	pub := &recordingPublisher{}

	svc := NewOrderService(pool, func(db database.DBTX) OrderStore { return store }, pub, quietLog())
	svc.now = func() time.Time { return time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC) }
	svc.suffix = func() int { return 7 }

	return &orderFixture{
		regionID: regionID,
		customer: database.Profile{
			ID:        uuid.New(),
			Email:     "buyer@example.com",
			Role:      database.UserRoleUser,
			RegionID:  pgtype.UUID{Bytes: regionID, Valid: true},
			KycStatus: database.KycStatusApproved,
		},
		productA: productA,
		store:    store,
		pool:     pool,
		pub:      pub,
		svc:      svc,
	}
}

func (f *orderFixture) request(items ...CreateOrderItemRequest) CreateOrderRequest {
	return CreateOrderRequest{
		Customer: f.customer,
		Items:    items,
		Delivery: DeliveryAddress{
			Name:         "Warehouse 3",
			Phone:        "+15550100",
			AddressLine1: "1 Dock Rd",
			City:         "Springfield",
			State:        "IL",
			PostalCode:   "62701",
		},
	}
}

// --- Tests ---

func TestCreateOrder_SingleItemScenario(t *testing.T) {
	f := newOrderFixture()

	result, err := f.svc.CreateOrder(context.Background(), f.request(CreateOrderItemRequest{
		ProductID: f.productA.ID.String(),
		Quantity:  2,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(result.Items))
	}
	if got := NumericToDecimal(result.Items[0].Total); !got.Equal(mustDecimal("100")) {
		t.Errorf("item total: got %s, want 100", got)
	}
	if got := NumericToDecimal(result.Order.TotalAmount); !got.Equal(mustDecimal("100")) {
		t.Errorf("total_amount: got %s, want 100", got)
	}
	if result.Order.OrderNumber != "ORD2601150007" {
		t.Errorf("order_number: got %s, want ORD2601150007", result.Order.OrderNumber)
	}
	if !regexp.MustCompile(`^ORD\d{6}\d{4}$`).MatchString(result.Order.OrderNumber) {
		t.Errorf("order_number format: %s", result.Order.OrderNumber)
	}
	if f.store.items[0].ProductName != "Rice 25kg" || f.store.items[0].ProductSku.String != "RICE-25" {
		t.Errorf("item snapshot: got %q/%q", f.store.items[0].ProductName, f.store.items[0].ProductSku.String)
	}
	if f.store.orders[0].PaymentMethod.String != "cod" {
		t.Errorf("payment_method default: got %q, want cod", f.store.orders[0].PaymentMethod.String)
	}
	if got := f.pub.types(); len(got) != 1 || got[0] != "order.created" {
		t.Errorf("events: got %v, want [order.created]", got)
	}
	if f.pub.events[0].regionID != f.regionID {
		t.Errorf("event region: got %v, want %v", f.pub.events[0].regionID, f.regionID)
	}
}

func TestCreateOrder_BulkPricingAndSubtotal(t *testing.T) {
	f := newOrderFixture()
	bulk := database.Product{
		ID:               uuid.New(),
		RegionID:         f.regionID,
		Name:             "Eggs",
		Price:            testNumeric("12.00"),
		PricePerQuantity: testNumeric("30"),
		IsActive:         true,
	}
	f.store.products[bulk.ID] = bulk

	result, err := f.svc.CreateOrder(context.Background(), f.request(
		CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1},
		CreateOrderItemRequest{ProductID: bulk.ID.String(), Quantity: 45},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 12.00 per 30 eggs, 45 eggs -> 18.00
	if got := NumericToDecimal(result.Items[1].Total); !got.Equal(mustDecimal("18")) {
		t.Errorf("bulk item total: got %s, want 18", got)
	}
	if got := NumericToDecimal(result.Order.Subtotal); !got.Equal(mustDecimal("68")) {
		t.Errorf("subtotal: got %s, want 68", got)
	}
	if !NumericToDecimal(result.Order.Subtotal).Equal(NumericToDecimal(result.Order.TotalAmount)) {
		t.Error("total_amount must equal subtotal")
	}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		price, ppq string
		qty        int32
		want       string
	}{
		{"50", "1", 2, "100"},
		{"10", "3", 3, "10"},
		{"10", "3", 1, "3.33"},
		{"0", "1", 5, "0"},
	}
	for _, tt := range tests {
		got := LineTotal(mustDecimal(tt.price), mustDecimal(tt.ppq), tt.qty)
		if !got.Equal(mustDecimal(tt.want)) {
			t.Errorf("LineTotal(%s/%s x %d): got %s, want %s", tt.price, tt.ppq, tt.qty, got, tt.want)
		}
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *orderFixture, req *CreateOrderRequest)
		want   error
	}{
		{"kyc pending", func(f *orderFixture, req *CreateOrderRequest) {
			req.Customer.KycStatus = database.KycStatusPending
		}, ErrKYCNotApproved},
		{"kyc rejected", func(f *orderFixture, req *CreateOrderRequest) {
			req.Customer.KycStatus = database.KycStatusRejected
		}, ErrKYCNotApproved},
		{"no region", func(f *orderFixture, req *CreateOrderRequest) {
			req.Customer.RegionID = pgtype.UUID{}
		}, ErrNoRegion},
		{"empty cart", func(f *orderFixture, req *CreateOrderRequest) {
			req.Items = nil
		}, ErrEmptyItems},
		{"zero quantity", func(f *orderFixture, req *CreateOrderRequest) {
			req.Items[0].Quantity = 0
		}, ErrInvalidQuantity},
		{"missing city", func(f *orderFixture, req *CreateOrderRequest) {
			req.Delivery.City = "  "
		}, ErrMissingDeliveryField},
		{"missing phone", func(f *orderFixture, req *CreateOrderRequest) {
			req.Delivery.Phone = ""
		}, ErrMissingDeliveryField},
		{"bad product id", func(f *orderFixture, req *CreateOrderRequest) {
			req.Items[0].ProductID = "nope"
		}, ErrInvalidProductID},
		{"unknown product", func(f *orderFixture, req *CreateOrderRequest) {
			req.Items[0].ProductID = uuid.NewString()
		}, ErrProductUnavailable},
		{"inactive product", func(f *orderFixture, req *CreateOrderRequest) {
			p := f.productA
			p.IsActive = false
			f.store.products[p.ID] = p
		}, ErrProductUnavailable},
		{"product from another region", func(f *orderFixture, req *CreateOrderRequest) {
			p := f.productA
			p.RegionID = uuid.New()
			f.store.products[p.ID] = p
		}, ErrProductUnavailable},
		{"bad payment method", func(f *orderFixture, req *CreateOrderRequest) {
			req.PaymentMethod = "barter"
		}, ErrInvalidPaymentMethod},
		{"unknown saved address", func(f *orderFixture, req *CreateOrderRequest) {
			req.SavedAddressID = uuid.NewString()
		}, ErrSavedAddressNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			req := f.request(CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1})
			tt.mutate(f, &req)

			_, err := f.svc.CreateOrder(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(f.store.orders) != 0 {
				t.Error("no order should be written")
			}
			if len(f.pub.events) != 0 {
				t.Error("no event should be published")
			}
		})
	}
}

func TestCreateOrder_MissingFieldNamed(t *testing.T) {
	f := newOrderFixture()
	req := f.request(CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1})
	req.Delivery.PostalCode = ""

	_, err := f.svc.CreateOrder(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "postal_code") {
		t.Fatalf("error should name the field, got %v", err)
	}
}

func TestCreateOrder_SavedAddressCopied(t *testing.T) {
	f := newOrderFixture()
	lat := 39.78
	addr := database.SavedAddress{
		ID:           uuid.New(),
		UserID:       f.customer.ID,
		FullName:     "Dock Manager",
		Phone:        "+15550199",
		AddressLine1: "9 Pier St",
		AddressLine2: pgtype.Text{String: "Gate B", Valid: true},
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62702",
		Latitude:     pgtype.Float8{Float64: lat, Valid: true},
	}
	f.store.address = &addr

	req := f.request(CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1})
	req.SavedAddressID = addr.ID.String()
	req.Delivery = DeliveryAddress{}

	if _, err := f.svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := f.store.orders[0]
	if got.DeliveryName != "Dock Manager" || got.DeliveryAddressLine1 != "9 Pier St" || got.DeliveryAddressLine2.String != "Gate B" {
		t.Errorf("delivery snapshot not copied: %+v", got)
	}
	if !got.DeliveryLatitude.Valid || got.DeliveryLatitude.Float64 != lat {
		t.Errorf("latitude: got %+v", got.DeliveryLatitude)
	}
}

func TestCreateOrder_RetriesOrderNumberConflict(t *testing.T) {
	f := newOrderFixture()
	conflict := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}

	calls := 0
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		calls++
		if calls < 3 {
			return database.Order{}, conflict
		}
		return database.Order{ID: uuid.New(), OrderNumber: arg.OrderNumber, RegionID: arg.RegionID}, nil
	}

	if _, err := f.svc.CreateOrder(context.Background(), f.request(CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.pool.calls != 3 {
		t.Errorf("transactions: got %d, want 3", f.pool.calls)
	}
}

func TestCreateOrder_RetriesExhausted(t *testing.T) {
	f := newOrderFixture()
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	}

	_, err := f.svc.CreateOrder(context.Background(), f.request(CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1}))
	if !isOrderNumberConflict(err) {
		t.Fatalf("got %v, want order number conflict", err)
	}
	if f.pool.calls != maxOrderNumberRetries {
		t.Errorf("transactions: got %d, want %d", f.pool.calls, maxOrderNumberRetries)
	}
}

func TestCreateOrder_OtherUniqueViolationNotRetried(t *testing.T) {
	f := newOrderFixture()
	f.store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "something_else"}
	}

	if _, err := f.svc.CreateOrder(context.Background(), f.request(CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1})); err == nil {
		t.Fatal("expected error")
	}
	if f.pool.calls != 1 {
		t.Errorf("transactions: got %d, want 1", f.pool.calls)
	}
}

func TestCreateOrder_CommitFailure(t *testing.T) {
	f := newOrderFixture()
	f.pool.tx = &mockTx{commitErr: errors.New("connection reset")}

	_, err := f.svc.CreateOrder(context.Background(), f.request(CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1}))
	if err == nil || !strings.Contains(err.Error(), "commit tx") {
		t.Fatalf("got %v, want commit error", err)
	}
	if len(f.pub.events) != 0 {
		t.Error("no event should be published when commit fails")
	}
}

func TestCreateOrder_BeginFailure(t *testing.T) {
	f := newOrderFixture()
	f.pool.err = errors.New("pool closed")

	_, err := f.svc.CreateOrder(context.Background(), f.request(CreateOrderItemRequest{ProductID: f.productA.ID.String(), Quantity: 1}))
	if err == nil || !strings.Contains(err.Error(), "begin tx") {
		t.Fatalf("got %v, want begin error", err)
	}
}
