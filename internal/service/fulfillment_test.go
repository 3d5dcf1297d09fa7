package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/orderflow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// mockFulfillmentStore keeps one order in memory and applies the same
// compare-and-set rules as the SQL.
type mockFulfillmentStore struct {
	order    database.Order
	profiles map[uuid.UUID]database.Profile

	// raceTo, when set, changes the stored status right before the next
	// conditional write.
	raceTo database.OrderStatus

	statusWrites []database.UpdateOrderStatusParams
	assignWrites []database.UpdateOrderAssignmentParams
}

func (m *mockFulfillmentStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if id != m.order.ID {
		return database.Order{}, pgx.ErrNoRows
	}
	return m.order, nil
}

func (m *mockFulfillmentStore) GetProfile(ctx context.Context, id uuid.UUID) (database.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return database.Profile{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockFulfillmentStore) race() {
	if m.raceTo != "" {
		m.order.Status = m.raceTo
		m.raceTo = ""
	}
}

func (m *mockFulfillmentStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	m.race()
	m.statusWrites = append(m.statusWrites, arg)
	if arg.ID != m.order.ID || m.order.Status != arg.PrevStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	m.order.Status = arg.Status
	m.order.DeliveredAt = arg.DeliveredAt
	m.order.CancelledAt = arg.CancelledAt
	return m.order, nil
}

func (m *mockFulfillmentStore) UpdateOrderAssignment(ctx context.Context, arg database.UpdateOrderAssignmentParams) (database.Order, error) {
	m.race()
	m.assignWrites = append(m.assignWrites, arg)
	if arg.ID != m.order.ID || m.order.Status != arg.PrevStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	m.order.AssignedTo = arg.AssignedTo
	m.order.Status = arg.Status
	return m.order, nil
}

func (m *mockFulfillmentStore) UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error) {
	m.order.PaymentStatus = arg.PaymentStatus
	return m.order, nil
}

type fulfillmentFixture struct {
	regionID uuid.UUID
	customer database.Profile
	partner  database.Profile
	admin    *auth.Actor
	store    *mockFulfillmentStore
	pool     *mockTxBeginner
	pub      *recordingPublisher
	notifier *recordingNotifier
	svc      *FulfillmentService
	now      time.Time
}

func newFulfillmentFixture(status database.OrderStatus) *fulfillmentFixture {
	regionID := uuid.New()
	region := pgtype.UUID{Bytes: regionID, Valid: true}

	customer := database.Profile{ID: uuid.New(), Email: "buyer@example.com", FullName: "Buyer", Role: database.UserRoleUser, RegionID: region}
	partner := database.Profile{ID: uuid.New(), Role: database.UserRoleLogistics, RegionID: region}
	admin := auth.NewActor(database.Profile{
		ID:        uuid.New(),
		Role:      database.UserRoleAdmin,
		AdminRole: database.NullAdminRole{AdminRole: database.AdminRoleRegionalAdmin, Valid: true},
		RegionID:  region,
	})

	store := &mockFulfillmentStore{
		order: database.Order{
			ID:            uuid.New(),
			OrderNumber:   "ORD2601150001",
			UserID:        customer.ID,
			RegionID:      regionID,
			Status:        status,
			PaymentStatus: database.PaymentStatusPending,
		},
		profiles: map[uuid.UUID]database.Profile{customer.ID: customer, partner.ID: partner},
	}
	pool := &mockTxBeginner{}
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{}
	now := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

	svc := NewFulfillmentService(store, pool, func(db database.DBTX) FulfillmentStore { return store }, pub, notifier, quietLog())
	svc.now = func() time.Time { return now }

	return &fulfillmentFixture{
		regionID: regionID,
		customer: customer,
		partner:  partner,
		admin:    admin,
		store:    store,
		pool:     pool,
		pub:      pub,
		notifier: notifier,
		svc:      svc,
		now:      now,
	}
}

func (f *fulfillmentFixture) assignTo(p database.Profile) {
	f.store.order.AssignedTo = pgtype.UUID{Bytes: p.ID, Valid: true}
}

func strPtr(s string) *string { return &s }

// --- Logistics path ---

func TestLogisticsTransition_DeliverStampsAndNotifies(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusShipped)
	f.assignTo(f.partner)

	got, err := f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), f.store.order.ID, "delivered")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Status != database.OrderStatusDelivered {
		t.Errorf("status: got %s, want delivered", got.Status)
	}
	if !got.DeliveredAt.Valid || !got.DeliveredAt.Time.Equal(f.now) {
		t.Errorf("delivered_at: got %+v, want %v", got.DeliveredAt, f.now)
	}
	if f.store.statusWrites[0].PrevStatus != database.OrderStatusShipped {
		t.Errorf("write must be conditional on previous status, got %s", f.store.statusWrites[0].PrevStatus)
	}
	if len(f.notifier.orders) != 1 || f.notifier.orders[0].To != "buyer@example.com" || f.notifier.orders[0].Status != "delivered" {
		t.Errorf("notification: got %+v", f.notifier.orders)
	}
	if got := f.pub.types(); len(got) != 1 || got[0] != "order.status_changed" {
		t.Errorf("events: got %v", got)
	}
	if f.pool.calls != 0 {
		t.Errorf("logistics path should not open a transaction, got %d", f.pool.calls)
	}
}

func TestLogisticsTransition_AllowedEdges(t *testing.T) {
	for _, from := range []database.OrderStatus{database.OrderStatusPending, database.OrderStatusConfirmed, database.OrderStatusProcessing} {
		t.Run(string(from), func(t *testing.T) {
			f := newFulfillmentFixture(from)
			f.assignTo(f.partner)

			got, err := f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), f.store.order.ID, "shipped")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != database.OrderStatusShipped {
				t.Errorf("status: got %s, want shipped", got.Status)
			}
			if got.DeliveredAt.Valid {
				t.Error("delivered_at must not be stamped on ship")
			}
		})
	}
}

func TestLogisticsTransition_RejectsOtherEdges(t *testing.T) {
	tests := []struct {
		from database.OrderStatus
		to   string
	}{
		{database.OrderStatusPending, "delivered"},
		{database.OrderStatusShipped, "cancelled"},
		{database.OrderStatusDelivered, "shipped"},
		{database.OrderStatusPending, "confirmed"},
		{database.OrderStatusCancelled, "shipped"},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+tt.to, func(t *testing.T) {
			f := newFulfillmentFixture(tt.from)
			f.assignTo(f.partner)

			_, err := f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), f.store.order.ID, tt.to)
			if !errors.Is(err, orderflow.ErrInvalidTransition) {
				t.Fatalf("got %v, want ErrInvalidTransition", err)
			}
			if len(f.store.statusWrites) != 0 {
				t.Error("rejected transition must not write")
			}
		})
	}
}

func TestLogisticsTransition_NotAssignee(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusProcessing)
	other := database.Profile{ID: uuid.New(), Role: database.UserRoleLogistics}
	f.assignTo(other)

	_, err := f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), f.store.order.ID, "shipped")
	if !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("got %v, want ErrNotAssignee", err)
	}

	f.store.order.AssignedTo = pgtype.UUID{}
	_, err = f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), f.store.order.ID, "shipped")
	if !errors.Is(err, ErrNotAssignee) {
		t.Fatalf("unassigned order: got %v, want ErrNotAssignee", err)
	}
}

func TestLogisticsTransition_LostRace(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusProcessing)
	f.assignTo(f.partner)
	f.store.raceTo = database.OrderStatusCancelled

	_, err := f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), f.store.order.ID, "shipped")
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("got %v, want ErrStatusConflict", err)
	}
	if f.store.order.Status != database.OrderStatusCancelled {
		t.Error("concurrent cancel must not be overwritten")
	}
	if len(f.notifier.orders) != 0 {
		t.Error("no notification on lost race")
	}
}

func TestLogisticsTransition_NotFoundAndBadStatus(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusShipped)
	f.assignTo(f.partner)

	if _, err := f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), uuid.New(), "delivered"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("got %v, want ErrOrderNotFound", err)
	}
	if _, err := f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), f.store.order.ID, "lost"); !errors.Is(err, orderflow.ErrInvalidStatus) {
		t.Errorf("got %v, want ErrInvalidStatus", err)
	}
}

func TestLogisticsTransition_NotifierFailureIgnored(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusShipped)
	f.assignTo(f.partner)
	f.notifier.err = errors.New("smtp down")

	if _, err := f.svc.LogisticsTransition(context.Background(), auth.NewActor(f.partner), f.store.order.ID, "delivered"); err != nil {
		t.Fatalf("notification failure must not fail the request: %v", err)
	}
}

// --- Admin path ---

func TestAdminUpdate_AssignMovesToProcessing(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusPending)
	partnerID := f.partner.ID

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{
		Assignment: &AssignmentChange{PartnerID: &partnerID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Status != database.OrderStatusProcessing {
		t.Errorf("status: got %s, want processing", got.Status)
	}
	if uuid.UUID(got.AssignedTo.Bytes) != partnerID {
		t.Errorf("assigned_to: got %v, want %v", got.AssignedTo, partnerID)
	}
	if got := f.pub.types(); len(got) != 2 || got[0] != "order.assigned" || got[1] != "order.status_changed" {
		t.Errorf("events: got %v", got)
	}
}

func TestAdminUpdate_LeavingDeliveredClearsStamp(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusDelivered)
	f.store.order.DeliveredAt = pgNow(f.now.Add(-time.Hour))

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{Status: strPtr("processing")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DeliveredAt.Valid {
		t.Errorf("delivered_at = %v, want null", got.DeliveredAt.Time)
	}
	if len(f.store.statusWrites) != 1 || f.store.statusWrites[0].DeliveredAt.Valid {
		t.Errorf("status write should carry a null delivered_at: %+v", f.store.statusWrites)
	}
}

func TestAdminUpdate_LeavingCancelledClearsStamp(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusCancelled)
	f.store.order.CancelledAt = pgNow(f.now.Add(-time.Hour))

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{Status: strPtr("confirmed")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CancelledAt.Valid {
		t.Errorf("cancelled_at = %v, want null", got.CancelledAt.Time)
	}
}

func TestAdminUpdate_UnassignReturnsToConfirmed(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusProcessing)
	f.assignTo(f.partner)

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{
		Assignment: &AssignmentChange{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AssignedTo.Valid {
		t.Error("assigned_to should be cleared")
	}
	if got.Status != database.OrderStatusConfirmed {
		t.Errorf("status: got %s, want confirmed", got.Status)
	}
}

func TestAdminUpdate_InvalidAssignee(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusPending)
	elsewhere := database.Profile{ID: uuid.New(), Role: database.UserRoleLogistics, RegionID: pgtype.UUID{Bytes: uuid.New(), Valid: true}}
	f.store.profiles[elsewhere.ID] = elsewhere

	for name, id := range map[string]uuid.UUID{
		"customer":        f.customer.ID,
		"other region":    elsewhere.ID,
		"unknown profile": uuid.New(),
	} {
		t.Run(name, func(t *testing.T) {
			id := id
			_, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{
				Assignment: &AssignmentChange{PartnerID: &id},
			})
			if !errors.Is(err, ErrInvalidAssignee) {
				t.Fatalf("got %v, want ErrInvalidAssignee", err)
			}
		})
	}
	if len(f.store.assignWrites) != 0 {
		t.Error("invalid assignee must not write")
	}
}

func TestAdminUpdate_StatusOverride(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusDelivered)

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{Status: strPtr("processing")})
	if err != nil {
		t.Fatalf("admin override should be allowed: %v", err)
	}
	if got.Status != database.OrderStatusProcessing {
		t.Errorf("status: got %s, want processing", got.Status)
	}
	if got.PaymentStatus != database.PaymentStatusPending {
		t.Errorf("payment_status: got %s, want pending", got.PaymentStatus)
	}
}

func TestAdminUpdate_CancelStampsAndCommits(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusConfirmed)
	tx := &mockTx{}
	f.pool.tx = tx

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{Status: strPtr("cancelled")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.CancelledAt.Valid {
		t.Error("cancelled_at should be stamped")
	}
	if !tx.committed {
		t.Error("transaction should be committed")
	}
	if len(f.notifier.orders) != 1 {
		t.Errorf("notifications: got %d, want 1", len(f.notifier.orders))
	}
}

func TestAdminUpdate_AssignWithExplicitStatus(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusPending)
	partnerID := f.partner.ID

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{
		Assignment: &AssignmentChange{PartnerID: &partnerID},
		Status:     strPtr("shipped"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != database.OrderStatusShipped {
		t.Errorf("explicit status should win, got %s", got.Status)
	}
	if !got.AssignedTo.Valid {
		t.Error("assignment should be kept")
	}
}

func TestAdminUpdate_PaymentStatusOnly(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusDelivered)

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{PaymentStatus: strPtr("paid")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PaymentStatus != database.PaymentStatusPaid {
		t.Errorf("payment_status: got %s, want paid", got.PaymentStatus)
	}
	if got.Status != database.OrderStatusDelivered {
		t.Error("status must be unchanged")
	}
	if len(f.notifier.orders) != 0 {
		t.Error("payment change alone should not email the customer")
	}
}

func TestAdminUpdate_Validation(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusPending)

	if _, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{}); !errors.Is(err, ErrNothingToUpdate) {
		t.Errorf("empty update: got %v", err)
	}
	if _, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{PaymentStatus: strPtr("maybe")}); !errors.Is(err, ErrInvalidPaymentStatus) {
		t.Errorf("bad payment status: got %v", err)
	}
	if _, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{Status: strPtr("lost")}); !errors.Is(err, orderflow.ErrInvalidStatus) {
		t.Errorf("bad status: got %v", err)
	}
	if _, err := f.svc.AdminUpdate(context.Background(), f.admin, uuid.New(), AdminOrderUpdate{Status: strPtr("confirmed")}); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("missing order: got %v", err)
	}
}

func TestAdminUpdate_OutOfRegion(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusPending)
	outsider := auth.NewActor(database.Profile{
		ID:        uuid.New(),
		Role:      database.UserRoleAdmin,
		AdminRole: database.NullAdminRole{AdminRole: database.AdminRoleRegionalAdmin, Valid: true},
		RegionID:  pgtype.UUID{Bytes: uuid.New(), Valid: true},
	})

	_, err := f.svc.AdminUpdate(context.Background(), outsider, f.store.order.ID, AdminOrderUpdate{Status: strPtr("confirmed")})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}

	super := auth.NewActor(database.Profile{
		ID:        uuid.New(),
		Role:      database.UserRoleAdmin,
		AdminRole: database.NullAdminRole{AdminRole: database.AdminRoleSuperAdmin, Valid: true},
	})
	if _, err := f.svc.AdminUpdate(context.Background(), super, f.store.order.ID, AdminOrderUpdate{Status: strPtr("confirmed")}); err != nil {
		t.Fatalf("super admin should pass region scope: %v", err)
	}
}

func TestAdminUpdate_ReassignShippedOrderKeepsStatus(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusShipped)
	f.assignTo(f.partner)
	courier := database.Profile{ID: uuid.New(), Role: database.UserRoleLogistics, RegionID: f.partner.RegionID}
	f.store.profiles[courier.ID] = courier
	courierID := courier.ID

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{
		Assignment: &AssignmentChange{PartnerID: &courierID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != database.OrderStatusShipped {
		t.Errorf("status = %s, want shipped", got.Status)
	}
	if uuid.UUID(got.AssignedTo.Bytes) != courier.ID {
		t.Errorf("assigned_to = %v, want %v", got.AssignedTo, courier.ID)
	}
}

func TestAdminUpdate_UnassignPendingOrderKeepsStatus(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusPending)
	f.assignTo(f.partner)

	got, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{
		Assignment: &AssignmentChange{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AssignedTo.Valid {
		t.Errorf("assigned_to = %v, want null", got.AssignedTo)
	}
	if got.Status != database.OrderStatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
}

func TestAdminUpdate_AssignDeliveredOrderRejected(t *testing.T) {
	f := newFulfillmentFixture(database.OrderStatusDelivered)
	partnerID := f.partner.ID

	_, err := f.svc.AdminUpdate(context.Background(), f.admin, f.store.order.ID, AdminOrderUpdate{
		Assignment: &AssignmentChange{PartnerID: &partnerID},
	})
	if !errors.Is(err, orderflow.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}
