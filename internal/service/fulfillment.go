package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/enum"
	"github.com/bulkdrop/api/internal/notify"
	"github.com/bulkdrop/api/internal/orderflow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
)

// Errors returned by the fulfillment service.
var (
	ErrNotAssignee          = errors.New("order is not assigned to you")
	ErrStatusConflict       = errors.New("order status changed, please retry")
	ErrNothingToUpdate      = errors.New("no fields to update")
	ErrInvalidAssignee      = errors.New("assigned_to must be a logistics partner in the order's region")
	ErrInvalidPaymentStatus = errors.New("invalid payment_status")
)

// FulfillmentStore defines the DB methods needed to move orders along.
// Satisfied by *database.Queries (and its WithTx variant).
type FulfillmentStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetProfile(ctx context.Context, id uuid.UUID) (database.Profile, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderAssignment(ctx context.Context, arg database.UpdateOrderAssignmentParams) (database.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error)
}

// NewFulfillmentStore creates a FulfillmentStore from a DBTX (pool or tx).
type NewFulfillmentStore func(db database.DBTX) FulfillmentStore

// AssignmentChange describes the assigned_to field of an admin update.
// A nil PartnerID unassigns.
type AssignmentChange struct {
	PartnerID *uuid.UUID
}

// AdminOrderUpdate carries the independent fields of an admin patch.
// Nil means "leave unchanged".
type AdminOrderUpdate struct {
	Status        *string
	Assignment    *AssignmentChange
	PaymentStatus *string
}

// FulfillmentService applies status, assignment and payment changes through
// the shared order state machine.
type FulfillmentService struct {
	store     FulfillmentStore
	pool      TxBeginner
	newStore  NewFulfillmentStore
	publisher Publisher
	notifier  notify.Notifier
	log       *logrus.Entry
	now       func() time.Time
}

// NewFulfillmentService creates a new FulfillmentService. store serves the
// single-statement paths; newStore binds multi-statement updates to a tx.
func NewFulfillmentService(store FulfillmentStore, pool TxBeginner, newStore NewFulfillmentStore, publisher Publisher, notifier notify.Notifier, log *logrus.Entry) *FulfillmentService {
	return &FulfillmentService{
		store:     store,
		pool:      pool,
		newStore:  newStore,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// LogisticsTransition moves an order assigned to actor along the delivery
// path. The write only lands if the status is still the one validated.
func (s *FulfillmentService) LogisticsTransition(ctx context.Context, actor *auth.Actor, orderID uuid.UUID, status string) (database.Order, error) {
	target, err := orderflow.ParseStatus(status)
	if err != nil {
		return database.Order{}, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if !order.AssignedTo.Valid || uuid.UUID(order.AssignedTo.Bytes) != actor.ID {
		return database.Order{}, ErrNotAssignee
	}

	updated, err := s.applyStatus(ctx, s.store, order, orderflow.LogisticsPolicy, target)
	if err != nil {
		return database.Order{}, err
	}

	s.afterStatusChange(ctx, updated)
	return updated, nil
}

// AdminUpdate applies an admin patch in one transaction. Assignment runs
// first so an explicit status in the same request has the final word.
func (s *FulfillmentService) AdminUpdate(ctx context.Context, actor *auth.Actor, orderID uuid.UUID, upd AdminOrderUpdate) (database.Order, error) {
	if upd.Status == nil && upd.Assignment == nil && upd.PaymentStatus == nil {
		return database.Order{}, ErrNothingToUpdate
	}

	var target orderflow.Status
	if upd.Status != nil {
		st, err := orderflow.ParseStatus(*upd.Status)
		if err != nil {
			return database.Order{}, err
		}
		target = st
	}

	var payment database.PaymentStatus
	if upd.PaymentStatus != nil {
		payment = database.PaymentStatus(*upd.PaymentStatus)
		if !isValidPaymentStatus(payment) {
			return database.Order{}, ErrInvalidPaymentStatus
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if !actor.CanAccessRegion(order.RegionID) {
		return database.Order{}, ErrForbidden
	}

	original := order

	if upd.Assignment != nil {
		order, err = s.applyAssignment(ctx, store, order, upd.Assignment.PartnerID)
		if err != nil {
			return database.Order{}, err
		}
	}

	if upd.Status != nil && orderflow.Status(order.Status) != target {
		order, err = s.applyStatus(ctx, store, order, orderflow.AdminPolicy, target)
		if err != nil {
			return database.Order{}, err
		}
	}

	if upd.PaymentStatus != nil && order.PaymentStatus != payment {
		order, err = store.UpdateOrderPaymentStatus(ctx, database.UpdateOrderPaymentStatusParams{
			ID:            order.ID,
			PaymentStatus: payment,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("update payment status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	if upd.Assignment != nil && original.AssignedTo != order.AssignedTo {
		s.publisher.Publish(order.RegionID, enum.EventOrderAssigned, NewOrderEvent(order))
	}
	if original.Status != order.Status {
		s.afterStatusChange(ctx, order)
	} else if original.PaymentStatus != order.PaymentStatus {
		s.publisher.Publish(order.RegionID, enum.EventOrderStatusChanged, NewOrderEvent(order))
	}
	return order, nil
}

func (s *FulfillmentService) applyAssignment(ctx context.Context, store FulfillmentStore, order database.Order, partnerID *uuid.UUID) (database.Order, error) {
	from := orderflow.Status(order.Status)

	var (
		next     orderflow.Status
		assignee pgtype.UUID
		err      error
	)
	if partnerID == nil {
		if !order.AssignedTo.Valid {
			return order, nil
		}
		next, err = orderflow.Unassign(from)
	} else {
		if order.AssignedTo.Valid && uuid.UUID(order.AssignedTo.Bytes) == *partnerID {
			return order, nil
		}
		partner, lookupErr := store.GetProfile(ctx, *partnerID)
		if lookupErr != nil {
			if errors.Is(lookupErr, pgx.ErrNoRows) {
				return database.Order{}, ErrInvalidAssignee
			}
			return database.Order{}, fmt.Errorf("get assignee: %w", lookupErr)
		}
		if partner.Role != database.UserRoleLogistics || !partner.RegionID.Valid || uuid.UUID(partner.RegionID.Bytes) != order.RegionID {
			return database.Order{}, ErrInvalidAssignee
		}
		assignee = pgUUID(partner.ID)
		next, err = orderflow.Assign(from)
	}
	if err != nil {
		return database.Order{}, err
	}

	updated, err := store.UpdateOrderAssignment(ctx, database.UpdateOrderAssignmentParams{
		ID:         order.ID,
		AssignedTo: assignee,
		Status:     database.OrderStatus(next),
		PrevStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("update assignment: %w", err)
	}
	return updated, nil
}

func (s *FulfillmentService) applyStatus(ctx context.Context, store FulfillmentStore, order database.Order, policy orderflow.Policy, target orderflow.Status) (database.Order, error) {
	effects, err := orderflow.Transition(policy, orderflow.Status(order.Status), target)
	if err != nil {
		return database.Order{}, err
	}

	params := database.UpdateOrderStatusParams{
		ID:         order.ID,
		Status:     database.OrderStatus(target),
		PrevStatus: order.Status,
	}
	// Stamps not set here are written as NULL, so leaving delivered or
	// cancelled clears them.
	now := pgNow(s.now())
	if effects.StampDelivered {
		params.DeliveredAt = now
	}
	if effects.StampCancelled {
		params.CancelledAt = now
	}

	updated, err := store.UpdateOrderStatus(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}
	return updated, nil
}

func (s *FulfillmentService) afterStatusChange(ctx context.Context, order database.Order) {
	s.publisher.Publish(order.RegionID, enum.EventOrderStatusChanged, NewOrderEvent(order))

	customer, err := s.store.GetProfile(ctx, order.UserID)
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Error("load customer for notification")
		return
	}
	err = s.notifier.OrderStatusChanged(ctx, notify.OrderStatusChange{
		To:          customer.Email,
		Name:        customer.FullName,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
	})
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Error("notify order status")
	}
}

func isValidPaymentStatus(p database.PaymentStatus) bool {
	switch p {
	case database.PaymentStatusPending,
		database.PaymentStatusPaid,
		database.PaymentStatusFailed,
		database.PaymentStatusRefunded:
		return true
	}
	return false
}
