// Package service holds the multi-step business operations that need a
// transaction or touch several tables.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/bulkdrop/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors shared across services. Handlers map them to HTTP statuses.
var (
	ErrForbidden     = errors.New("access denied")
	ErrOrderNotFound = errors.New("order not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Publisher pushes realtime events to a region's subscribers.
// Satisfied by *ws.Hub.
type Publisher interface {
	Publish(regionID uuid.UUID, eventType string, payload interface{})
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(uuid.UUID, string, interface{}) {}

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	OrderID       uuid.UUID  `json:"order_id"`
	OrderNumber   string     `json:"order_number"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	AssignedTo    *uuid.UUID `json:"assigned_to"`
	TotalAmount   string     `json:"total_amount"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewOrderEvent builds the realtime payload for o.
func NewOrderEvent(o database.Order) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		AssignedTo:    uuidPtr(o.AssignedTo),
		TotalAmount:   NumericToDecimal(o.TotalAmount).StringFixed(2),
		UpdatedAt:     o.UpdatedAt,
	}
}

// NumericToDecimal converts a NUMERIC column; NULL and garbage read as zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToNumeric converts d to a 2-place NUMERIC value.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func pgNow(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
