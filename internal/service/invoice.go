package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InvoiceStore defines the DB methods needed to assemble an invoice.
// Satisfied by *database.Queries.
type InvoiceStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetProfile(ctx context.Context, id uuid.UUID) (database.Profile, error)
	GetRegion(ctx context.Context, id uuid.UUID) (database.Region, error)
	ListInvoiceItems(ctx context.Context, orderID uuid.UUID) ([]database.ListInvoiceItemsRow, error)
}

type InvoiceParty struct {
	Name         string  `json:"name"`
	Email        string  `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	TaxID        *string `json:"tax_id,omitempty"`
}

type InvoiceSeller struct {
	Region       string  `json:"region"`
	RegionCode   string  `json:"region_code"`
	SupportEmail *string `json:"support_email,omitempty"`
	SupportPhone *string `json:"support_phone,omitempty"`
}

type InvoiceAddress struct {
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postal_code"`
}

type InvoiceLine struct {
	ProductID        *uuid.UUID `json:"product_id"`
	Name             string     `json:"name"`
	SKU              *string    `json:"sku,omitempty"`
	Unit             *string    `json:"unit,omitempty"`
	Quantity         int32      `json:"quantity"`
	Price            string     `json:"price"`
	PricePerQuantity string     `json:"price_per_quantity"`
	Total            string     `json:"total"`
}

// Invoice is the printable view of one order.
type Invoice struct {
	InvoiceNumber string         `json:"invoice_number"`
	OrderID       uuid.UUID      `json:"order_id"`
	IssuedAt      time.Time      `json:"issued_at"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"payment_status"`
	PaymentMethod *string        `json:"payment_method,omitempty"`
	Seller        InvoiceSeller  `json:"seller"`
	Customer      InvoiceParty   `json:"customer"`
	ShipTo        InvoiceAddress `json:"ship_to"`
	Lines         []InvoiceLine  `json:"lines"`
	Subtotal      string         `json:"subtotal"`
	TotalAmount   string         `json:"total_amount"`
	Notes         *string        `json:"notes,omitempty"`
}

// InvoiceService assembles invoices for the parties allowed to see them.
type InvoiceService struct {
	store InvoiceStore
}

func NewInvoiceService(store InvoiceStore) *InvoiceService {
	return &InvoiceService{store: store}
}

// CanView reports whether actor may read order: admins of its region, the
// assigned partner, or the customer who placed it.
func CanView(actor *auth.Actor, order database.Order) bool {
	switch {
	case actor.IsAdmin():
		return actor.CanAccessRegion(order.RegionID)
	case actor.IsLogistics():
		return order.AssignedTo.Valid && uuid.UUID(order.AssignedTo.Bytes) == actor.ID
	default:
		return order.UserID == actor.ID
	}
}

// Build returns the invoice for orderID. Line names and SKUs come from the
// live product and fall back to the snapshot taken at checkout.
func (s *InvoiceService) Build(ctx context.Context, actor *auth.Actor, orderID uuid.UUID) (*Invoice, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !CanView(actor, order) {
		return nil, ErrForbidden
	}

	customer, err := s.store.GetProfile(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	region, err := s.store.GetRegion(ctx, order.RegionID)
	if err != nil {
		return nil, fmt.Errorf("get region: %w", err)
	}
	rows, err := s.store.ListInvoiceItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}

	inv := &Invoice{
		InvoiceNumber: "INV-" + order.OrderNumber,
		OrderID:       order.ID,
		IssuedAt:      order.CreatedAt,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: textPtr(order.PaymentMethod),
		Seller: InvoiceSeller{
			Region:       region.Name,
			RegionCode:   region.Code,
			SupportEmail: textPtr(region.SupportEmail),
			SupportPhone: textPtr(region.SupportPhone),
		},
		Customer: InvoiceParty{
			Name:         customer.FullName,
			Email:        customer.Email,
			Phone:        textPtr(customer.Phone),
			BusinessName: textPtr(customer.BusinessName),
			TaxID:        textPtr(customer.TaxID),
		},
		ShipTo: InvoiceAddress{
			Name:         order.DeliveryName,
			Phone:        order.DeliveryPhone,
			AddressLine1: order.DeliveryAddressLine1,
			AddressLine2: textPtr(order.DeliveryAddressLine2),
			City:         order.DeliveryCity,
			State:        order.DeliveryState,
			PostalCode:   order.DeliveryPostalCode,
		},
		Lines:       make([]InvoiceLine, 0, len(rows)),
		Subtotal:    NumericToDecimal(order.Subtotal).StringFixed(2),
		TotalAmount: NumericToDecimal(order.TotalAmount).StringFixed(2),
		Notes:       textPtr(order.Notes),
	}

	for _, r := range rows {
		r := r
		line := InvoiceLine{
			ProductID:        uuidPtr(r.ProductID),
			Name:             r.ProductName,
			SKU:              textPtr(r.ProductSku),
			Unit:             textPtr(r.CurrentUnit),
			Quantity:         r.Quantity,
			Price:            NumericToDecimal(r.Price).StringFixed(2),
			PricePerQuantity: NumericToDecimal(r.PricePerQuantity).StringFixed(2),
			Total:            NumericToDecimal(r.Total).StringFixed(2),
		}
		if r.CurrentName.Valid {
			line.Name = r.CurrentName.String
		}
		if r.CurrentSku.Valid {
			line.SKU = &r.CurrentSku.String
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, nil
}
