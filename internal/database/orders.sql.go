package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cancelPendingOrder = `-- name: CancelPendingOrder :one
UPDATE orders
SET status = 'cancelled',
    cancelled_at = NOW(),
    cancellation_reason = $3,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2 AND status = 'pending'
RETURNING id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at
`

type CancelPendingOrderParams struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	CancellationReason pgtype.Text
}

func (q *Queries) CancelPendingOrder(ctx context.Context, arg CancelPendingOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, cancelPendingOrder,
		arg.ID,
		arg.UserID,
		arg.CancellationReason,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.UserID,
		&i.RegionID,
		&i.Status,
		&i.PaymentStatus,
		&i.PaymentMethod,
		&i.Subtotal,
		&i.TotalAmount,
		&i.DeliveryName,
		&i.DeliveryPhone,
		&i.DeliveryAddressLine1,
		&i.DeliveryAddressLine2,
		&i.DeliveryCity,
		&i.DeliveryState,
		&i.DeliveryPostalCode,
		&i.DeliveryLatitude,
		&i.DeliveryLongitude,
		&i.Notes,
		&i.AssignedTo,
		&i.AssignedAt,
		&i.DeliveredAt,
		&i.CancelledAt,
		&i.CancellationReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    order_number, user_id, region_id, payment_method, subtotal, total_amount,
    delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2,
    delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude,
    notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at
`

type CreateOrderParams struct {
	OrderNumber          string
	UserID               uuid.UUID
	RegionID             uuid.UUID
	PaymentMethod        pgtype.Text
	Subtotal             pgtype.Numeric
	TotalAmount          pgtype.Numeric
	DeliveryName         string
	DeliveryPhone        string
	DeliveryAddressLine1 string
	DeliveryAddressLine2 pgtype.Text
	DeliveryCity         string
	DeliveryState        string
	DeliveryPostalCode   string
	DeliveryLatitude     pgtype.Float8
	DeliveryLongitude    pgtype.Float8
	Notes                pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.UserID,
		arg.RegionID,
		arg.PaymentMethod,
		arg.Subtotal,
		arg.TotalAmount,
		arg.DeliveryName,
		arg.DeliveryPhone,
		arg.DeliveryAddressLine1,
		arg.DeliveryAddressLine2,
		arg.DeliveryCity,
		arg.DeliveryState,
		arg.DeliveryPostalCode,
		arg.DeliveryLatitude,
		arg.DeliveryLongitude,
		arg.Notes,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.UserID,
		&i.RegionID,
		&i.Status,
		&i.PaymentStatus,
		&i.PaymentMethod,
		&i.Subtotal,
		&i.TotalAmount,
		&i.DeliveryName,
		&i.DeliveryPhone,
		&i.DeliveryAddressLine1,
		&i.DeliveryAddressLine2,
		&i.DeliveryCity,
		&i.DeliveryState,
		&i.DeliveryPostalCode,
		&i.DeliveryLatitude,
		&i.DeliveryLongitude,
		&i.Notes,
		&i.AssignedTo,
		&i.AssignedAt,
		&i.DeliveredAt,
		&i.CancelledAt,
		&i.CancellationReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, product_id, product_name, product_sku, quantity, price, price_per_quantity, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, product_id, product_name, product_sku, quantity, price, price_per_quantity, total, created_at
`

type CreateOrderItemParams struct {
	OrderID          uuid.UUID
	ProductID        pgtype.UUID
	ProductName      string
	ProductSku       pgtype.Text
	Quantity         int32
	Price            pgtype.Numeric
	PricePerQuantity pgtype.Numeric
	Total            pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ProductID,
		arg.ProductName,
		arg.ProductSku,
		arg.Quantity,
		arg.Price,
		arg.PricePerQuantity,
		arg.Total,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.ProductName,
		&i.ProductSku,
		&i.Quantity,
		&i.Price,
		&i.PricePerQuantity,
		&i.Total,
		&i.CreatedAt,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at FROM orders WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.UserID,
		&i.RegionID,
		&i.Status,
		&i.PaymentStatus,
		&i.PaymentMethod,
		&i.Subtotal,
		&i.TotalAmount,
		&i.DeliveryName,
		&i.DeliveryPhone,
		&i.DeliveryAddressLine1,
		&i.DeliveryAddressLine2,
		&i.DeliveryCity,
		&i.DeliveryState,
		&i.DeliveryPostalCode,
		&i.DeliveryLatitude,
		&i.DeliveryLongitude,
		&i.Notes,
		&i.AssignedTo,
		&i.AssignedAt,
		&i.DeliveredAt,
		&i.CancelledAt,
		&i.CancellationReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listInvoiceItems = `-- name: ListInvoiceItems :many
SELECT oi.id, oi.product_id, oi.product_name, oi.product_sku, oi.quantity, oi.price, oi.price_per_quantity, oi.total,
       p.name AS current_name, p.sku AS current_sku, p.unit AS current_unit
FROM order_items oi
LEFT JOIN products p ON p.id = oi.product_id
WHERE oi.order_id = $1
ORDER BY oi.created_at, oi.id
`

type ListInvoiceItemsRow struct {
	ID               uuid.UUID
	ProductID        pgtype.UUID
	ProductName      string
	ProductSku       pgtype.Text
	Quantity         int32
	Price            pgtype.Numeric
	PricePerQuantity pgtype.Numeric
	Total            pgtype.Numeric
	CurrentName      pgtype.Text
	CurrentSku       pgtype.Text
	CurrentUnit      pgtype.Text
}

func (q *Queries) ListInvoiceItems(ctx context.Context, orderID uuid.UUID) ([]ListInvoiceItemsRow, error) {
	rows, err := q.db.Query(ctx, listInvoiceItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListInvoiceItemsRow{}
	for rows.Next() {
		var i ListInvoiceItemsRow
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.ProductName,
			&i.ProductSku,
			&i.Quantity,
			&i.Price,
			&i.PricePerQuantity,
			&i.Total,
			&i.CurrentName,
			&i.CurrentSku,
			&i.CurrentUnit,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, product_id, product_name, product_sku, quantity, price, price_per_quantity, total, created_at FROM order_items
WHERE order_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductID,
			&i.ProductName,
			&i.ProductSku,
			&i.Quantity,
			&i.Price,
			&i.PricePerQuantity,
			&i.Total,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrders = `-- name: ListOrders :many
SELECT id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at FROM orders
WHERE ($1::uuid IS NULL OR region_id = $1::uuid)
  AND ($2::order_status IS NULL OR status = $2::order_status)
  AND ($3::uuid IS NULL OR assigned_to = $3::uuid)
  AND ($4::boolean IS NULL OR (assigned_to IS NOT NULL) = $4::boolean)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	RegionID   pgtype.UUID
	Status     NullOrderStatus
	AssignedTo pgtype.UUID
	Assigned   pgtype.Bool
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.RegionID,
		arg.Status,
		arg.AssignedTo,
		arg.Assigned,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.OrderNumber,
			&i.UserID,
			&i.RegionID,
			&i.Status,
			&i.PaymentStatus,
			&i.PaymentMethod,
			&i.Subtotal,
			&i.TotalAmount,
			&i.DeliveryName,
			&i.DeliveryPhone,
			&i.DeliveryAddressLine1,
			&i.DeliveryAddressLine2,
			&i.DeliveryCity,
			&i.DeliveryState,
			&i.DeliveryPostalCode,
			&i.DeliveryLatitude,
			&i.DeliveryLongitude,
			&i.Notes,
			&i.AssignedTo,
			&i.AssignedAt,
			&i.DeliveredAt,
			&i.CancelledAt,
			&i.CancellationReason,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrdersByAssignee = `-- name: ListOrdersByAssignee :many
SELECT id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at FROM orders
WHERE assigned_to = $1
  AND ($2::order_status IS NULL OR status = $2::order_status)
ORDER BY created_at DESC
`

type ListOrdersByAssigneeParams struct {
	AssignedTo pgtype.UUID
	Status     NullOrderStatus
}

func (q *Queries) ListOrdersByAssignee(ctx context.Context, arg ListOrdersByAssigneeParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByAssignee,
		arg.AssignedTo,
		arg.Status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.OrderNumber,
			&i.UserID,
			&i.RegionID,
			&i.Status,
			&i.PaymentStatus,
			&i.PaymentMethod,
			&i.Subtotal,
			&i.TotalAmount,
			&i.DeliveryName,
			&i.DeliveryPhone,
			&i.DeliveryAddressLine1,
			&i.DeliveryAddressLine2,
			&i.DeliveryCity,
			&i.DeliveryState,
			&i.DeliveryPostalCode,
			&i.DeliveryLatitude,
			&i.DeliveryLongitude,
			&i.Notes,
			&i.AssignedTo,
			&i.AssignedAt,
			&i.DeliveredAt,
			&i.CancelledAt,
			&i.CancellationReason,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrdersByUser = `-- name: ListOrdersByUser :many
SELECT id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListOrdersByUserParams struct {
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListOrdersByUser(ctx context.Context, arg ListOrdersByUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser,
		arg.UserID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.OrderNumber,
			&i.UserID,
			&i.RegionID,
			&i.Status,
			&i.PaymentStatus,
			&i.PaymentMethod,
			&i.Subtotal,
			&i.TotalAmount,
			&i.DeliveryName,
			&i.DeliveryPhone,
			&i.DeliveryAddressLine1,
			&i.DeliveryAddressLine2,
			&i.DeliveryCity,
			&i.DeliveryState,
			&i.DeliveryPostalCode,
			&i.DeliveryLatitude,
			&i.DeliveryLongitude,
			&i.Notes,
			&i.AssignedTo,
			&i.AssignedAt,
			&i.DeliveredAt,
			&i.CancelledAt,
			&i.CancellationReason,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderAssignment = `-- name: UpdateOrderAssignment :one
UPDATE orders
SET assigned_to = $2,
    assigned_at = CASE WHEN $2::uuid IS NULL THEN NULL ELSE NOW() END,
    status = $3,
    updated_at = NOW()
WHERE id = $1 AND status = $4
RETURNING id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at
`

type UpdateOrderAssignmentParams struct {
	ID         uuid.UUID
	AssignedTo pgtype.UUID
	Status     OrderStatus
	PrevStatus OrderStatus
}

func (q *Queries) UpdateOrderAssignment(ctx context.Context, arg UpdateOrderAssignmentParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderAssignment,
		arg.ID,
		arg.AssignedTo,
		arg.Status,
		arg.PrevStatus,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.UserID,
		&i.RegionID,
		&i.Status,
		&i.PaymentStatus,
		&i.PaymentMethod,
		&i.Subtotal,
		&i.TotalAmount,
		&i.DeliveryName,
		&i.DeliveryPhone,
		&i.DeliveryAddressLine1,
		&i.DeliveryAddressLine2,
		&i.DeliveryCity,
		&i.DeliveryState,
		&i.DeliveryPostalCode,
		&i.DeliveryLatitude,
		&i.DeliveryLongitude,
		&i.Notes,
		&i.AssignedTo,
		&i.AssignedAt,
		&i.DeliveredAt,
		&i.CancelledAt,
		&i.CancellationReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateOrderPaymentStatus = `-- name: UpdateOrderPaymentStatus :one
UPDATE orders
SET payment_status = $2, updated_at = NOW()
WHERE id = $1
RETURNING id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at
`

type UpdateOrderPaymentStatusParams struct {
	ID            uuid.UUID
	PaymentStatus PaymentStatus
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderPaymentStatus,
		arg.ID,
		arg.PaymentStatus,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.UserID,
		&i.RegionID,
		&i.Status,
		&i.PaymentStatus,
		&i.PaymentMethod,
		&i.Subtotal,
		&i.TotalAmount,
		&i.DeliveryName,
		&i.DeliveryPhone,
		&i.DeliveryAddressLine1,
		&i.DeliveryAddressLine2,
		&i.DeliveryCity,
		&i.DeliveryState,
		&i.DeliveryPostalCode,
		&i.DeliveryLatitude,
		&i.DeliveryLongitude,
		&i.Notes,
		&i.AssignedTo,
		&i.AssignedAt,
		&i.DeliveredAt,
		&i.CancelledAt,
		&i.CancellationReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2,
    delivered_at = $4,
    cancelled_at = $5,
    updated_at = NOW()
WHERE id = $1 AND status = $3
RETURNING id, order_number, user_id, region_id, status, payment_status, payment_method, subtotal, total_amount, delivery_name, delivery_phone, delivery_address_line1, delivery_address_line2, delivery_city, delivery_state, delivery_postal_code, delivery_latitude, delivery_longitude, notes, assigned_to, assigned_at, delivered_at, cancelled_at, cancellation_reason, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID          uuid.UUID
	Status      OrderStatus
	PrevStatus  OrderStatus
	DeliveredAt pgtype.Timestamptz
	CancelledAt pgtype.Timestamptz
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID,
		arg.Status,
		arg.PrevStatus,
		arg.DeliveredAt,
		arg.CancelledAt,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.UserID,
		&i.RegionID,
		&i.Status,
		&i.PaymentStatus,
		&i.PaymentMethod,
		&i.Subtotal,
		&i.TotalAmount,
		&i.DeliveryName,
		&i.DeliveryPhone,
		&i.DeliveryAddressLine1,
		&i.DeliveryAddressLine2,
		&i.DeliveryCity,
		&i.DeliveryState,
		&i.DeliveryPostalCode,
		&i.DeliveryLatitude,
		&i.DeliveryLongitude,
		&i.Notes,
		&i.AssignedTo,
		&i.AssignedAt,
		&i.DeliveredAt,
		&i.CancelledAt,
		&i.CancellationReason,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
