package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getDailySales = `-- name: GetDailySales :many
SELECT DATE(created_at)::date AS day,
       COUNT(*)::bigint AS order_count,
       COALESCE(SUM(total_amount), 0)::numeric AS revenue
FROM orders
WHERE ($1::uuid IS NULL OR region_id = $1::uuid)
  AND status <> 'cancelled'
  AND created_at >= $2
  AND created_at < $3
GROUP BY DATE(created_at)
ORDER BY day
`

type GetDailySalesRow struct {
	Day        pgtype.Date
	OrderCount int64
	Revenue    pgtype.Numeric
}

type GetDailySalesParams struct {
	RegionID  pgtype.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

func (q *Queries) GetDailySales(ctx context.Context, arg GetDailySalesParams) ([]GetDailySalesRow, error) {
	rows, err := q.db.Query(ctx, getDailySales,
		arg.RegionID,
		arg.StartDate,
		arg.EndDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetDailySalesRow{}
	for rows.Next() {
		var i GetDailySalesRow
		if err := rows.Scan(
			&i.Day,
			&i.OrderCount,
			&i.Revenue,
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

const getOrderStatusSummary = `-- name: GetOrderStatusSummary :many
SELECT status,
       COUNT(*)::bigint AS order_count,
       COALESCE(SUM(total_amount), 0)::numeric AS revenue
FROM orders
WHERE ($1::uuid IS NULL OR region_id = $1::uuid)
  AND created_at >= $2
  AND created_at < $3
GROUP BY status
ORDER BY status
`

type GetOrderStatusSummaryRow struct {
	Status     OrderStatus
	OrderCount int64
	Revenue    pgtype.Numeric
}

type GetOrderStatusSummaryParams struct {
	RegionID  pgtype.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

func (q *Queries) GetOrderStatusSummary(ctx context.Context, arg GetOrderStatusSummaryParams) ([]GetOrderStatusSummaryRow, error) {
	rows, err := q.db.Query(ctx, getOrderStatusSummary,
		arg.RegionID,
		arg.StartDate,
		arg.EndDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetOrderStatusSummaryRow{}
	for rows.Next() {
		var i GetOrderStatusSummaryRow
		if err := rows.Scan(
			&i.Status,
			&i.OrderCount,
			&i.Revenue,
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
