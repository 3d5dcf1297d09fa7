package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createProduct = `-- name: CreateProduct :one
INSERT INTO products (region_id, name, sku, description, unit, price, price_per_quantity, stock, image_url, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, region_id, name, sku, description, unit, price, price_per_quantity, stock, image_url, is_active, created_at, updated_at
`

type CreateProductParams struct {
	RegionID         uuid.UUID
	Name             string
	Sku              pgtype.Text
	Description      pgtype.Text
	Unit             pgtype.Text
	Price            pgtype.Numeric
	PricePerQuantity pgtype.Numeric
	Stock            int32
	ImageUrl         pgtype.Text
	IsActive         bool
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct,
		arg.RegionID,
		arg.Name,
		arg.Sku,
		arg.Description,
		arg.Unit,
		arg.Price,
		arg.PricePerQuantity,
		arg.Stock,
		arg.ImageUrl,
		arg.IsActive,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.RegionID,
		&i.Name,
		&i.Sku,
		&i.Description,
		&i.Unit,
		&i.Price,
		&i.PricePerQuantity,
		&i.Stock,
		&i.ImageUrl,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteProduct = `-- name: DeleteProduct :one
DELETE FROM products WHERE id = $1 RETURNING id
`

func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteProduct, id)
	err := row.Scan(&id)
	return id, err
}

const getProduct = `-- name: GetProduct :one
SELECT id, region_id, name, sku, description, unit, price, price_per_quantity, stock, image_url, is_active, created_at, updated_at FROM products WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.RegionID,
		&i.Name,
		&i.Sku,
		&i.Description,
		&i.Unit,
		&i.Price,
		&i.PricePerQuantity,
		&i.Stock,
		&i.ImageUrl,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listActiveProductsByRegion = `-- name: ListActiveProductsByRegion :many
SELECT id, region_id, name, sku, description, unit, price, price_per_quantity, stock, image_url, is_active, created_at, updated_at FROM products
WHERE region_id = $1 AND is_active = TRUE
ORDER BY name
`

func (q *Queries) ListActiveProductsByRegion(ctx context.Context, regionID uuid.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, listActiveProductsByRegion, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.RegionID,
			&i.Name,
			&i.Sku,
			&i.Description,
			&i.Unit,
			&i.Price,
			&i.PricePerQuantity,
			&i.Stock,
			&i.ImageUrl,
			&i.IsActive,
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

const listProducts = `-- name: ListProducts :many
SELECT id, region_id, name, sku, description, unit, price, price_per_quantity, stock, image_url, is_active, created_at, updated_at FROM products
WHERE ($1::uuid IS NULL OR region_id = $1::uuid)
ORDER BY created_at DESC
`

func (q *Queries) ListProducts(ctx context.Context, regionID pgtype.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.RegionID,
			&i.Name,
			&i.Sku,
			&i.Description,
			&i.Unit,
			&i.Price,
			&i.PricePerQuantity,
			&i.Stock,
			&i.ImageUrl,
			&i.IsActive,
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

const updateProduct = `-- name: UpdateProduct :one
UPDATE products
SET name = $2,
    sku = $3,
    description = $4,
    unit = $5,
    price = $6,
    price_per_quantity = $7,
    stock = $8,
    image_url = $9,
    is_active = $10,
    updated_at = NOW()
WHERE id = $1
RETURNING id, region_id, name, sku, description, unit, price, price_per_quantity, stock, image_url, is_active, created_at, updated_at
`

type UpdateProductParams struct {
	ID               uuid.UUID
	Name             string
	Sku              pgtype.Text
	Description      pgtype.Text
	Unit             pgtype.Text
	Price            pgtype.Numeric
	PricePerQuantity pgtype.Numeric
	Stock            int32
	ImageUrl         pgtype.Text
	IsActive         bool
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProduct,
		arg.ID,
		arg.Name,
		arg.Sku,
		arg.Description,
		arg.Unit,
		arg.Price,
		arg.PricePerQuantity,
		arg.Stock,
		arg.ImageUrl,
		arg.IsActive,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.RegionID,
		&i.Name,
		&i.Sku,
		&i.Description,
		&i.Unit,
		&i.Price,
		&i.PricePerQuantity,
		&i.Stock,
		&i.ImageUrl,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
