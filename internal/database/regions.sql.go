package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createRegion = `-- name: CreateRegion :one
INSERT INTO regions (name, code, support_email, support_phone)
VALUES ($1, $2, $3, $4)
RETURNING id, name, code, support_email, support_phone, is_active, created_at, updated_at
`

type CreateRegionParams struct {
	Name         string
	Code         string
	SupportEmail pgtype.Text
	SupportPhone pgtype.Text
}

func (q *Queries) CreateRegion(ctx context.Context, arg CreateRegionParams) (Region, error) {
	row := q.db.QueryRow(ctx, createRegion,
		arg.Name,
		arg.Code,
		arg.SupportEmail,
		arg.SupportPhone,
	)
	var i Region
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Code,
		&i.SupportEmail,
		&i.SupportPhone,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getRegion = `-- name: GetRegion :one
SELECT id, name, code, support_email, support_phone, is_active, created_at, updated_at FROM regions WHERE id = $1
`

func (q *Queries) GetRegion(ctx context.Context, id uuid.UUID) (Region, error) {
	row := q.db.QueryRow(ctx, getRegion, id)
	var i Region
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Code,
		&i.SupportEmail,
		&i.SupportPhone,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listActiveRegions = `-- name: ListActiveRegions :many
SELECT id, name, code, support_email, support_phone, is_active, created_at, updated_at FROM regions WHERE is_active = TRUE ORDER BY name
`

func (q *Queries) ListActiveRegions(ctx context.Context) ([]Region, error) {
	rows, err := q.db.Query(ctx, listActiveRegions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Region{}
	for rows.Next() {
		var i Region
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Code,
			&i.SupportEmail,
			&i.SupportPhone,
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

const listRegions = `-- name: ListRegions :many
SELECT id, name, code, support_email, support_phone, is_active, created_at, updated_at FROM regions ORDER BY name
`

func (q *Queries) ListRegions(ctx context.Context) ([]Region, error) {
	rows, err := q.db.Query(ctx, listRegions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Region{}
	for rows.Next() {
		var i Region
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Code,
			&i.SupportEmail,
			&i.SupportPhone,
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

const updateRegion = `-- name: UpdateRegion :one
UPDATE regions
SET name = $2, code = $3, support_email = $4, support_phone = $5, is_active = $6, updated_at = NOW()
WHERE id = $1
RETURNING id, name, code, support_email, support_phone, is_active, created_at, updated_at
`

type UpdateRegionParams struct {
	ID           uuid.UUID
	Name         string
	Code         string
	SupportEmail pgtype.Text
	SupportPhone pgtype.Text
	IsActive     bool
}

func (q *Queries) UpdateRegion(ctx context.Context, arg UpdateRegionParams) (Region, error) {
	row := q.db.QueryRow(ctx, updateRegion,
		arg.ID,
		arg.Name,
		arg.Code,
		arg.SupportEmail,
		arg.SupportPhone,
		arg.IsActive,
	)
	var i Region
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Code,
		&i.SupportEmail,
		&i.SupportPhone,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
