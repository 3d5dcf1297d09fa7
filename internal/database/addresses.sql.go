package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const clearDefaultAddresses = `-- name: ClearDefaultAddresses :exec
UPDATE saved_addresses
SET is_default = FALSE, updated_at = NOW()
WHERE user_id = $1 AND is_default = TRUE
`

func (q *Queries) ClearDefaultAddresses(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearDefaultAddresses, userID)
	return err
}

const countSavedAddresses = `-- name: CountSavedAddresses :one
SELECT COUNT(*) FROM saved_addresses WHERE user_id = $1
`

func (q *Queries) CountSavedAddresses(ctx context.Context, userID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countSavedAddresses, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createSavedAddress = `-- name: CreateSavedAddress :one
INSERT INTO saved_addresses (
    user_id, label, full_name, phone, address_line1, address_line2, city, state, postal_code, latitude, longitude, is_default
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, user_id, label, full_name, phone, address_line1, address_line2, city, state, postal_code, latitude, longitude, is_default, created_at, updated_at
`

type CreateSavedAddressParams struct {
	UserID       uuid.UUID
	Label        pgtype.Text
	FullName     string
	Phone        string
	AddressLine1 string
	AddressLine2 pgtype.Text
	City         string
	State        string
	PostalCode   string
	Latitude     pgtype.Float8
	Longitude    pgtype.Float8
	IsDefault    bool
}

func (q *Queries) CreateSavedAddress(ctx context.Context, arg CreateSavedAddressParams) (SavedAddress, error) {
	row := q.db.QueryRow(ctx, createSavedAddress,
		arg.UserID,
		arg.Label,
		arg.FullName,
		arg.Phone,
		arg.AddressLine1,
		arg.AddressLine2,
		arg.City,
		arg.State,
		arg.PostalCode,
		arg.Latitude,
		arg.Longitude,
		arg.IsDefault,
	)
	var i SavedAddress
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Label,
		&i.FullName,
		&i.Phone,
		&i.AddressLine1,
		&i.AddressLine2,
		&i.City,
		&i.State,
		&i.PostalCode,
		&i.Latitude,
		&i.Longitude,
		&i.IsDefault,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteSavedAddress = `-- name: DeleteSavedAddress :one
DELETE FROM saved_addresses WHERE id = $1 AND user_id = $2 RETURNING id
`

type DeleteSavedAddressParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) DeleteSavedAddress(ctx context.Context, arg DeleteSavedAddressParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteSavedAddress,
		arg.ID,
		arg.UserID,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const getSavedAddress = `-- name: GetSavedAddress :one
SELECT id, user_id, label, full_name, phone, address_line1, address_line2, city, state, postal_code, latitude, longitude, is_default, created_at, updated_at FROM saved_addresses WHERE id = $1 AND user_id = $2
`

type GetSavedAddressParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetSavedAddress(ctx context.Context, arg GetSavedAddressParams) (SavedAddress, error) {
	row := q.db.QueryRow(ctx, getSavedAddress,
		arg.ID,
		arg.UserID,
	)
	var i SavedAddress
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Label,
		&i.FullName,
		&i.Phone,
		&i.AddressLine1,
		&i.AddressLine2,
		&i.City,
		&i.State,
		&i.PostalCode,
		&i.Latitude,
		&i.Longitude,
		&i.IsDefault,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listSavedAddresses = `-- name: ListSavedAddresses :many
SELECT id, user_id, label, full_name, phone, address_line1, address_line2, city, state, postal_code, latitude, longitude, is_default, created_at, updated_at FROM saved_addresses
WHERE user_id = $1
ORDER BY is_default DESC, created_at DESC
`

func (q *Queries) ListSavedAddresses(ctx context.Context, userID uuid.UUID) ([]SavedAddress, error) {
	rows, err := q.db.Query(ctx, listSavedAddresses, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SavedAddress{}
	for rows.Next() {
		var i SavedAddress
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Label,
			&i.FullName,
			&i.Phone,
			&i.AddressLine1,
			&i.AddressLine2,
			&i.City,
			&i.State,
			&i.PostalCode,
			&i.Latitude,
			&i.Longitude,
			&i.IsDefault,
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

const setDefaultAddress = `-- name: SetDefaultAddress :one
UPDATE saved_addresses
SET is_default = TRUE, updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, label, full_name, phone, address_line1, address_line2, city, state, postal_code, latitude, longitude, is_default, created_at, updated_at
`

type SetDefaultAddressParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) SetDefaultAddress(ctx context.Context, arg SetDefaultAddressParams) (SavedAddress, error) {
	row := q.db.QueryRow(ctx, setDefaultAddress,
		arg.ID,
		arg.UserID,
	)
	var i SavedAddress
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Label,
		&i.FullName,
		&i.Phone,
		&i.AddressLine1,
		&i.AddressLine2,
		&i.City,
		&i.State,
		&i.PostalCode,
		&i.Latitude,
		&i.Longitude,
		&i.IsDefault,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateSavedAddress = `-- name: UpdateSavedAddress :one
UPDATE saved_addresses
SET label = $3,
    full_name = $4,
    phone = $5,
    address_line1 = $6,
    address_line2 = $7,
    city = $8,
    state = $9,
    postal_code = $10,
    latitude = $11,
    longitude = $12,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, label, full_name, phone, address_line1, address_line2, city, state, postal_code, latitude, longitude, is_default, created_at, updated_at
`

type UpdateSavedAddressParams struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Label        pgtype.Text
	FullName     string
	Phone        string
	AddressLine1 string
	AddressLine2 pgtype.Text
	City         string
	State        string
	PostalCode   string
	Latitude     pgtype.Float8
	Longitude    pgtype.Float8
}

func (q *Queries) UpdateSavedAddress(ctx context.Context, arg UpdateSavedAddressParams) (SavedAddress, error) {
	row := q.db.QueryRow(ctx, updateSavedAddress,
		arg.ID,
		arg.UserID,
		arg.Label,
		arg.FullName,
		arg.Phone,
		arg.AddressLine1,
		arg.AddressLine2,
		arg.City,
		arg.State,
		arg.PostalCode,
		arg.Latitude,
		arg.Longitude,
	)
	var i SavedAddress
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Label,
		&i.FullName,
		&i.Phone,
		&i.AddressLine1,
		&i.AddressLine2,
		&i.City,
		&i.State,
		&i.PostalCode,
		&i.Latitude,
		&i.Longitude,
		&i.IsDefault,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
