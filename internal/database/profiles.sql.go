package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createProfile = `-- name: CreateProfile :one
INSERT INTO profiles (id, email, full_name, phone, role, admin_role, region_id, kyc_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, email, full_name, phone, business_name, business_type, tax_id, role, admin_role, region_id, kyc_status, kyc_rejection_reason, kyc_submitted_at, kyc_reviewed_at, kyc_reviewed_by, created_at, updated_at
`

type CreateProfileParams struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Phone     pgtype.Text
	Role      UserRole
	AdminRole NullAdminRole
	RegionID  pgtype.UUID
	KycStatus KycStatus
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	row := q.db.QueryRow(ctx, createProfile,
		arg.ID,
		arg.Email,
		arg.FullName,
		arg.Phone,
		arg.Role,
		arg.AdminRole,
		arg.RegionID,
		arg.KycStatus,
	)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.FullName,
		&i.Phone,
		&i.BusinessName,
		&i.BusinessType,
		&i.TaxID,
		&i.Role,
		&i.AdminRole,
		&i.RegionID,
		&i.KycStatus,
		&i.KycRejectionReason,
		&i.KycSubmittedAt,
		&i.KycReviewedAt,
		&i.KycReviewedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getProfile = `-- name: GetProfile :one
SELECT id, email, full_name, phone, business_name, business_type, tax_id, role, admin_role, region_id, kyc_status, kyc_rejection_reason, kyc_submitted_at, kyc_reviewed_at, kyc_reviewed_by, created_at, updated_at FROM profiles WHERE id = $1
`

func (q *Queries) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfile, id)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.FullName,
		&i.Phone,
		&i.BusinessName,
		&i.BusinessType,
		&i.TaxID,
		&i.Role,
		&i.AdminRole,
		&i.RegionID,
		&i.KycStatus,
		&i.KycRejectionReason,
		&i.KycSubmittedAt,
		&i.KycReviewedAt,
		&i.KycReviewedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listLogisticsPartners = `-- name: ListLogisticsPartners :many
SELECT id, email, full_name, phone, business_name, business_type, tax_id, role, admin_role, region_id, kyc_status, kyc_rejection_reason, kyc_submitted_at, kyc_reviewed_at, kyc_reviewed_by, created_at, updated_at FROM profiles
WHERE role = 'logistics'
  AND ($1::uuid IS NULL OR region_id = $1::uuid)
ORDER BY full_name
`

func (q *Queries) ListLogisticsPartners(ctx context.Context, regionID pgtype.UUID) ([]Profile, error) {
	rows, err := q.db.Query(ctx, listLogisticsPartners, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Profile{}
	for rows.Next() {
		var i Profile
		if err := rows.Scan(
			&i.ID,
			&i.Email,
			&i.FullName,
			&i.Phone,
			&i.BusinessName,
			&i.BusinessType,
			&i.TaxID,
			&i.Role,
			&i.AdminRole,
			&i.RegionID,
			&i.KycStatus,
			&i.KycRejectionReason,
			&i.KycSubmittedAt,
			&i.KycReviewedAt,
			&i.KycReviewedBy,
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

const listProfiles = `-- name: ListProfiles :many
SELECT id, email, full_name, phone, business_name, business_type, tax_id, role, admin_role, region_id, kyc_status, kyc_rejection_reason, kyc_submitted_at, kyc_reviewed_at, kyc_reviewed_by, created_at, updated_at FROM profiles
WHERE ($1::uuid IS NULL OR region_id = $1::uuid)
  AND ($2::user_role IS NULL OR role = $2::user_role)
  AND ($3::kyc_status IS NULL OR kyc_status = $3::kyc_status)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`

type ListProfilesParams struct {
	RegionID  pgtype.UUID
	Role      NullUserRole
	KycStatus NullKycStatus
	Limit     int32
	Offset    int32
}

func (q *Queries) ListProfiles(ctx context.Context, arg ListProfilesParams) ([]Profile, error) {
	rows, err := q.db.Query(ctx, listProfiles,
		arg.RegionID,
		arg.Role,
		arg.KycStatus,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Profile{}
	for rows.Next() {
		var i Profile
		if err := rows.Scan(
			&i.ID,
			&i.Email,
			&i.FullName,
			&i.Phone,
			&i.BusinessName,
			&i.BusinessType,
			&i.TaxID,
			&i.Role,
			&i.AdminRole,
			&i.RegionID,
			&i.KycStatus,
			&i.KycRejectionReason,
			&i.KycSubmittedAt,
			&i.KycReviewedAt,
			&i.KycReviewedBy,
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

const reviewKyc = `-- name: ReviewKyc :one
UPDATE profiles
SET kyc_status = $2,
    kyc_rejection_reason = $3,
    kyc_reviewed_by = $4,
    kyc_reviewed_at = NOW(),
    updated_at = NOW()
WHERE id = $1 AND kyc_status = 'pending'
RETURNING id, email, full_name, phone, business_name, business_type, tax_id, role, admin_role, region_id, kyc_status, kyc_rejection_reason, kyc_submitted_at, kyc_reviewed_at, kyc_reviewed_by, created_at, updated_at
`

type ReviewKycParams struct {
	ID                 uuid.UUID
	KycStatus          KycStatus
	KycRejectionReason pgtype.Text
	KycReviewedBy      pgtype.UUID
}

func (q *Queries) ReviewKyc(ctx context.Context, arg ReviewKycParams) (Profile, error) {
	row := q.db.QueryRow(ctx, reviewKyc,
		arg.ID,
		arg.KycStatus,
		arg.KycRejectionReason,
		arg.KycReviewedBy,
	)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.FullName,
		&i.Phone,
		&i.BusinessName,
		&i.BusinessType,
		&i.TaxID,
		&i.Role,
		&i.AdminRole,
		&i.RegionID,
		&i.KycStatus,
		&i.KycRejectionReason,
		&i.KycSubmittedAt,
		&i.KycReviewedAt,
		&i.KycReviewedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const submitKyc = `-- name: SubmitKyc :one
UPDATE profiles
SET business_name = $2,
    business_type = $3,
    tax_id = $4,
    kyc_status = 'pending',
    kyc_rejection_reason = NULL,
    kyc_submitted_at = NOW(),
    updated_at = NOW()
WHERE id = $1 AND kyc_status <> 'approved'
RETURNING id, email, full_name, phone, business_name, business_type, tax_id, role, admin_role, region_id, kyc_status, kyc_rejection_reason, kyc_submitted_at, kyc_reviewed_at, kyc_reviewed_by, created_at, updated_at
`

type SubmitKycParams struct {
	ID           uuid.UUID
	BusinessName pgtype.Text
	BusinessType pgtype.Text
	TaxID        pgtype.Text
}

func (q *Queries) SubmitKyc(ctx context.Context, arg SubmitKycParams) (Profile, error) {
	row := q.db.QueryRow(ctx, submitKyc,
		arg.ID,
		arg.BusinessName,
		arg.BusinessType,
		arg.TaxID,
	)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.FullName,
		&i.Phone,
		&i.BusinessName,
		&i.BusinessType,
		&i.TaxID,
		&i.Role,
		&i.AdminRole,
		&i.RegionID,
		&i.KycStatus,
		&i.KycRejectionReason,
		&i.KycSubmittedAt,
		&i.KycReviewedAt,
		&i.KycReviewedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateProfile = `-- name: UpdateProfile :one
UPDATE profiles
SET full_name = $2,
    phone = $3,
    business_name = $4,
    business_type = $5,
    tax_id = $6,
    region_id = COALESCE(region_id, $7),
    updated_at = NOW()
WHERE id = $1
RETURNING id, email, full_name, phone, business_name, business_type, tax_id, role, admin_role, region_id, kyc_status, kyc_rejection_reason, kyc_submitted_at, kyc_reviewed_at, kyc_reviewed_by, created_at, updated_at
`

type UpdateProfileParams struct {
	ID           uuid.UUID
	FullName     string
	Phone        pgtype.Text
	BusinessName pgtype.Text
	BusinessType pgtype.Text
	TaxID        pgtype.Text
	RegionID     pgtype.UUID
}

func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (Profile, error) {
	row := q.db.QueryRow(ctx, updateProfile,
		arg.ID,
		arg.FullName,
		arg.Phone,
		arg.BusinessName,
		arg.BusinessType,
		arg.TaxID,
		arg.RegionID,
	)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.FullName,
		&i.Phone,
		&i.BusinessName,
		&i.BusinessType,
		&i.TaxID,
		&i.Role,
		&i.AdminRole,
		&i.RegionID,
		&i.KycStatus,
		&i.KycRejectionReason,
		&i.KycSubmittedAt,
		&i.KycReviewedAt,
		&i.KycReviewedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateProfileRole = `-- name: UpdateProfileRole :one
UPDATE profiles
SET role = $2, admin_role = $3, region_id = $4, updated_at = NOW()
WHERE id = $1
RETURNING id, email, full_name, phone, business_name, business_type, tax_id, role, admin_role, region_id, kyc_status, kyc_rejection_reason, kyc_submitted_at, kyc_reviewed_at, kyc_reviewed_by, created_at, updated_at
`

type UpdateProfileRoleParams struct {
	ID        uuid.UUID
	Role      UserRole
	AdminRole NullAdminRole
	RegionID  pgtype.UUID
}

func (q *Queries) UpdateProfileRole(ctx context.Context, arg UpdateProfileRoleParams) (Profile, error) {
	row := q.db.QueryRow(ctx, updateProfileRole,
		arg.ID,
		arg.Role,
		arg.AdminRole,
		arg.RegionID,
	)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.FullName,
		&i.Phone,
		&i.BusinessName,
		&i.BusinessType,
		&i.TaxID,
		&i.Role,
		&i.AdminRole,
		&i.RegionID,
		&i.KycStatus,
		&i.KycRejectionReason,
		&i.KycSubmittedAt,
		&i.KycReviewedAt,
		&i.KycReviewedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
