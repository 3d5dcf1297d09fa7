package auth

import (
	"github.com/bulkdrop/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Actor is the authenticated caller, resolved from the token subject to a
// profile row on every request.
type Actor struct {
	database.Profile
}

// NewActor wraps a loaded profile.
func NewActor(p database.Profile) *Actor {
	return &Actor{Profile: p}
}

func (a *Actor) IsAdmin() bool {
	return a.Role == database.UserRoleAdmin
}

func (a *Actor) IsSuperAdmin() bool {
	return a.IsAdmin() && a.AdminRole.Valid && a.AdminRole.AdminRole == database.AdminRoleSuperAdmin
}

func (a *Actor) IsLogistics() bool {
	return a.Role == database.UserRoleLogistics
}

// HasRegion reports whether the profile is bound to a region.
func (a *Actor) HasRegion() bool {
	return a.RegionID.Valid
}

// Region returns the bound region id; callers check HasRegion first.
func (a *Actor) Region() uuid.UUID {
	return uuid.UUID(a.RegionID.Bytes)
}

// CanAccessRegion reports whether the actor may see rows in regionID.
// Super admins see every region; everyone else only their own.
func (a *Actor) CanAccessRegion(regionID uuid.UUID) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return a.HasRegion() && a.Region() == regionID
}

// RegionScope is the region filter for list queries: NULL (all regions) for
// super admins, the bound region otherwise.
func (a *Actor) RegionScope() pgtype.UUID {
	if a.IsSuperAdmin() {
		return pgtype.UUID{}
	}
	return a.RegionID
}
