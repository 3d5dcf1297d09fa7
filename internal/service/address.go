package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bulkdrop/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrAddressNotFound is returned when the address does not belong to the user.
var ErrAddressNotFound = errors.New("address not found")

// AddressStore defines the DB methods that touch the default flag.
// Satisfied by *database.Queries (and its WithTx variant).
type AddressStore interface {
	CountSavedAddresses(ctx context.Context, userID uuid.UUID) (int64, error)
	ClearDefaultAddresses(ctx context.Context, userID uuid.UUID) error
	CreateSavedAddress(ctx context.Context, arg database.CreateSavedAddressParams) (database.SavedAddress, error)
	SetDefaultAddress(ctx context.Context, arg database.SetDefaultAddressParams) (database.SavedAddress, error)
}

// NewAddressStore creates an AddressStore from a DBTX (pool or tx).
type NewAddressStore func(db database.DBTX) AddressStore

// AddressService keeps at most one default address per user.
type AddressService struct {
	pool     TxBeginner
	newStore NewAddressStore
}

func NewAddressService(pool TxBeginner, newStore NewAddressStore) *AddressService {
	return &AddressService{pool: pool, newStore: newStore}
}

// Create saves an address. The user's first address is always the default;
// creating another default demotes the previous one in the same transaction.
func (s *AddressService) Create(ctx context.Context, arg database.CreateSavedAddressParams) (database.SavedAddress, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.SavedAddress{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	count, err := store.CountSavedAddresses(ctx, arg.UserID)
	if err != nil {
		return database.SavedAddress{}, fmt.Errorf("count addresses: %w", err)
	}
	if count == 0 {
		arg.IsDefault = true
	}
	if arg.IsDefault && count > 0 {
		if err := store.ClearDefaultAddresses(ctx, arg.UserID); err != nil {
			return database.SavedAddress{}, fmt.Errorf("clear default: %w", err)
		}
	}

	addr, err := store.CreateSavedAddress(ctx, arg)
	if err != nil {
		return database.SavedAddress{}, fmt.Errorf("create address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.SavedAddress{}, fmt.Errorf("commit tx: %w", err)
	}
	return addr, nil
}

// SetDefault makes id the user's only default address.
func (s *AddressService) SetDefault(ctx context.Context, userID, id uuid.UUID) (database.SavedAddress, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.SavedAddress{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if err := store.ClearDefaultAddresses(ctx, userID); err != nil {
		return database.SavedAddress{}, fmt.Errorf("clear default: %w", err)
	}
	addr, err := store.SetDefaultAddress(ctx, database.SetDefaultAddressParams{ID: id, UserID: userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.SavedAddress{}, ErrAddressNotFound
		}
		return database.SavedAddress{}, fmt.Errorf("set default: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.SavedAddress{}, fmt.Errorf("commit tx: %w", err)
	}
	return addr, nil
}
