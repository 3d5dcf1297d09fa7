package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AdminRole string

const (
	AdminRoleSuperAdmin    AdminRole = "super_admin"
	AdminRoleRegionalAdmin AdminRole = "regional_admin"
)

func (e *AdminRole) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = AdminRole(s)
	case string:
		*e = AdminRole(s)
	default:
		return fmt.Errorf("unsupported scan type for AdminRole: %T", src)
	}
	return nil
}

type NullAdminRole struct {
	AdminRole AdminRole
	Valid     bool // Valid is true if AdminRole is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullAdminRole) Scan(value interface{}) error {
	if value == nil {
		ns.AdminRole, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.AdminRole.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullAdminRole) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.AdminRole), nil
}

type KycStatus string

const (
	KycStatusPending  KycStatus = "pending"
	KycStatusApproved KycStatus = "approved"
	KycStatusRejected KycStatus = "rejected"
)

func (e *KycStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = KycStatus(s)
	case string:
		*e = KycStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for KycStatus: %T", src)
	}
	return nil
}

type NullKycStatus struct {
	KycStatus KycStatus
	Valid     bool // Valid is true if KycStatus is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullKycStatus) Scan(value interface{}) error {
	if value == nil {
		ns.KycStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.KycStatus.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullKycStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.KycStatus), nil
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

type NullOrderStatus struct {
	OrderStatus OrderStatus
	Valid       bool // Valid is true if OrderStatus is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullOrderStatus) Scan(value interface{}) error {
	if value == nil {
		ns.OrderStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.OrderStatus.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullOrderStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.OrderStatus), nil
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (e *PaymentStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = PaymentStatus(s)
	case string:
		*e = PaymentStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for PaymentStatus: %T", src)
	}
	return nil
}

type NullPaymentStatus struct {
	PaymentStatus PaymentStatus
	Valid         bool // Valid is true if PaymentStatus is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullPaymentStatus) Scan(value interface{}) error {
	if value == nil {
		ns.PaymentStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.PaymentStatus.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullPaymentStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.PaymentStatus), nil
}

type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleAdmin     UserRole = "admin"
	UserRoleLogistics UserRole = "logistics"
)

func (e *UserRole) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = UserRole(s)
	case string:
		*e = UserRole(s)
	default:
		return fmt.Errorf("unsupported scan type for UserRole: %T", src)
	}
	return nil
}

type NullUserRole struct {
	UserRole UserRole
	Valid    bool // Valid is true if UserRole is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullUserRole) Scan(value interface{}) error {
	if value == nil {
		ns.UserRole, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.UserRole.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullUserRole) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.UserRole), nil
}

type Order struct {
	ID                   uuid.UUID
	OrderNumber          string
	UserID               uuid.UUID
	RegionID             uuid.UUID
	Status               OrderStatus
	PaymentStatus        PaymentStatus
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
	AssignedTo           pgtype.UUID
	AssignedAt           pgtype.Timestamptz
	DeliveredAt          pgtype.Timestamptz
	CancelledAt          pgtype.Timestamptz
	CancellationReason   pgtype.Text
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type OrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        pgtype.UUID
	ProductName      string
	ProductSku       pgtype.Text
	Quantity         int32
	Price            pgtype.Numeric
	PricePerQuantity pgtype.Numeric
	Total            pgtype.Numeric
	CreatedAt        time.Time
}

type Product struct {
	ID               uuid.UUID
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
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Profile struct {
	ID                 uuid.UUID
	Email              string
	FullName           string
	Phone              pgtype.Text
	BusinessName       pgtype.Text
	BusinessType       pgtype.Text
	TaxID              pgtype.Text
	Role               UserRole
	AdminRole          NullAdminRole
	RegionID           pgtype.UUID
	KycStatus          KycStatus
	KycRejectionReason pgtype.Text
	KycSubmittedAt     pgtype.Timestamptz
	KycReviewedAt      pgtype.Timestamptz
	KycReviewedBy      pgtype.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Region struct {
	ID           uuid.UUID
	Name         string
	Code         string
	SupportEmail pgtype.Text
	SupportPhone pgtype.Text
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SavedAddress struct {
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
	IsDefault    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
