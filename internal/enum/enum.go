package enum

// Values below are not database enums; they are validated in Go only.

// ── KYC review decisions ──

const (
	KYCDecisionApprove = "approve"
	KYCDecisionReject  = "reject"
)

// ── Payment methods (free text column) ──

const (
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCredit       = "credit"
)

// ── Realtime event types ──

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderAssigned      = "order.assigned"
)

// IsPaymentMethod reports whether s is an accepted payment method.
func IsPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCOD, PaymentMethodBankTransfer, PaymentMethodCredit:
		return true
	}
	return false
}
