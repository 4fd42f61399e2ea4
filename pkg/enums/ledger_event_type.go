package enums

import "fmt"

// LedgerEventType classifies immutable audit events on a payment.
type LedgerEventType string

const (
	LedgerPaymentCreated  LedgerEventType = "payment_created"
	LedgerPaymentCaptured LedgerEventType = "payment_captured"
	LedgerPaymentFailed   LedgerEventType = "payment_failed"
	LedgerEscrowPlaced    LedgerEventType = "escrow_placed"
	LedgerEscrowReady     LedgerEventType = "escrow_ready_for_release"
	LedgerEscrowReleased  LedgerEventType = "escrow_released"
	LedgerEscrowCancelled LedgerEventType = "escrow_cancelled"
	LedgerPayoutInitiated LedgerEventType = "payout_initiated"
	LedgerPayoutCompleted LedgerEventType = "payout_completed"
	LedgerPayoutFailed    LedgerEventType = "payout_failed"
)

var validLedgerEventTypes = []LedgerEventType{
	LedgerPaymentCreated,
	LedgerPaymentCaptured,
	LedgerPaymentFailed,
	LedgerEscrowPlaced,
	LedgerEscrowReady,
	LedgerEscrowReleased,
	LedgerEscrowCancelled,
	LedgerPayoutInitiated,
	LedgerPayoutCompleted,
	LedgerPayoutFailed,
}

// String implements fmt.Stringer.
func (t LedgerEventType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LedgerEventType.
func (t LedgerEventType) IsValid() bool {
	for _, candidate := range validLedgerEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEventType converts raw input into a LedgerEventType.
func ParseLedgerEventType(value string) (LedgerEventType, error) {
	for _, candidate := range validLedgerEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger event type %q", value)
}
