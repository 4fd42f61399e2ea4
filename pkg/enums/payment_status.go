package enums

import "fmt"

// PaymentStatus tracks the escrow lifecycle of a ticket payment.
type PaymentStatus string

const (
	PaymentStatusCreated         PaymentStatus = "created"
	PaymentStatusPaid            PaymentStatus = "paid"
	PaymentStatusFailed          PaymentStatus = "failed"
	PaymentStatusInEscrow        PaymentStatus = "in_escrow"
	PaymentStatusEscrowReady     PaymentStatus = "escrow_ready_for_release"
	PaymentStatusEscrowReleased  PaymentStatus = "escrow_released"
	PaymentStatusPayoutInitiated PaymentStatus = "payout_initiated"
	PaymentStatusPayoutCompleted PaymentStatus = "payout_completed"
	PaymentStatusPayoutFailed    PaymentStatus = "payout_failed"
	PaymentStatusCancelled       PaymentStatus = "cancelled"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusCreated,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusInEscrow,
	PaymentStatusEscrowReady,
	PaymentStatusEscrowReleased,
	PaymentStatusPayoutInitiated,
	PaymentStatusPayoutCompleted,
	PaymentStatusPayoutFailed,
	PaymentStatusCancelled,
}

// statusRank orders statuses along the forward-only lifecycle. Webhook
// deliveries are at-least-once and unordered; a mutation is applied only when
// the current rank is strictly below the target rank. "failed" shares a rank
// with "paid" so a stale payment.failed can never clobber a captured payment.
var statusRank = map[PaymentStatus]int{
	PaymentStatusCreated:         1,
	PaymentStatusPaid:            2,
	PaymentStatusFailed:          2,
	PaymentStatusInEscrow:        3,
	PaymentStatusEscrowReady:     4,
	PaymentStatusEscrowReleased:  5,
	PaymentStatusPayoutInitiated: 6,
	PaymentStatusPayoutFailed:    6,
	PaymentStatusPayoutCompleted: 7,
	PaymentStatusCancelled:       7,
}

// allowedTransitions is the closed transition table. Every mutation site
// consults it; anything absent here is a state conflict.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCreated:         {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:            {PaymentStatusInEscrow, PaymentStatusFailed},
	PaymentStatusInEscrow:        {PaymentStatusEscrowReady, PaymentStatusEscrowReleased, PaymentStatusCancelled},
	PaymentStatusEscrowReady:     {PaymentStatusEscrowReleased},
	PaymentStatusEscrowReleased:  {PaymentStatusPayoutInitiated},
	PaymentStatusPayoutInitiated: {PaymentStatusPayoutCompleted, PaymentStatusPayoutFailed},
	PaymentStatusPayoutFailed:    {PaymentStatusPayoutInitiated},
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (p PaymentStatus) IsTerminal() bool {
	return len(allowedTransitions[p]) == 0
}

// Rank returns the monotonic position of the status in the lifecycle.
func (p PaymentStatus) Rank() int {
	return statusRank[p]
}

// CanTransitionTo reports whether the transition table permits moving from p
// to target.
func (p PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, candidate := range allowedTransitions[p] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
