package payments

import (
	"fmt"

	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"

	"github.com/consultdesk/consultdesk-backend/pkg/enums"
)

// EnsureTransition validates a status move against the transition table and
// returns a state-conflict error naming both states when it is not legal.
func EnsureTransition(current, target enums.PaymentStatus) error {
	if current.CanTransitionTo(target) {
		return nil
	}
	return pkgerrors.New(
		pkgerrors.CodeStateConflict,
		fmt.Sprintf("payment cannot move from %s to %s", current, target),
	)
}
