package enums

import "fmt"

// EscrowReleaseCondition decides when held funds become releasable.
type EscrowReleaseCondition string

const (
	ReleaseOnServiceCompleted EscrowReleaseCondition = "service_completed"
	ReleaseOnTimeElapsed      EscrowReleaseCondition = "time_based"
	ReleaseManually           EscrowReleaseCondition = "manual"
)

var validReleaseConditions = []EscrowReleaseCondition{
	ReleaseOnServiceCompleted,
	ReleaseOnTimeElapsed,
	ReleaseManually,
}

// String implements fmt.Stringer.
func (c EscrowReleaseCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known release condition.
func (c EscrowReleaseCondition) IsValid() bool {
	for _, candidate := range validReleaseConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseEscrowReleaseCondition converts raw input into an EscrowReleaseCondition.
func ParseEscrowReleaseCondition(value string) (EscrowReleaseCondition, error) {
	for _, candidate := range validReleaseConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escrow release condition %q", value)
}
