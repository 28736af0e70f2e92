package enums

import "fmt"

// PaymentEventType names the domain events recorded in the outbox when the
// webhook reconciler applies a transition.
type PaymentEventType string

const (
	PaymentEventCompleted       PaymentEventType = "payment.completed"
	PaymentEventFailed          PaymentEventType = "payment.failed"
	PaymentEventCancelled       PaymentEventType = "payment.cancelled"
	PaymentEventRefundInitiated PaymentEventType = "payment.refund_initiated"
	PaymentEventRefundCompleted PaymentEventType = "payment.refund_completed"
	PaymentEventPayoutCompleted PaymentEventType = "payment.payout_completed"
	PaymentEventPayoutFailed    PaymentEventType = "payment.payout_failed"
)

var validPaymentEventTypes = []PaymentEventType{
	PaymentEventCompleted,
	PaymentEventFailed,
	PaymentEventCancelled,
	PaymentEventRefundInitiated,
	PaymentEventRefundCompleted,
	PaymentEventPayoutCompleted,
	PaymentEventPayoutFailed,
}

// String implements fmt.Stringer.
func (p PaymentEventType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentEventType.
func (p PaymentEventType) IsValid() bool {
	for _, candidate := range validPaymentEventTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentEventType converts raw input into a PaymentEventType.
func ParsePaymentEventType(value string) (PaymentEventType, error) {
	for _, candidate := range validPaymentEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment event type %q", value)
}
