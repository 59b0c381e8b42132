package enums

import "fmt"

// PaymentRecordStatus is the outcome of a single payment attempt. A completed
// record is what flips the owning order's PaymentStatus to paid.
type PaymentRecordStatus string

const (
	PaymentRecordStatusPending   PaymentRecordStatus = "pending"
	PaymentRecordStatusCompleted PaymentRecordStatus = "completed"
	PaymentRecordStatusFailed    PaymentRecordStatus = "failed"
	PaymentRecordStatusRefunded  PaymentRecordStatus = "refunded"
)

var validPaymentRecordStatuses = []PaymentRecordStatus{
	PaymentRecordStatusPending,
	PaymentRecordStatusCompleted,
	PaymentRecordStatusFailed,
	PaymentRecordStatusRefunded,
}

// String implements fmt.Stringer.
func (s PaymentRecordStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentRecordStatus.
func (s PaymentRecordStatus) IsValid() bool {
	for _, candidate := range validPaymentRecordStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentRecordStatus converts raw input into a PaymentRecordStatus.
func ParsePaymentRecordStatus(value string) (PaymentRecordStatus, error) {
	for _, candidate := range validPaymentRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment record status %q", value)
}
