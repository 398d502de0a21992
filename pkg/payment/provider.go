package payment

import (
	"context"
	"errors"
	"fmt"
)

// ErrCaptureNotFound indicates the provider has no record of the capture
var ErrCaptureNotFound = errors.New("payment capture not found")

// Capture is the provider's record of a completed payment
type Capture struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
}

// Provider verifies that a payment reference handed in at checkout
// corresponds to a real completed capture
type Provider interface {
	VerifyCapture(ctx context.Context, reference string, expectedAmount float64) (*Capture, error)
}

// AcceptAllProvider accepts any non-empty reference without contacting
// a provider. Used in development and tests.
type AcceptAllProvider struct{}

// VerifyCapture echoes the reference back as a completed capture
func (AcceptAllProvider) VerifyCapture(ctx context.Context, reference string, expectedAmount float64) (*Capture, error) {
	if reference == "" {
		return nil, fmt.Errorf("empty payment reference")
	}
	return &Capture{
		Reference: reference,
		Amount:    expectedAmount,
		Currency:  "EUR",
		Status:    "completed",
	}, nil
}
