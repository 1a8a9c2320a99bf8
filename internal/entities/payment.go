package entities

import "time"

// PaymentResult is what the external payment confirmation reports back.
// The core stores it verbatim, it never talks to a gateway itself.
type PaymentResult struct {
	ID     string
	Status string
	Time   time.Time
	Email  string
}
