// Package receipt provides per-dispatch delivery receipts.
package receipt

import (
	"time"

	"github.com/kart-io/chatpush/pkg/event"
)

// Status constants
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// ProviderResult represents the outcome of one provider's send attempt.
type ProviderResult struct {
	Provider string        `json:"provider"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Receipt aggregates the fan-out outcome for one dispatched notification.
type Receipt struct {
	Notification event.Notification `json:"notification"`
	Results      []ProviderResult   `json:"results"`
	Successful   int                `json:"successful"`
	Failed       int                `json:"failed"`
	Status       string             `json:"status"`
	Timestamp    time.Time          `json:"timestamp"`
}

// New creates a pending receipt for the given notification.
func New(n event.Notification) *Receipt {
	return &Receipt{
		Notification: n,
		Results:      make([]ProviderResult, 0),
		Status:       StatusPending,
		Timestamp:    time.Now(),
	}
}

// AddResult records one provider's outcome and refreshes counters.
func (r *Receipt) AddResult(result ProviderResult) {
	r.Results = append(r.Results, result)
	r.Successful = 0
	r.Failed = 0
	for _, res := range r.Results {
		if res.Success {
			r.Successful++
		} else {
			r.Failed++
		}
	}
	r.updateStatus()
}

func (r *Receipt) updateStatus() {
	switch {
	case len(r.Results) == 0:
		r.Status = StatusPending
	case r.Failed == 0:
		r.Status = StatusSuccess
	case r.Successful == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
}

// Services returns the names of providers that succeeded.
func (r *Receipt) Services() []string {
	names := make([]string, 0, r.Successful)
	for _, res := range r.Results {
		if res.Success {
			names = append(names, res.Provider)
		}
	}
	return names
}

// Errors returns the error messages of failed provider attempts.
func (r *Receipt) Errors() []string {
	errs := make([]string, 0, r.Failed)
	for _, res := range r.Results {
		if !res.Success && res.Error != "" {
			errs = append(errs, res.Error)
		}
	}
	return errs
}
