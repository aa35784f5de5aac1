package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/chatpush/pkg/event"
)

func TestReceiptStatusTransitions(t *testing.T) {
	r := New(event.Notification{Title: "t"})
	assert.Equal(t, StatusPending, r.Status)

	r.AddResult(ProviderResult{Provider: "a", Success: true})
	assert.Equal(t, StatusSuccess, r.Status)

	r.AddResult(ProviderResult{Provider: "b", Success: false, Error: "boom"})
	assert.Equal(t, StatusPartial, r.Status)
	assert.Equal(t, 1, r.Successful)
	assert.Equal(t, 1, r.Failed)
}

func TestReceiptAllFailed(t *testing.T) {
	r := New(event.Notification{})
	r.AddResult(ProviderResult{Provider: "a", Success: false, Error: "x"})
	r.AddResult(ProviderResult{Provider: "b", Success: false, Error: "y"})
	assert.Equal(t, StatusFailed, r.Status)
	assert.Empty(t, r.Services())
	assert.Equal(t, []string{"x", "y"}, r.Errors())
}

func TestReceiptServices(t *testing.T) {
	r := New(event.Notification{})
	r.AddResult(ProviderResult{Provider: "pushover", Success: true})
	r.AddResult(ProviderResult{Provider: "webhook", Success: false, Error: "e"})
	r.AddResult(ProviderResult{Provider: "gotify", Success: true})
	assert.Equal(t, []string{"pushover", "gotify"}, r.Services())
}
