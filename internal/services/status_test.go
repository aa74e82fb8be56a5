package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"":                 StatusPending,
		"  ":               StatusPending,
		"pending":          StatusPending,
		"Pending":          StatusPending,
		"PROCESSING":       StatusProcessing,
		"Ready for Pickup": StatusReadyForPickup,
		"ready_for_pickup": StatusReadyForPickup,
		"readyforpickup":   StatusReadyForPickup,
		"Declined":         StatusRejected,
		"declined":         StatusRejected,
		"canceled":         StatusCancelled,
		"Cancelled":        StatusCancelled,
		" completed ":      StatusCompleted,
	}

	for input, want := range cases {
		assert.Equal(t, want, NormalizeStatus(input), "input %q", input)
	}
}

func TestNormalizeStatusIdempotent(t *testing.T) {
	inputs := []string{"", "Pending", "Declined", "Ready for Pickup", "canceled", "completed"}
	for _, input := range inputs {
		once := NormalizeStatus(input)
		assert.Equal(t, once, NormalizeStatus(once), "input %q", input)
	}
}

func TestFormatStatusRoundTrip(t *testing.T) {
	for status := range validStatuses {
		formatted := FormatStatus(status)
		assert.Equal(t, status, NormalizeStatus(formatted), "status %q formatted as %q", status, formatted)
	}
	assert.Equal(t, "Ready For Pickup", FormatStatus(StatusReadyForPickup))
	assert.Equal(t, "Pending", FormatStatus(StatusPending))
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusProcessing, StatusReadyForPickup, StatusCompleted, StatusRejected, StatusCancelled} {
		assert.True(t, IsValidStatus(s), s)
	}
	for _, s := range []string{"Declined", "archived", "ready for pickup", ""} {
		assert.False(t, IsValidStatus(s), s)
	}
}

func TestCanStaffTransition(t *testing.T) {
	nonTerminal := []string{StatusPending, StatusProcessing, StatusReadyForPickup}
	terminal := []string{StatusCompleted, StatusRejected, StatusCancelled}

	for _, current := range nonTerminal {
		for _, next := range []string{StatusPending, StatusProcessing, StatusReadyForPickup, StatusCompleted, StatusRejected} {
			assert.True(t, CanStaffTransition(current, next), "%s -> %s", current, next)
		}
		// cancellation belongs to the resident
		assert.False(t, CanStaffTransition(current, StatusCancelled), "%s -> cancelled", current)
	}

	for _, current := range terminal {
		for _, next := range []string{StatusPending, StatusProcessing, StatusReadyForPickup, StatusCompleted, StatusRejected, StatusCancelled} {
			assert.False(t, CanStaffTransition(current, next), "%s -> %s", current, next)
		}
	}

	// legacy tokens normalize before the check
	assert.False(t, CanStaffTransition("Declined", StatusProcessing))
	assert.True(t, CanStaffTransition("Ready for Pickup", StatusCompleted))
	assert.False(t, CanStaffTransition(StatusPending, "archived"))
}

func TestCanResidentCancel(t *testing.T) {
	assert.True(t, CanResidentCancel(StatusPending))
	assert.True(t, CanResidentCancel(StatusProcessing))
	assert.True(t, CanResidentCancel("")) // unset status reads as pending

	assert.False(t, CanResidentCancel(StatusReadyForPickup))
	assert.False(t, CanResidentCancel(StatusCompleted))
	assert.False(t, CanResidentCancel(StatusRejected))
	assert.False(t, CanResidentCancel(StatusCancelled))
	assert.False(t, CanResidentCancel("canceled"))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus("Declined"))
	assert.True(t, IsTerminalStatus("canceled"))
	assert.False(t, IsTerminalStatus(StatusPending))
	assert.False(t, IsTerminalStatus("Ready for Pickup"))
}
