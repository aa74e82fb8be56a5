package services

import "strings"

// Canonical request statuses. Anything read from the database goes through
// NormalizeStatus before comparison; display formatting is presentation only.
const (
	StatusPending        = "pending"
	StatusProcessing     = "processing"
	StatusReadyForPickup = "ready_for_pickup"
	StatusCompleted      = "completed"
	StatusRejected       = "rejected"
	StatusCancelled      = "cancelled"
)

// legacyStatusMap maps tokens written by older code paths to canonical ones.
var legacyStatusMap = map[string]string{
	"declined":         StatusRejected,
	"ready_for_pickup": StatusReadyForPickup,
	"readyforpickup":   StatusReadyForPickup,
	"canceled":         StatusCancelled,
}

var validStatuses = map[string]bool{
	StatusPending:        true,
	StatusProcessing:     true,
	StatusReadyForPickup: true,
	StatusCompleted:      true,
	StatusRejected:       true,
	StatusCancelled:      true,
}

// terminal statuses admit no further transitions
var terminalStatuses = map[string]bool{
	StatusCompleted: true,
	StatusRejected:  true,
	StatusCancelled: true,
}

// NormalizeStatus lowercases, snake_cases and maps legacy tokens
// ("Declined", "Ready for Pickup") to their canonical form. Empty input
// normalizes to pending, matching rows created before the status column
// had a default.
func NormalizeStatus(status string) string {
	if strings.TrimSpace(status) == "" {
		return StatusPending
	}
	normalized := strings.ToLower(strings.TrimSpace(status))
	normalized = strings.Join(strings.Fields(normalized), "_")
	if mapped, ok := legacyStatusMap[normalized]; ok {
		return mapped
	}
	return normalized
}

// FormatStatus renders a canonical status for display: snake_case to
// Title Case with spaces ("ready_for_pickup" -> "Ready For Pickup").
func FormatStatus(status string) string {
	if status == "" {
		return ""
	}
	words := strings.Split(strings.ToLower(status), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// IsValidStatus reports whether s is a canonical status token.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// IsTerminalStatus reports whether s admits no further transitions.
func IsTerminalStatus(s string) bool {
	return terminalStatuses[NormalizeStatus(s)]
}

// CanStaffTransition reports whether staff may move a request from current to
// next. Staff may set any non-cancelled status from any non-terminal state;
// terminal states are immutable.
func CanStaffTransition(current, next string) bool {
	current = NormalizeStatus(current)
	next = NormalizeStatus(next)
	if !validStatuses[next] || next == StatusCancelled {
		return false
	}
	return !terminalStatuses[current]
}

// CanResidentCancel reports whether a resident may self-cancel a request in
// the given state. Cancellation is only reachable from pending or processing.
func CanResidentCancel(current string) bool {
	current = NormalizeStatus(current)
	return current == StatusPending || current == StatusProcessing
}
