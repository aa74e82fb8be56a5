package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, -7), periodStart("7d", now))
	assert.Equal(t, now.AddDate(0, 0, -30), periodStart("30d", now))
	assert.Equal(t, now.AddDate(0, 0, -90), periodStart("90d", now))
	assert.Equal(t, now.AddDate(-1, 0, 0), periodStart("1y", now))

	// unknown periods fall back to 30 days
	assert.Equal(t, now.AddDate(0, 0, -30), periodStart("", now))
	assert.Equal(t, now.AddDate(0, 0, -30), periodStart("all-time", now))
}

func TestMonthStart(t *testing.T) {
	assert.Equal(t,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		monthStart(time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		monthStart(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}
