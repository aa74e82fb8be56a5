package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackingNumberFormat(t *testing.T) {
	now := time.Date(2025, 3, 7, 15, 4, 5, 0, time.UTC)

	tn, err := NewTrackingNumber(now)
	require.NoError(t, err)

	parts := strings.Split(tn, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "BRGY", parts[0])
	assert.Equal(t, "20250307", parts[1])
	assert.Len(t, parts[2], 6)
}

func TestNewTrackingNumberUsesUTCDate(t *testing.T) {
	manila := time.FixedZone("PHT", 8*3600)
	// 03:00 in Manila is still the previous day in UTC
	now := time.Date(2025, 3, 8, 3, 0, 0, 0, manila)

	tn, err := NewTrackingNumber(now)
	require.NoError(t, err)
	assert.Contains(t, tn, "-20250307-")
}

func TestNewTrackingNumberSuffixAlphabet(t *testing.T) {
	now := time.Now()
	for i := 0; i < 50; i++ {
		tn, err := NewTrackingNumber(now)
		require.NoError(t, err)

		suffix := tn[strings.LastIndex(tn, "-")+1:]
		for _, ch := range suffix {
			assert.NotContains(t, "0O1I", string(ch), "ambiguous character in %s", tn)
			assert.True(t, (ch >= 'A' && ch <= 'Z') || (ch >= '2' && ch <= '9'), "unexpected character %q in %s", ch, tn)
		}
	}
}

func TestNewTrackingNumberVaries(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tn, err := NewTrackingNumber(now)
		require.NoError(t, err)
		seen[tn] = true
	}
	// 31^6 possibilities; 100 draws colliding down to a handful would mean
	// the suffix is not random at all
	assert.Greater(t, len(seen), 90)
}
