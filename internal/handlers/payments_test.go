package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentIntentID(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	intentID, err := newPaymentIntentID(now)
	require.NoError(t, err)

	parts := strings.SplitN(intentID, "_", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "pi", parts[0])
	assert.Equal(t, "1748779200000", parts[1])
	assert.Len(t, parts[2], 9)
}

func TestClientSecretRoundTrip(t *testing.T) {
	intentID, err := newPaymentIntentID(time.Now())
	require.NoError(t, err)

	secret, err := newClientSecret(intentID)
	require.NoError(t, err)

	assert.Equal(t, intentID, intentIDFromSecret(secret))
}

func TestIntentIDFromSecretMalformed(t *testing.T) {
	assert.Equal(t, "", intentIDFromSecret(""))
	assert.Equal(t, "", intentIDFromSecret("pi_123_abc"))
	assert.Equal(t, "", intentIDFromSecret("_secret_xyz"))
	assert.Equal(t, "pi_123_abc", intentIDFromSecret("pi_123_abc_secret_xyz"))
}

func TestNewPaymentIntentIDsDistinct(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		intentID, err := newPaymentIntentID(now)
		require.NoError(t, err)
		assert.False(t, seen[intentID], "duplicate intent ID %s", intentID)
		seen[intentID] = true
	}
}
