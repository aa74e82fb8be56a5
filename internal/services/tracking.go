package services

import (
	"crypto/rand"
	"time"
)

// trackingAlphabet avoids 0/O and 1/I so numbers survive being read aloud
// at the barangay office counter.
const trackingAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const trackingSuffixLength = 6

// NewTrackingNumber generates a human-referenceable tracking number of the
// form BRGY-20260829-4F7K2Q. The suffix is crypto-random; uniqueness is
// ultimately enforced by the database constraint, callers retry on conflict.
func NewTrackingNumber(now time.Time) (string, error) {
	buf := make([]byte, trackingSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
	}
	return "BRGY-" + now.UTC().Format("20060102") + "-" + string(buf), nil
}
