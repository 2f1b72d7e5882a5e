package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCertificateValid(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	c := &Certificate{ID: "CERT-ABC"}
	assert.True(t, c.Valid(now), "no expiry means valid forever")

	expiry := now.Add(24 * time.Hour)
	c.ExpiryDate = &expiry
	assert.True(t, c.Valid(now))
	assert.False(t, c.Valid(expiry))
	assert.False(t, c.Valid(expiry.Add(time.Hour)))
}
