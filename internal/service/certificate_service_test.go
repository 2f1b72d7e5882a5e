package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var certificateIDPattern = regexp.MustCompile(`^CERT-[0-9A-F]{32}$`)

func TestNewCertificateIDFormat(t *testing.T) {
	id := newCertificateID()
	assert.Regexp(t, certificateIDPattern, id)
}

func TestNewCertificateIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := newCertificateID()
		assert.False(t, seen[id], "duplicate certificate id %s", id)
		seen[id] = true
	}
}
