package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2025, 8, 31, 14, 5, 0, 0, time.UTC)
	n := GenerateOrderNumber(now)

	assert.Len(t, n, 12)
	assert.Equal(t, "2508311405", n[:10])
	for _, r := range n {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z'),
			"unexpected character %q in order number %s", r, n)
	}
}

func TestGenerateUUID(t *testing.T) {
	a := GenerateUUID()
	b := GenerateUUID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
