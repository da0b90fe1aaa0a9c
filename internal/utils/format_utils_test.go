package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestFormatMillis(t *testing.T) {
	assert.Equal(t, "N/A", FormatMillis(nil))
	assert.Equal(t, "20.00", FormatMillis(ptr(20)))
	assert.Equal(t, "1.23", FormatMillis(ptr(1.2345)))
}

func TestFormatRaw(t *testing.T) {
	assert.Equal(t, "N/A", FormatRaw(nil))
	assert.Equal(t, "20", FormatRaw(ptr(20)))
	assert.Equal(t, "12.5", FormatRaw(ptr(12.5)))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m05s", FormatDuration(125*time.Second))
}
