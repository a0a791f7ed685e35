package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExtractIntLiteralValueRoundTrips exercises both extension
// interpretations for all four literal widths: a negative-under-
// sign-extension bit pattern (all ones in the declared width) must
// sign-extend to -1 and zero-extend to the width's maximum unsigned
// value, the bit-exact round-trip §8's Boundary behaviors name for
// extract_int_literal_value.
func TestExtractIntLiteralValueRoundTrips(t *testing.T) {
	cases := []struct {
		name           string
		width          IntWidth
		allOnes        uint64
		wantSignExtend int64
		wantZeroExtend int64
	}{
		{"int8", IntWidth8, 0xFF, -1, 0xFF},
		{"int16", IntWidth16, 0xFFFF, -1, 0xFFFF},
		{"int32", IntWidth32, 0xFFFFFFFF, -1, 0xFFFFFFFF},
		{"int64", IntWidth64, 0xFFFFFFFFFFFFFFFF, -1, -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := IntLiteralPayload{Width: c.width, Value: c.allOnes}
			assert.Equal(t, c.wantSignExtend, p.ExtractIntLiteralValue(true))
			assert.Equal(t, c.wantZeroExtend, p.ExtractIntLiteralValue(false))
		})
	}
}

// TestExtractIntLiteralValuePreservesPositiveValues covers the
// non-boundary case: a value that fits as a positive number under
// either interpretation returns identically regardless of extension
// mode, for every width.
func TestExtractIntLiteralValuePreservesPositiveValues(t *testing.T) {
	cases := []struct {
		name  string
		width IntWidth
		value uint64
	}{
		{"int8", IntWidth8, 42},
		{"int16", IntWidth16, 1000},
		{"int32", IntWidth32, 123456},
		{"int64", IntWidth64, 9876543210},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := IntLiteralPayload{Width: c.width, Value: c.value}
			assert.Equal(t, int64(c.value), p.ExtractIntLiteralValue(true))
			assert.Equal(t, int64(c.value), p.ExtractIntLiteralValue(false))
		})
	}
}

// TestExtractIntLiteralValueViaNode exercises the accessor through an
// actual IntLiteral node's Payload, the shape callers use in practice.
func TestExtractIntLiteralValueViaNode(t *testing.T) {
	a := NewArena(Config{})
	neg1AsI8 := NewIntLiteral(a, IntWidth8, 0xFF)
	p := neg1AsI8.Payload.(IntLiteralPayload)
	assert.Equal(t, int64(-1), p.ExtractIntLiteralValue(true))
	assert.Equal(t, int64(0xFF), p.ExtractIntLiteralValue(false))
}
