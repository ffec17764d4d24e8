package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("  0xabc123  ")
	require.NoError(t, err)
	assert.Equal(t, Address("0xabc123"), addr)

	for _, bad := range []string{"", "   ", "abc123", "0x", "1xabc"} {
		_, err := ParseAddress(bad)
		assert.Errorf(t, err, "input %q", bad)
	}
}

func TestClaimIDZeroSentinel(t *testing.T) {
	assert.True(t, ClaimID(0).IsZero())
	assert.False(t, ClaimID(1).IsZero())
	assert.Equal(t, "42", ClaimID(42).String())
}

func TestParseEmail(t *testing.T) {
	email, err := ParseEmail("  HR@Initech.Example ")
	require.NoError(t, err)
	assert.Equal(t, Email("hr@initech.example"), email)

	for _, bad := range []string{"", "no-at-sign", "@host", "user@"} {
		_, err := ParseEmail(bad)
		assert.Errorf(t, err, "input %q", bad)
	}
}

func TestZeroValues(t *testing.T) {
	assert.True(t, Address("").IsZero())
	assert.True(t, Email("").IsZero())
	assert.True(t, Handle("").IsZero())
	assert.True(t, SchemaID("").IsZero())
	assert.True(t, CredentialID(0).IsZero())
	assert.False(t, CredentialID(7).IsZero())
}
