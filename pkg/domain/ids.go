package domain

import (
	"fmt"
	"strings"
)

// Address identifies a caller account (seeker, employer, or administrator).
// Addresses are opaque hex strings in the 0x-prefixed form used by the
// attestation signer. The zero value means "no address".
//
// Usage: construct via ParseAddress at trust boundaries to enforce the
// format; direct casting bypasses validation.
type Address string

// ParseAddress validates and returns an Address.
// Returns an error when the value is empty or not 0x-prefixed hex-style.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("address cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") || len(s) < 3 {
		return "", fmt.Errorf("address must be 0x-prefixed: %q", s)
	}
	return Address(s), nil
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

// ClaimID identifies one experience claim. IDs are assigned monotonically
// starting at 1; zero is the "does not exist" sentinel and is never assigned.
type ClaimID uint64

// IsZero reports whether the id is the reserved sentinel.
func (c ClaimID) IsZero() bool { return c == 0 }

func (c ClaimID) String() string { return fmt.Sprintf("%d", uint64(c)) }

// CredentialID is the attestation signer's identifier for a signed
// credential. Zero signals rejection by the signer.
type CredentialID uint64

func (c CredentialID) IsZero() bool { return c == 0 }

// SchemaID names the claim schema registered with the attestation signer.
type SchemaID string

func (s SchemaID) IsZero() bool { return s == "" }

// Email identifies an employer that has not yet registered an address.
type Email string

// ParseEmail validates and returns an Email. Addresses are lowercased so
// index lookups are case-insensitive.
func ParseEmail(s string) (Email, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", fmt.Errorf("email cannot be empty")
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return "", fmt.Errorf("malformed email: %q", s)
	}
	return Email(s), nil
}

func (e Email) String() string { return string(e) }

func (e Email) IsZero() bool { return e == "" }

// Handle is a human-readable verifiable name bound to an address through a
// naming service (for example "alice.eth"). Resolution is out of scope; the
// registry only stores handles for display next to raw addresses.
type Handle string

func (h Handle) String() string { return string(h) }

func (h Handle) IsZero() bool { return h == "" }
