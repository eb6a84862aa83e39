package util

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Uint160Size is the size of Uint160 in bytes.
const Uint160Size = 20

// Uint160 is a 20 byte long unsigned integer, used as a public key hash.
type Uint160 [Uint160Size]uint8

// Uint160DecodeString attempts to decode the given hex string into a Uint160.
func Uint160DecodeString(s string) (u Uint160, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint160Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Uint160Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint160DecodeBytes(b)
}

// Uint160DecodeBytes attempts to decode the given bytes into a Uint160.
func Uint160DecodeBytes(b []byte) (u Uint160, err error) {
	if len(b) != Uint160Size {
		return u, fmt.Errorf("expected byte size of %d got %d", Uint160Size, len(b))
	}
	copy(u[:], b)
	return
}

// BytesBE returns the byte slice representation of u.
func (u Uint160) BytesBE() []byte {
	return u[:]
}

// Equals returns true if both Uint160 values are the same.
func (u Uint160) Equals(other Uint160) bool {
	return u == other
}

// String implements the stringer interface.
func (u Uint160) String() string {
	return hex.EncodeToString(u[:])
}

// StringPrefixed returns the hex representation of u with 0x prefix.
func (u Uint160) StringPrefixed() string {
	return "0x" + u.String()
}
