/*
Package address converts RSA public key hashes to human-readable identity
addresses and back.
*/
package address

import (
	"errors"

	"github.com/nspcc-dev/rsa-identity/pkg/encoding/base58"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

const (
	// RSAIdentityPrefix is the first byte of an identity address.
	RSAIdentityPrefix = 0x3c
)

// Prefix is the byte used to prepend to addresses when encoding them, it can
// be changed and defaults to 60 (0x3c), the standard RSA identity address
// prefix.
var Prefix = byte(RSAIdentityPrefix)

var errBadAddress = errors.New("wrong address prefix or length")

// Uint160ToString returns the identity address for the given key hash.
func Uint160ToString(u util.Uint160) string {
	// Dont forget to prepend the Address version.
	b := append([]byte{Prefix}, u.BytesBE()...)
	return base58.CheckEncode(b)
}

// StringToUint160 attempts to decode the given address string into a key
// hash.
func StringToUint160(s string) (u util.Uint160, err error) {
	b, err := base58.CheckDecode(s)
	if err != nil {
		return u, err
	}
	if len(b) != util.Uint160Size+1 || b[0] != Prefix {
		return u, errBadAddress
	}
	return util.Uint160DecodeBytes(b[1:])
}
