/*
Package hash contains wrappers for the hash functions used across the ledger:
SHA-256 for content and transaction hashes and SHA-256+RIPEMD-160 for
public key hashes.
*/
package hash

import (
	"crypto/sha256"

	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is part of the key hash format.
)

// Sha256 hashes the incoming byte slice using the sha256 algorithm.
func Sha256(data []byte) util.Uint256 {
	return sha256.Sum256(data)
}

// DoubleSha256 performs sha256 twice on the given data.
func DoubleSha256(data []byte) util.Uint256 {
	h1 := Sha256(data)
	return Sha256(h1[:])
}

// RipeMD160 performs the RIPEMD160 hash algorithm on the given data.
func RipeMD160(data []byte) util.Uint160 {
	var h util.Uint160
	hasher := ripemd160.New()
	_, _ = hasher.Write(data)
	copy(h[:], hasher.Sum(nil))
	return h
}

// Hash160 performs sha256 and then ripemd160 on the given data.
func Hash160(data []byte) util.Uint160 {
	h1 := Sha256(data)
	return RipeMD160(h1[:])
}

// Checksum returns the checksum for a given piece of data using sha256
// twice as the hash algorithm.
func Checksum(data []byte) []byte {
	h := DoubleSha256(data)
	return h[:4]
}
