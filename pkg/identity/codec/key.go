package codec

import (
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/rsa-identity/pkg/crypto/hash"
	"github.com/nspcc-dev/rsa-identity/pkg/io"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

// NewInputRecord builds a record for the given public key, message and
// signature. The modulus is stored little-endian, zero-padded to the layout
// modulus length.
func NewInputRecord(pub *rsa.PublicKey, message, signature []byte, layout FieldLayout) (*InputRecord, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if pub.E <= 0 || uint64(pub.E) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("%w: exponent %d doesn't fit", ErrEncoding, pub.E)
	}
	n := pub.N.Bytes()
	if len(n) > layout.ModulusLen {
		return nil, fmt.Errorf("%w: %d-byte modulus doesn't fit %s", ErrDataLen, len(n), layout)
	}
	if len(message) != layout.MessageLen || len(signature) != layout.SignatureLen {
		return nil, fmt.Errorf("%w: message %d, signature %d for %s", ErrDataLen, len(message), len(signature), layout)
	}
	mod := make([]byte, layout.ModulusLen)
	copy(mod, util.ReversedCopy(n))
	return &InputRecord{
		Exponent:  uint32(pub.E),
		Modulus:   mod,
		Message:   append([]byte{}, message...),
		Signature: append([]byte{}, signature...),
	}, nil
}

// PublicKey converts a little-endian modulus and exponent into an RSA
// public key.
func PublicKey(exponent uint32, modulus []byte) *rsa.PublicKey {
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(util.ReversedCopy(modulus)),
		E: int(exponent),
	}
}

// KeyHash returns the identifier of a public key: Hash160 of the exponent
// (uint32 LE) followed by the little-endian modulus, exactly as they're laid
// out in a Verifier Request.
func KeyHash(exponent uint32, modulus []byte) util.Uint160 {
	w := io.NewBufBinWriterSize(ExponentLen + len(modulus))
	w.WriteU32LE(exponent)
	w.WriteBytes(modulus)
	return hash.Hash160(w.Bytes())
}

// KeyHash returns the identifier of the record public key.
func (rec *InputRecord) KeyHash() util.Uint160 {
	return KeyHash(rec.Exponent, rec.Modulus)
}
