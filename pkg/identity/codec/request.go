package codec

import (
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/io"
)

// Common header values.
const (
	AlgorithmRSA byte = 1

	KeySize1024 byte = 1
	KeySize2048 byte = 2
	KeySize4096 byte = 3

	PaddingNone byte = 0

	DigestSHA256 byte = 6
)

const (
	// HeaderSize is the size of the common header.
	HeaderSize = 4
	// RequestOverhead is the size of the request without key and signature.
	RequestOverhead = HeaderSize + ExponentLen
)

// Header is the common header of a Verifier Request.
type Header [HeaderSize]byte

// CommonHeader is the only header this script ever produces.
var CommonHeader = Header{AlgorithmRSA, KeySize4096, PaddingNone, DigestSHA256}

// Request is an encoded Verifier Request. It's write-once, never modify
// it after encoding.
type Request []byte

// RequestLen returns the length of a request for an n-byte modulus.
func RequestLen(n int) int {
	return RequestOverhead + 2*n
}

// EncodeVerifierRequest builds a Verifier Request from the public key and
// signature. Modulus and signature lengths are checked before anything is
// allocated.
func EncodeVerifierRequest(modulus []byte, exponent uint32, signature []byte) (Request, error) {
	if len(modulus) != len(signature) {
		return nil, fmt.Errorf("%w: modulus %d, signature %d", ErrKeySigLength, len(modulus), len(signature))
	}
	if len(modulus) == 0 {
		return nil, fmt.Errorf("%w: empty modulus", ErrKeySigLength)
	}
	size := RequestLen(len(modulus))
	w := io.NewBufBinWriterSize(size)
	w.WriteBytes(CommonHeader[:])
	w.WriteU32LE(exponent)
	w.WriteBytes(modulus)
	w.WriteBytes(signature)
	if w.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, w.Err)
	}
	res := w.Bytes()
	if len(res) != size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrEncoding, size, len(res))
	}
	return res, nil
}

// DecodedRequest is the field view of a Verifier Request.
type DecodedRequest struct {
	Header    Header
	Exponent  uint32
	Modulus   []byte
	Signature []byte
}

// DecodeRequest splits a request into its fields. Modulus length is derived
// from the buffer length only, the request must have an even non-zero key
// part.
func DecodeRequest(req []byte) (*DecodedRequest, error) {
	if len(req) <= RequestOverhead || (len(req)-RequestOverhead)%2 != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrRequest, len(req))
	}
	var (
		d = new(DecodedRequest)
		n = (len(req) - RequestOverhead) / 2
		r = io.NewBinReaderFromBuf(req)
	)
	r.ReadBytes(d.Header[:])
	d.Exponent = r.ReadU32LE()
	d.Modulus = r.ReadFixed(n)
	d.Signature = r.ReadFixed(n)
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, r.Err)
	}
	return d, nil
}

// KeySizeBytes returns the maximum modulus length allowed by the header
// key size code.
func (h Header) KeySizeBytes() (int, bool) {
	switch h[1] {
	case KeySize1024:
		return 128, true
	case KeySize2048:
		return 256, true
	case KeySize4096:
		return 512, true
	}
	return 0, false
}

func keySizeCode(n int) (byte, bool) {
	switch n {
	case 128:
		return KeySize1024, true
	case 256:
		return KeySize2048, true
	case 512:
		return KeySize4096, true
	}
	return 0, false
}
