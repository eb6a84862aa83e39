/*
Package rsalib is the reference native RSA verification module. It's what
the content hash compiled into identity scripts pins, hosts register it in
their linker and deploy its image as a cell dep.
*/
package rsalib

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/identity/codec"
	"github.com/nspcc-dev/rsa-identity/pkg/librsa"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

const (
	// Entry is the name the implementation is linked under.
	Entry = "rsa"
	// Compiler is written into the module image header.
	Compiler = "rsa-identity"
	// Version is the module image version.
	Version = "0.1.0"
)

// Module error codes.
const (
	ErrorBadRequest        int32 = 1
	ErrorUnsupportedHeader int32 = 2
	ErrorInvalidKey        int32 = 3
	ErrorVerifyFailed      int32 = 4
	ErrorOutputTooSmall    int32 = 5
	ErrorWitnessMissing    int32 = 6
	ErrorKeyHashMismatch   int32 = 7
)

var code = []byte("validate_signature_rsa")

// Image returns the module image.
func Image() *dl.Image {
	img, err := dl.NewImage(Compiler, Version, Entry,
		[]string{librsa.ValidateSignatureSymbol, librsa.ValidateRSASighashAllSymbol}, code)
	if err != nil {
		panic(err)
	}
	return img
}

// ImageBytes returns the serialized module image, that's what gets deployed.
func ImageBytes() []byte {
	b, err := Image().Bytes()
	if err != nil {
		panic(err)
	}
	return b
}

// ContentHash returns the content hash of the module image.
func ContentHash() util.Uint256 {
	return dl.ContentHash(ImageBytes())
}

// Register installs the implementation into the linker.
func Register(l *dl.Linker) {
	l.Register(Entry, New)
}

type module struct {
	env dl.Env
}

// New instantiates the module for the given host.
func New(env dl.Env) dl.Symbols {
	m := &module{env: env}
	return dl.Symbols{
		librsa.ValidateSignatureSymbol:     librsa.ValidateSignatureFunc(m.validateSignature),
		librsa.ValidateRSASighashAllSymbol: librsa.ValidateRSASighashAllFunc(m.validateRSASighashAll),
	}
}

func (m *module) validateSignature(_ []byte, signature []byte, message []byte, output []byte, outputLen *uint64) int32 {
	keyHash, res := verify(signature, message)
	if res != 0 {
		return res
	}
	if outputLen == nil || *outputLen < util.Uint160Size || uint64(len(output)) < util.Uint160Size {
		return ErrorOutputTooSmall
	}
	copy(output, keyHash[:])
	*outputLen = util.Uint160Size
	return 0
}

func (m *module) validateRSASighashAll(pubKeyHash []byte) int32 {
	w, err := m.env.GroupWitness(0)
	if err != nil || len(w) == 0 {
		return ErrorWitnessMissing
	}
	txHash := m.env.TxHash()
	keyHash, res := verify(w, txHash.BytesBE())
	if res != 0 {
		return res
	}
	if len(pubKeyHash) != util.Uint160Size || string(keyHash[:]) != string(pubKeyHash) {
		return ErrorKeyHashMismatch
	}
	return 0
}

func verify(req []byte, message []byte) (util.Uint160, int32) {
	d, err := codec.DecodeRequest(req)
	if err != nil {
		return util.Uint160{}, ErrorBadRequest
	}
	h := d.Header
	maxN, ok := h.KeySizeBytes()
	if !ok || h[0] != codec.AlgorithmRSA || h[2] != codec.PaddingNone || h[3] != codec.DigestSHA256 {
		return util.Uint160{}, ErrorUnsupportedHeader
	}
	if len(d.Modulus) > maxN {
		return util.Uint160{}, ErrorUnsupportedHeader
	}
	if d.Exponent < 3 || d.Exponent%2 == 0 {
		return util.Uint160{}, ErrorInvalidKey
	}
	pub := codec.PublicKey(d.Exponent, d.Modulus)
	if pub.N.Sign() == 0 || pub.Size() != len(d.Signature) {
		return util.Uint160{}, ErrorInvalidKey
	}
	digest := sha256.Sum256(message)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], d.Signature); err != nil {
		return util.Uint160{}, ErrorVerifyFailed
	}
	return codec.KeyHash(d.Exponent, d.Modulus), 0
}
