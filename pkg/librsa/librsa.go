/*
Package librsa binds the RSA verification module located by content hash.
It resolves the exported entry points and wraps every call into the module
with buffer size checks done on this side of the boundary.
*/
package librsa

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

// Symbol names exported by the RSA module.
const (
	ValidateSignatureSymbol     = "validate_signature"
	ValidateRSASighashAllSymbol = "validate_rsa_sighash_all"
)

const (
	// PrefilledDataSize is the size of the module scratch buffer.
	PrefilledDataSize = 256
	// OutputCapacity is the size of the output buffer handed to
	// validate_signature.
	OutputCapacity = 1024
)

type (
	// ValidateSignatureFunc is the signature of validate_signature. The
	// module writes at most len(output) bytes to output and reports the
	// number written via outputLen, which holds the capacity on entry.
	ValidateSignatureFunc = func(prefilled []byte, signature []byte, message []byte, output []byte, outputLen *uint64) int32

	// ValidateRSASighashAllFunc is the signature of validate_rsa_sighash_all.
	ValidateRSASighashAllFunc = func(pubKeyHash []byte) int32
)

var (
	// ErrModuleLoad is returned when the module can't be located or linked.
	ErrModuleLoad = errors.New("can't load RSA module")
	// ErrSymbolResolution is returned when an entry point can't be resolved.
	ErrSymbolResolution = errors.New("can't resolve RSA module symbol")
	// ErrVerify is matched by every nonzero module result.
	ErrVerify = errors.New("RSA verification failed")
	// ErrOutputOverflow is returned when the module reports more output than
	// the buffer can hold.
	ErrOutputOverflow = errors.New("module output exceeds buffer capacity")
	// ErrPrefilledData is returned for scratch buffers of the wrong size.
	ErrPrefilledData = errors.New("invalid prefilled data")
)

// CodeError carries the raw nonzero code returned by the module. Codes are
// module-specific and are not interpreted beyond being nonzero.
type CodeError struct {
	Symbol string
	Code   int32
}

// Error implements the error interface.
func (e *CodeError) Error() string {
	return fmt.Sprintf("%s returned %d", e.Symbol, e.Code)
}

// Is makes CodeError match ErrVerify.
func (e *CodeError) Is(target error) bool {
	return target == ErrVerify
}

// PrefilledData is the scratch buffer some module entry points need for
// precomputation. It's opaque to callers.
type PrefilledData struct {
	buf [PrefilledDataSize]byte
}

// Verifier is the capability scripts verify signatures with.
type Verifier interface {
	// ValidateSignature verifies the encoded Verifier Request passed as
	// signature against message and returns the public key hash recovered
	// by the module.
	ValidateSignature(prefilled *PrefilledData, signature []byte, message []byte) ([]byte, error)
	// ValidateRSASighashAll verifies the transaction signature carried in
	// the group witness against the given public key hash.
	ValidateRSASighashAll(pubKeyHash []byte) error
}

// LibRSA is the Verifier backed by a dynamically loaded module.
type LibRSA struct {
	hash                  util.Uint256
	validateSignature     ValidateSignatureFunc
	validateRSASighashAll ValidateRSASighashAllFunc
}

// Load locates the module by its content hash and resolves both entry
// points.
func Load(ctx *dl.Context, h util.Uint256) (*LibRSA, error) {
	lib, err := ctx.Load(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModuleLoad, err)
	}
	vs, err := dl.GetSymbol[ValidateSignatureFunc](lib, ValidateSignatureSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSymbolResolution, err)
	}
	vsa, err := dl.GetSymbol[ValidateRSASighashAllFunc](lib, ValidateRSASighashAllSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSymbolResolution, err)
	}
	return &LibRSA{
		hash:                  h,
		validateSignature:     vs,
		validateRSASighashAll: vsa,
	}, nil
}

// MustLoad is like Load, but panics on failure. A script that can't load
// its verifier can't make any claim, so there is nothing to recover.
func MustLoad(ctx *dl.Context, h util.Uint256) *LibRSA {
	lib, err := Load(ctx, h)
	if err != nil {
		panic(err)
	}
	return lib
}

// Hash returns the content hash of the loaded module.
func (l *LibRSA) Hash() util.Uint256 {
	return l.hash
}

// LoadPrefilledData allocates a fresh scratch buffer.
func (l *LibRSA) LoadPrefilledData() *PrefilledData {
	return new(PrefilledData)
}

// ValidateSignature implements the Verifier interface.
func (l *LibRSA) ValidateSignature(prefilled *PrefilledData, signature []byte, message []byte) ([]byte, error) {
	if prefilled == nil {
		return nil, ErrPrefilledData
	}
	var (
		output    = make([]byte, OutputCapacity)
		outputLen = uint64(OutputCapacity)
	)
	code := l.validateSignature(prefilled.buf[:], signature, message, output, &outputLen)
	if code != 0 {
		return nil, &CodeError{Symbol: ValidateSignatureSymbol, Code: code}
	}
	if outputLen > OutputCapacity {
		return nil, fmt.Errorf("%w: %d", ErrOutputOverflow, outputLen)
	}
	res := make([]byte, outputLen)
	copy(res, output)
	return res, nil
}

// ValidateRSASighashAll implements the Verifier interface.
func (l *LibRSA) ValidateRSASighashAll(pubKeyHash []byte) error {
	if len(pubKeyHash) != util.Uint160Size {
		return fmt.Errorf("%w: public key hash length %d", ErrVerify, len(pubKeyHash))
	}
	h := make([]byte, util.Uint160Size)
	copy(h, pubKeyHash)
	code := l.validateRSASighashAll(h)
	if code != 0 {
		return &CodeError{Symbol: ValidateRSASighashAllSymbol, Code: code}
	}
	return nil
}
