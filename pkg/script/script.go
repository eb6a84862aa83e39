/*
Package script implements the RSA identity scripts. Main checks an identity
record cell, MainSighash checks a transaction signature against a key hash
cell. Both delegate RSA math to the module pinned by content hash.

Every failure is terminal, the host rejects the transaction on any nonzero
exit code. Failures to load the module abort the script with a panic, no
verdict can be given without it.
*/
package script

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/core/interop"
	"github.com/nspcc-dev/rsa-identity/pkg/identity/codec"
	"github.com/nspcc-dev/rsa-identity/pkg/librsa"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"go.uber.org/zap"
)

// Deployment is what a script is compiled with: the record layout and the
// content hash of the trusted verification module.
type Deployment struct {
	Layout       codec.FieldLayout
	VerifierHash util.Uint256
}

// Validate checks the deployment layout.
func (d Deployment) Validate() error {
	return d.Layout.Validate()
}

// Main verifies the identity record stored in the first output of the
// script group with the module the deployment pins.
func Main(ic *interop.Context, d Deployment) error {
	return run(ic, d, func() librsa.Verifier {
		return librsa.MustLoad(ic.DL(), d.VerifierHash)
	})
}

// MainWithVerifier is Main using the given verifier instead of loading one.
func MainWithVerifier(ic *interop.Context, d Deployment, v librsa.Verifier) error {
	return run(ic, d, func() librsa.Verifier { return v })
}

func run(ic *interop.Context, d Deployment, loadVerifier func() librsa.Verifier) error {
	if err := d.Validate(); err != nil {
		panic(fmt.Errorf("invalid deployment: %w", err))
	}
	pinned, err := pinnedKeyHash(ic)
	if err != nil {
		return err
	}
	data, err := ic.LoadCellData(0, interop.SourceGroupOutput)
	if err != nil {
		return hostError(err)
	}
	if len(data) != d.Layout.Total() {
		return fmt.Errorf("%w: expected %d, got %d", ErrDataLen, d.Layout.Total(), len(data))
	}
	rec, err := codec.ParseInputRecord(data, d.Layout)
	if err != nil {
		return codecError(err)
	}

	v := loadVerifier()

	req, err := codec.EncodeVerifierRequest(rec.Modulus, rec.Exponent, rec.Signature)
	if err != nil {
		return codecError(err)
	}
	keyHash, err := v.ValidateSignature(new(librsa.PrefilledData), req, rec.Message)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRSAVerify, err)
	}
	if pinned != nil {
		if len(keyHash) < util.Uint160Size {
			return fmt.Errorf("%w: verifier returned %d bytes", ErrLengthNotEnough, len(keyHash))
		}
		if !bytes.Equal(keyHash[:util.Uint160Size], pinned) {
			return ErrKeyHashMismatch
		}
	}
	ic.Log.Debug("identity record verified",
		zap.Stringer("layout", d.Layout),
		zap.Bool("pinned", pinned != nil))
	return nil
}

// MainSighash verifies that the transaction is signed by the key whose hash
// is stored in the first output of the script group. The signature request
// is carried by the group witness.
func MainSighash(ic *interop.Context, d Deployment) error {
	keyHash, err := loadKeyHash(ic)
	if err != nil {
		return err
	}
	return sighash(ic, keyHash, librsa.MustLoad(ic.DL(), d.VerifierHash))
}

// MainSighashWithVerifier is MainSighash using the given verifier.
func MainSighashWithVerifier(ic *interop.Context, v librsa.Verifier) error {
	keyHash, err := loadKeyHash(ic)
	if err != nil {
		return err
	}
	return sighash(ic, keyHash, v)
}

func loadKeyHash(ic *interop.Context) ([]byte, error) {
	data, err := ic.LoadCellData(0, interop.SourceGroupOutput)
	if err != nil {
		return nil, hostError(err)
	}
	if len(data) != util.Uint160Size {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDataLen, util.Uint160Size, len(data))
	}
	return data, nil
}

func sighash(ic *interop.Context, keyHash []byte, v librsa.Verifier) error {
	if err := v.ValidateRSASighashAll(keyHash); err != nil {
		return fmt.Errorf("%w: %w", ErrRSAVerify, err)
	}
	ic.Log.Debug("transaction signature verified", zap.Stringer("tx", ic.TxHash()))
	return nil
}

// pinnedKeyHash returns the key hash from script args, nil if the script
// accepts any key.
func pinnedKeyHash(ic *interop.Context) ([]byte, error) {
	args := ic.LoadScriptArgs()
	switch len(args) {
	case 0:
		return nil, nil
	case util.Uint160Size:
		return args, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrArgsLen, len(args))
	}
}

func hostError(err error) error {
	if errors.Is(err, interop.ErrIndexOutOfBound) {
		return fmt.Errorf("%w: %w", ErrIndexOutOfBound, err)
	}
	return fmt.Errorf("%w: %w", ErrItemMissing, err)
}

func codecError(err error) error {
	switch {
	case errors.Is(err, codec.ErrDataLen):
		return fmt.Errorf("%w: %w", ErrDataLen, err)
	case errors.Is(err, codec.ErrKeySigLength):
		return fmt.Errorf("%w: %w", ErrRSAPubKeySigLength, err)
	default:
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}
}
