package config

import (
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/identity/codec"
	"github.com/nspcc-dev/rsa-identity/pkg/native/rsalib"
	"github.com/nspcc-dev/rsa-identity/pkg/script"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

// DefaultLayout is the record layout used when none is configured.
const DefaultLayout = "rsa4096"

// ProtocolConfiguration describes how identity scripts are deployed.
type ProtocolConfiguration struct {
	// Layout is the record layout name, see codec.LayoutByName.
	Layout string `yaml:"Layout"`
	// VerifierCodeHash is the content hash of the RSA module image. The
	// reference module hash is used if empty.
	VerifierCodeHash string `yaml:"VerifierCodeHash"`
	// IdentityCodeHash is the code hash the identity record script runs
	// under.
	IdentityCodeHash string `yaml:"IdentityCodeHash"`
	// SighashCodeHash is the code hash of the key hash lock script.
	SighashCodeHash string `yaml:"SighashCodeHash"`
}

// Validate checks the layout and the hashes.
func (p ProtocolConfiguration) Validate() error {
	if _, err := p.Deployment(); err != nil {
		return err
	}
	_, _, err := p.CodeHashes()
	return err
}

// Deployment returns the script deployment described by the configuration.
func (p ProtocolConfiguration) Deployment() (script.Deployment, error) {
	layout, err := codec.LayoutByName(p.Layout)
	if err != nil {
		return script.Deployment{}, err
	}
	if err := layout.Validate(); err != nil {
		return script.Deployment{}, err
	}
	h := rsalib.ContentHash()
	if p.VerifierCodeHash != "" {
		h, err = util.Uint256DecodeString(p.VerifierCodeHash)
		if err != nil {
			return script.Deployment{}, fmt.Errorf("bad VerifierCodeHash: %w", err)
		}
	}
	return script.Deployment{Layout: layout, VerifierHash: h}, nil
}

// CodeHashes returns identity and sighash script code hashes, zero hashes
// are returned for the ones not set.
func (p ProtocolConfiguration) CodeHashes() (util.Uint256, util.Uint256, error) {
	var identity, sighash util.Uint256
	var err error
	if p.IdentityCodeHash != "" {
		identity, err = util.Uint256DecodeString(p.IdentityCodeHash)
		if err != nil {
			return identity, sighash, fmt.Errorf("bad IdentityCodeHash: %w", err)
		}
	}
	if p.SighashCodeHash != "" {
		sighash, err = util.Uint256DecodeString(p.SighashCodeHash)
		if err != nil {
			return identity, sighash, fmt.Errorf("bad SighashCodeHash: %w", err)
		}
	}
	return identity, sighash, nil
}
