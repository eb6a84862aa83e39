/*
Package txverifier runs type scripts of a transaction and turns their
results into a verdict on the whole transaction.
*/
package txverifier

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/core/interop"
	"github.com/nspcc-dev/rsa-identity/pkg/core/transaction"
	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/script"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"go.uber.org/zap"
)

var (
	// ErrScriptAborted is returned when a script panics.
	ErrScriptAborted = errors.New("script aborted")
	// ErrUnknownScript is returned for type scripts with no entry.
	ErrUnknownScript = errors.New("unknown script")
)

// Entry is a script entry point.
type Entry func(ic *interop.Context) error

// ScriptError is the rejection by a script group, Index is the first output
// of the group.
type ScriptError struct {
	Index    int
	CodeHash util.Uint256
	Code     int8
	Err      error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s of output %d failed with code %d: %v", e.CodeHash, e.Index, e.Code, e.Err)
}

// Unwrap returns the script error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Verifier runs scripts against transactions.
type Verifier struct {
	// Scripts maps code hashes to entry points.
	Scripts map[util.Uint256]Entry
	Cells   interop.CellResolver
	Linker  *dl.Linker
	Log     *zap.Logger
}

// IdentityEntry returns the entry point of the identity record script.
func IdentityEntry(d script.Deployment) Entry {
	return func(ic *interop.Context) error {
		return script.Main(ic, d)
	}
}

// SighashEntry returns the entry point of the key hash lock script.
func SighashEntry(d script.Deployment) Entry {
	return func(ic *interop.Context) error {
		return script.MainSighash(ic, d)
	}
}

type group struct {
	script  *transaction.Script
	outputs []int
}

// groups collects outputs by their type script in order of appearance.
func groups(tx *transaction.Transaction) []group {
	var res []group
	for i := range tx.Outputs {
		ts := tx.Outputs[i].Type
		if ts == nil {
			continue
		}
		var found bool
		for j := range res {
			if res[j].script.Equals(ts) {
				res[j].outputs = append(res[j].outputs, i)
				found = true
				break
			}
		}
		if !found {
			res = append(res, group{script: ts, outputs: []int{i}})
		}
	}
	return res
}

// VerifyTx runs every script group of the transaction once, the first
// failure rejects the transaction.
func (v *Verifier) VerifyTx(tx *transaction.Transaction) error {
	log := v.Log
	if log == nil {
		log = zap.NewNop()
	}
	for _, g := range groups(tx) {
		entry, ok := v.Scripts[g.script.CodeHash]
		if !ok {
			updateVerdictMetric(resultRejected)
			return fmt.Errorf("%w: %s", ErrUnknownScript, g.script.CodeHash)
		}
		ic := interop.NewContext(tx, g.script, g.outputs, v.Cells, v.Linker, log)
		err := run(entry, ic)
		if err != nil {
			if errors.Is(err, ErrScriptAborted) {
				updateVerdictMetric(resultAborted)
				log.Warn("script aborted",
					zap.Stringer("tx", tx.Hash()),
					zap.Stringer("script", g.script.CodeHash),
					zap.Error(err))
				return err
			}
			updateVerdictMetric(resultRejected)
			serr := &ScriptError{
				Index:    g.outputs[0],
				CodeHash: g.script.CodeHash,
				Code:     script.ExitCode(err),
				Err:      err,
			}
			log.Info("script rejected transaction",
				zap.Stringer("tx", tx.Hash()),
				zap.Int("output", serr.Index),
				zap.Int8("code", serr.Code),
				zap.Error(err))
			return serr
		}
		updateVerdictMetric(resultSuccess)
	}
	verifiedTxs.Inc()
	log.Debug("transaction verified", zap.Stringer("tx", tx.Hash()))
	return nil
}

func run(entry Entry, ic *interop.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrScriptAborted, r)
		}
	}()
	return entry(ic)
}
