/*
Package interop contains the host primitives available to scripts during
transaction verification.
*/
package interop

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/core/transaction"
	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"go.uber.org/zap"
)

// Source selects the set of cells an index refers to.
type Source byte

// Sources supported by LoadCellData and LoadWitness.
const (
	// SourceOutput indexes all transaction outputs.
	SourceOutput Source = iota + 1
	// SourceGroupOutput indexes outputs of the current script group.
	SourceGroupOutput
	// SourceCellDep indexes transaction cell deps.
	SourceCellDep
)

var (
	// ErrIndexOutOfBound is returned when the index is beyond the source.
	ErrIndexOutOfBound = errors.New("index out of bound")
	// ErrItemMissing is returned when the item referenced can't be found.
	ErrItemMissing = errors.New("item missing")
	// ErrInvalidSource is returned for unknown or unsupported sources.
	ErrInvalidSource = errors.New("invalid source")
)

// CellResolver provides data of live cells.
type CellResolver interface {
	LoadCellData(op transaction.OutPoint) ([]byte, error)
}

// Context represents context in which scripts are executed.
type Context struct {
	Tx *transaction.Transaction
	// Script is the script being run.
	Script *transaction.Script
	// Group contains output indexes of the script group.
	Group  []int
	Cells  CellResolver
	Linker *dl.Linker
	Log    *zap.Logger
}

// NewContext returns new interop context.
func NewContext(tx *transaction.Transaction, script *transaction.Script, group []int, cells CellResolver, linker *dl.Linker, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		Tx:     tx,
		Script: script,
		Group:  group,
		Cells:  cells,
		Linker: linker,
		Log:    log,
	}
}

func (ic *Context) outputIndex(index int, src Source) (int, error) {
	switch src {
	case SourceOutput:
		if index < 0 || index >= len(ic.Tx.Outputs) {
			return 0, ErrIndexOutOfBound
		}
		return index, nil
	case SourceGroupOutput:
		if index < 0 || index >= len(ic.Group) {
			return 0, ErrIndexOutOfBound
		}
		return ic.Group[index], nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidSource, src)
	}
}

// LoadCellData returns the data of the cell with the given index in the
// source.
func (ic *Context) LoadCellData(index int, src Source) ([]byte, error) {
	if src == SourceCellDep {
		if index < 0 || index >= len(ic.Tx.CellDeps) {
			return nil, ErrIndexOutOfBound
		}
		if ic.Cells == nil {
			return nil, ErrItemMissing
		}
		data, err := ic.Cells.LoadCellData(ic.Tx.CellDeps[index])
		if err != nil {
			return nil, fmt.Errorf("%w: cell dep %s: %v", ErrItemMissing, ic.Tx.CellDeps[index], err)
		}
		return data, nil
	}
	i, err := ic.outputIndex(index, src)
	if err != nil {
		return nil, err
	}
	if i >= len(ic.Tx.OutputsData) {
		return nil, ErrItemMissing
	}
	return ic.Tx.OutputsData[i], nil
}

// LoadWitness returns the witness of the output with the given index in the
// source. Cell deps have no witnesses.
func (ic *Context) LoadWitness(index int, src Source) ([]byte, error) {
	i, err := ic.outputIndex(index, src)
	if err != nil {
		return nil, err
	}
	if i >= len(ic.Tx.Witnesses) || len(ic.Tx.Witnesses[i]) == 0 {
		return nil, ErrItemMissing
	}
	return ic.Tx.Witnesses[i], nil
}

// LoadScriptArgs returns the arguments of the running script.
func (ic *Context) LoadScriptArgs() []byte {
	if ic.Script == nil {
		return nil
	}
	return ic.Script.Args
}

// TxHash implements dl.Env interface.
func (ic *Context) TxHash() util.Uint256 {
	return ic.Tx.Hash()
}

// GroupWitness implements dl.Env interface.
func (ic *Context) GroupWitness(i int) ([]byte, error) {
	return ic.LoadWitness(i, SourceGroupOutput)
}

// CellDepCount implements dl.CellDataLoader interface.
func (ic *Context) CellDepCount() int {
	return len(ic.Tx.CellDeps)
}

// LoadCellDepData implements dl.CellDataLoader interface.
func (ic *Context) LoadCellDepData(i int) ([]byte, error) {
	return ic.LoadCellData(i, SourceCellDep)
}

// DL returns a fresh dynamic loading context for the script run.
func (ic *Context) DL() *dl.Context {
	return dl.NewContext(ic, ic.Linker, ic, ic.Log)
}
