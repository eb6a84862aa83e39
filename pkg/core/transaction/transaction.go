package transaction

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/crypto/hash"
	"github.com/nspcc-dev/rsa-identity/pkg/io"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

const (
	// MaxTransactionSize is the upper limit size in bytes that a transaction can reach.
	MaxTransactionSize = 512 * 1024
	// MaxCellDeps is the maximum number of cell deps per transaction.
	MaxCellDeps = 64
	// MaxOutputs is the maximum number of outputs per transaction.
	MaxOutputs = 1024
	// MaxCellDataSize is the maximum data length of a single cell.
	MaxCellDataSize = 256 * 1024
)

var (
	// ErrInvalidOutputsData is returned when outputs and their data don't match.
	ErrInvalidOutputsData = errors.New("outputs and outputs data count mismatch")
	errInvalidOption      = errors.New("invalid option byte")
)

// Transaction creates cells. Witnesses are not covered by the hash, they
// carry signatures over it.
type Transaction struct {
	Version     uint32     `json:"version"`
	CellDeps    []OutPoint `json:"celldeps"`
	Outputs     []Output   `json:"outputs"`
	OutputsData [][]byte   `json:"outputsdata"`
	Witnesses   [][]byte   `json:"witnesses"`

	hash      util.Uint256
	hashValid bool
}

// New returns a new transaction creating the given outputs.
func New(outputs []Output, data [][]byte) *Transaction {
	return &Transaction{
		Outputs:     outputs,
		OutputsData: data,
	}
}

// Hash returns the hash of the transaction.
func (t *Transaction) Hash() util.Uint256 {
	if !t.hashValid {
		t.hash = hash.Sha256(t.encodeHashableFields())
		t.hashValid = true
	}
	return t.hash
}

// Invalidate resets the cached hash, it must be called after changing
// hashable fields.
func (t *Transaction) Invalidate() {
	t.hashValid = false
}

func (t *Transaction) encodeHashableFields() []byte {
	w := io.NewBufBinWriter()
	t.encodeHashable(w.BinWriter)
	if w.Err != nil {
		panic(w.Err)
	}
	return w.Bytes()
}

func (t *Transaction) encodeHashable(w *io.BinWriter) {
	w.WriteU32LE(t.Version)
	w.WriteVarUint(uint64(len(t.CellDeps)))
	for i := range t.CellDeps {
		t.CellDeps[i].EncodeBinary(w)
	}
	w.WriteVarUint(uint64(len(t.Outputs)))
	for i := range t.Outputs {
		t.Outputs[i].EncodeBinary(w)
	}
	w.WriteVarUint(uint64(len(t.OutputsData)))
	for _, d := range t.OutputsData {
		w.WriteVarBytes(d)
	}
}

// EncodeBinary implements io.Serializable interface.
func (t *Transaction) EncodeBinary(w *io.BinWriter) {
	t.encodeHashable(w)
	w.WriteVarUint(uint64(len(t.Witnesses)))
	for _, wit := range t.Witnesses {
		w.WriteVarBytes(wit)
	}
}

// DecodeBinary implements io.Serializable interface.
func (t *Transaction) DecodeBinary(r *io.BinReader) {
	t.Version = r.ReadU32LE()
	io.ReadArray(r, &t.CellDeps, MaxCellDeps)
	io.ReadArray(r, &t.Outputs, MaxOutputs)
	t.OutputsData = readByteSlices(r, MaxOutputs)
	t.Witnesses = readByteSlices(r, MaxOutputs)
	if r.Err == nil && len(t.Outputs) != len(t.OutputsData) {
		r.Err = ErrInvalidOutputsData
	}
	t.hashValid = false
}

func readByteSlices(r *io.BinReader, max int) [][]byte {
	n := r.ReadVarUint()
	if r.Err != nil {
		return nil
	}
	if n > uint64(max) {
		r.Err = fmt.Errorf("too many elements: %d", n)
		return nil
	}
	res := make([][]byte, n)
	for i := range res {
		res[i] = r.ReadVarBytes(MaxCellDataSize)
	}
	return res
}

// Bytes returns the serialized transaction.
func (t *Transaction) Bytes() ([]byte, error) {
	return io.ToBytes(t)
}

// NewTransactionFromBytes decodes a transaction from the given bytes.
func NewTransactionFromBytes(b []byte) (*Transaction, error) {
	if len(b) > MaxTransactionSize {
		return nil, fmt.Errorf("transaction is too big: %d", len(b))
	}
	tx := new(Transaction)
	if err := io.FromBytes(b, tx); err != nil {
		return nil, err
	}
	return tx, nil
}
