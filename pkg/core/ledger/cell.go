package ledger

import (
	"github.com/nspcc-dev/rsa-identity/pkg/core/transaction"
	"github.com/nspcc-dev/rsa-identity/pkg/io"
)

// Cell is a live output along with its data.
type Cell struct {
	OutPoint transaction.OutPoint
	Output   transaction.Output
	Data     []byte
}

// EncodeBinary implements io.Serializable interface. Out point is not
// serialized, it's a part of the key.
func (c *Cell) EncodeBinary(w *io.BinWriter) {
	c.Output.EncodeBinary(w)
	w.WriteVarBytes(c.Data)
}

// DecodeBinary implements io.Serializable interface.
func (c *Cell) DecodeBinary(r *io.BinReader) {
	c.Output.DecodeBinary(r)
	c.Data = r.ReadVarBytes(transaction.MaxCellDataSize)
}
