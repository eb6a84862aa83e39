package transaction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nspcc-dev/rsa-identity/pkg/io"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

// OutPoint references an output of a transaction.
type OutPoint struct {
	TxHash util.Uint256 `json:"txhash"`
	Index  uint32       `json:"index"`
}

// EncodeBinary implements io.Serializable interface.
func (p *OutPoint) EncodeBinary(w *io.BinWriter) {
	p.TxHash.EncodeBinary(w)
	w.WriteU32LE(p.Index)
}

// DecodeBinary implements io.Serializable interface.
func (p *OutPoint) DecodeBinary(r *io.BinReader) {
	p.TxHash.DecodeBinary(r)
	p.Index = r.ReadU32LE()
}

// String implements fmt.Stringer.
func (p OutPoint) String() string {
	return fmt.Sprintf("%s:%d", p.TxHash, p.Index)
}

// OutPointFromString parses the "<hash>:<index>" form produced by String.
func OutPointFromString(s string) (OutPoint, error) {
	var p OutPoint
	h, idx, ok := strings.Cut(s, ":")
	if !ok {
		return p, fmt.Errorf("bad out point %q: no index", s)
	}
	u, err := util.Uint256DecodeString(h)
	if err != nil {
		return p, fmt.Errorf("bad out point %q: %w", s, err)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return p, fmt.Errorf("bad out point %q: %w", s, err)
	}
	p.TxHash, p.Index = u, uint32(i)
	return p, nil
}
