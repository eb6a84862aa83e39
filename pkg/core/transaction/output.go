package transaction

import (
	"github.com/nspcc-dev/rsa-identity/pkg/io"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

// MaxArgsSize is the maximum length of script arguments.
const MaxArgsSize = 1024

// Script identifies the code run for a cell and its arguments.
type Script struct {
	CodeHash util.Uint256 `json:"codehash"`
	Args     []byte       `json:"args"`
}

// Output is a cell created by a transaction.
type Output struct {
	Capacity uint64  `json:"capacity"`
	Lock     Script  `json:"lock"`
	Type     *Script `json:"type,omitempty"`
}

// Equals reports whether both scripts have the same code and arguments.
func (s *Script) Equals(other *Script) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.CodeHash == other.CodeHash && string(s.Args) == string(other.Args)
}

// EncodeBinary implements io.Serializable interface.
func (s *Script) EncodeBinary(w *io.BinWriter) {
	s.CodeHash.EncodeBinary(w)
	w.WriteVarBytes(s.Args)
}

// DecodeBinary implements io.Serializable interface.
func (s *Script) DecodeBinary(r *io.BinReader) {
	s.CodeHash.DecodeBinary(r)
	s.Args = r.ReadVarBytes(MaxArgsSize)
}

// EncodeBinary implements io.Serializable interface.
func (o *Output) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(o.Capacity)
	o.Lock.EncodeBinary(w)
	w.WriteBool(o.Type != nil)
	if o.Type != nil {
		o.Type.EncodeBinary(w)
	}
}

// DecodeBinary implements io.Serializable interface.
func (o *Output) DecodeBinary(r *io.BinReader) {
	o.Capacity = r.ReadU64LE()
	o.Lock.DecodeBinary(r)
	switch r.ReadB() {
	case 0:
		o.Type = nil
	case 1:
		o.Type = new(Script)
		o.Type.DecodeBinary(r)
	default:
		if r.Err == nil {
			r.Err = errInvalidOption
		}
	}
}
