package codec

import (
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/io"
)

// InputRecord is the parsed content of an identity cell.
type InputRecord struct {
	Exponent  uint32
	Modulus   []byte
	Message   []byte
	Signature []byte
}

// ParseInputRecord slices raw into record fields according to layout. raw
// must be exactly layout.Total() bytes long, nothing is truncated or padded.
// Returned fields don't alias raw.
func ParseInputRecord(raw []byte, layout FieldLayout) (*InputRecord, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if len(raw) != layout.Total() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDataLen, layout.Total(), len(raw))
	}
	var (
		rec = new(InputRecord)
		r   = io.NewBinReaderFromBuf(raw)
	)
	rec.Exponent = r.ReadU32LE()
	rec.Modulus = r.ReadFixed(layout.ModulusLen)
	rec.Message = r.ReadFixed(layout.MessageLen)
	rec.Signature = r.ReadFixed(layout.SignatureLen)
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLen, r.Err)
	}
	return rec, nil
}

// Bytes packs the record back according to layout.
func (rec *InputRecord) Bytes(layout FieldLayout) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if len(rec.Modulus) != layout.ModulusLen || len(rec.Message) != layout.MessageLen ||
		len(rec.Signature) != layout.SignatureLen {
		return nil, fmt.Errorf("%w: record doesn't fit %s", ErrDataLen, layout)
	}
	w := io.NewBufBinWriterSize(layout.Total())
	rec.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Bytes(), nil
}

// EncodeBinary implements io.Encodable. Field lengths are not prefixed.
func (rec *InputRecord) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(rec.Exponent)
	w.WriteBytes(rec.Modulus)
	w.WriteBytes(rec.Message)
	w.WriteBytes(rec.Signature)
}

// Request encodes the record's key and signature into a Verifier Request.
func (rec *InputRecord) Request() (Request, error) {
	return EncodeVerifierRequest(rec.Modulus, rec.Exponent, rec.Signature)
}
