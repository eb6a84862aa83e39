package io

import (
	"encoding/binary"
	"io"
)

// BinWriter writes little-endian fields into an io.Writer. The first write
// error is kept in Err and turns all subsequent writes into no-ops, so
// encoders check it once at the end.
type BinWriter struct {
	w   io.Writer
	Err error
	buf [binary.MaxVarintLen64]byte
}

// WriteU64LE writes a little-endian uint64.
func (w *BinWriter) WriteU64LE(v uint64) {
	w.WriteBytes(binary.LittleEndian.AppendUint64(w.buf[:0], v))
}

// WriteU32LE writes a little-endian uint32.
func (w *BinWriter) WriteU32LE(v uint32) {
	w.WriteBytes(binary.LittleEndian.AppendUint32(w.buf[:0], v))
}

// WriteB writes a single byte.
func (w *BinWriter) WriteB(b byte) {
	w.WriteBytes(append(w.buf[:0], b))
}

// WriteBool writes 1 for true and 0 for false.
func (w *BinWriter) WriteBool(b bool) {
	if b {
		w.WriteB(1)
	} else {
		w.WriteB(0)
	}
}

// WriteVarUint writes v as a variable-length integer: values below 0xfd take
// one byte, larger ones a 0xfd, 0xfe or 0xff marker followed by 2, 4 or 8
// little-endian bytes.
func (w *BinWriter) WriteVarUint(v uint64) {
	b := w.buf[:0]
	switch {
	case v < 0xfd:
		b = append(b, byte(v))
	case v < 0xffff:
		b = binary.LittleEndian.AppendUint16(append(b, 0xfd), uint16(v))
	case v < 0xffffffff:
		b = binary.LittleEndian.AppendUint32(append(b, 0xfe), uint32(v))
	default:
		b = binary.LittleEndian.AppendUint64(append(b, 0xff), v)
	}
	w.WriteBytes(b)
}

// WriteBytes writes b as is, with no length prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteVarBytes writes b prefixed with its length.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	w.WriteBytes(b)
}

// WriteString writes s prefixed with its length.
func (w *BinWriter) WriteString(s string) {
	w.WriteVarUint(uint64(len(s)))
	if w.Err != nil {
		return
	}
	_, w.Err = io.WriteString(w.w, s)
}
