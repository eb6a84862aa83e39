package codec

import (
	"fmt"
	"strings"
)

const (
	// ExponentLen is the length of the public exponent field.
	ExponentLen = 4
	// MessageLen is the length of the signed message field.
	MessageLen = 32
)

// FieldLayout describes the fixed layout of an Input Record. Every
// deployment is bound to exactly one layout, it's never inferred from data.
type FieldLayout struct {
	Name         string
	ExponentLen  int
	ModulusLen   int
	MessageLen   int
	SignatureLen int
}

// Offsets holds cumulative field offsets of a layout.
type Offsets struct {
	Modulus   int
	Message   int
	Signature int
	End       int
}

// Predefined layouts, one per supported RSA key size.
var (
	Layout1024 = newLayout("rsa1024", 128)
	Layout2048 = newLayout("rsa2048", 256)
	Layout4096 = newLayout("rsa4096", 512)
)

var layouts = []FieldLayout{Layout1024, Layout2048, Layout4096}

func newLayout(name string, n int) FieldLayout {
	return FieldLayout{
		Name:         name,
		ExponentLen:  ExponentLen,
		ModulusLen:   n,
		MessageLen:   MessageLen,
		SignatureLen: n,
	}
}

// LayoutByName returns one of the predefined layouts by its name.
func LayoutByName(name string) (FieldLayout, error) {
	for _, l := range layouts {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	return FieldLayout{}, fmt.Errorf("%w: unknown layout %q", ErrLayout, name)
}

// Total returns the record length described by the layout.
func (l FieldLayout) Total() int {
	return l.ExponentLen + l.ModulusLen + l.MessageLen + l.SignatureLen
}

// Offsets returns cumulative offsets of the layout fields.
func (l FieldLayout) Offsets() Offsets {
	var o Offsets
	o.Modulus = l.ExponentLen
	o.Message = o.Modulus + l.ModulusLen
	o.Signature = o.Message + l.MessageLen
	o.End = o.Signature + l.SignatureLen
	return o
}

// Validate checks that the layout describes a record the verifier can
// consume. A layout whose modulus and signature sizes differ is rejected
// here, at deployment time, rather than on every call.
func (l FieldLayout) Validate() error {
	if l.ExponentLen != ExponentLen {
		return fmt.Errorf("%w: exponent length %d", ErrLayout, l.ExponentLen)
	}
	if l.MessageLen != MessageLen {
		return fmt.Errorf("%w: message length %d", ErrLayout, l.MessageLen)
	}
	if l.ModulusLen != l.SignatureLen {
		return fmt.Errorf("%w: modulus length %d, signature length %d", ErrLayout, l.ModulusLen, l.SignatureLen)
	}
	if _, ok := keySizeCode(l.ModulusLen); !ok {
		return fmt.Errorf("%w: unsupported modulus length %d", ErrLayout, l.ModulusLen)
	}
	return nil
}

// String implements fmt.Stringer.
func (l FieldLayout) String() string {
	return fmt.Sprintf("%s(E=%d N=%d M=%d S=%d)", l.Name, l.ExponentLen, l.ModulusLen, l.MessageLen, l.SignatureLen)
}
