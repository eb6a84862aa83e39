package io

// Serializable defines the binary encoding/decoding interface. Errors are
// returned via BinReader/BinWriter Err field. These functions must have safe
// behavior when the passed BinReader/BinWriter with Err is already set. Invocations
// to these functions tend to be nested, with this mechanism only the top-level
// caller should handle an error once and all the other code should just not
// panic while there is an error.
type Serializable interface {
	Encodable
	Decodable
}

// Encodable is the encoding part of Serializable.
type Encodable interface {
	EncodeBinary(*BinWriter)
}

// Decodable is the decoding part of Serializable.
type Decodable interface {
	DecodeBinary(*BinReader)
}

// ToBytes serializes s into a newly allocated byte slice.
func ToBytes(s Encodable) ([]byte, error) {
	w := NewBufBinWriter()
	s.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Bytes(), nil
}

// FromBytes deserializes s from data requiring all of data to be consumed.
func FromBytes(data []byte, s Decodable) error {
	r := NewBinReaderFromBuf(data)
	s.DecodeBinary(r)
	if r.Err != nil {
		return r.Err
	}
	if r.Len() != 0 {
		return ErrTrailingData
	}
	return nil
}
