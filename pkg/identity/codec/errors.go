package codec

import "errors"

var (
	// ErrDataLen is returned when the record length doesn't match the layout.
	ErrDataLen = errors.New("invalid record length")
	// ErrLayout is returned for layouts that can't describe a valid record.
	ErrLayout = errors.New("invalid field layout")
	// ErrKeySigLength is returned when modulus and signature lengths differ.
	ErrKeySigLength = errors.New("public key and signature length mismatch")
	// ErrEncoding is returned when an encoded request doesn't have the
	// expected length.
	ErrEncoding = errors.New("encoding error")
	// ErrRequest is returned when a request can't be decoded.
	ErrRequest = errors.New("malformed verifier request")
)
