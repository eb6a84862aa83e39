package script

import (
	"errors"
)

// Script verdict errors. Each one has a stable exit code reported to the
// host, see ExitCode.
var (
	ErrIndexOutOfBound    = errors.New("index out of bound")
	ErrItemMissing        = errors.New("item missing")
	ErrLengthNotEnough    = errors.New("length not enough")
	ErrEncoding           = errors.New("encoding error")
	ErrDataLen            = errors.New("cell data length mismatch")
	ErrRSAPubKeySigLength = errors.New("RSA public key and signature length mismatch")
	ErrRSAVerify          = errors.New("RSA verification failed")
	ErrArgsLen            = errors.New("invalid script args length")
	ErrKeyHashMismatch    = errors.New("public key hash mismatch")
)

// ExitCodeUnknown is returned by ExitCode for errors that are not script
// verdicts.
const ExitCodeUnknown int8 = -1

var exitCodes = []struct {
	err  error
	code int8
}{
	{ErrIndexOutOfBound, 1},
	{ErrItemMissing, 2},
	{ErrLengthNotEnough, 3},
	{ErrEncoding, 4},
	{ErrDataLen, 5},
	{ErrRSAPubKeySigLength, 6},
	{ErrRSAVerify, 7},
	{ErrArgsLen, 8},
	{ErrKeyHashMismatch, 9},
}

// ExitCode returns the code the script terminates with for the given result,
// zero for success.
func ExitCode(err error) int8 {
	if err == nil {
		return 0
	}
	for _, c := range exitCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ExitCodeUnknown
}
