package dl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nspcc-dev/rsa-identity/pkg/crypto/hash"
	"github.com/nspcc-dev/rsa-identity/pkg/io"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

// Native module image format.
// +------------+-----------+------------------------------------------------------------+
// |   Field    |  Length   |                          Comment                           |
// +------------+-----------+------------------------------------------------------------+
// | Magic      | 4 bytes   | Magic header                                               |
// | Compiler   | 32 bytes  | Toolchain used to build the module                         |
// | Version    | 16 bytes  | Toolchain version (Major, Minor, Build, Revision)          |
// +------------+-----------+------------------------------------------------------------+
// | Checksum   | 4 bytes   | First four bytes of double SHA256 hash of the header       |
// +------------+-----------+------------------------------------------------------------+
// | Entry      | Var bytes | Name of the native implementation                          |
// | Exports    | Var array | Exported symbol names                                      |
// | Code       | Var bytes | Module payload                                             |
// +------------+-----------+------------------------------------------------------------+
//
// The content hash of a module is the SHA256 of the whole serialized image,
// it's what scripts pin their dependencies to.

const (
	// Magic is a magic image header constant.
	Magic uint32 = 0x4c44534d
	// MaxCodeLength is the maximum allowed module payload length.
	MaxCodeLength = 1024 * 1024
	// MaxExports is the maximum number of symbols a module can export.
	MaxExports = 64
	// MaxSymbolNameLen is the maximum length of a symbol or entry name.
	MaxSymbolNameLen = 64
	// compilerFieldSize is the length of `Compiler` header field in bytes.
	compilerFieldSize = 32
)

// Image represents a native module image.
type Image struct {
	Header   Header
	Checksum uint32
	Entry    string
	Exports  []string
	Code     []byte
}

// Header represents Image header.
type Header struct {
	Magic    uint32
	Compiler string
	Version  Version
}

// Version represents toolchain version.
type Version struct {
	Major    int32
	Minor    int32
	Build    int32
	Revision int32
}

// NewImage returns a new module image with the given entry, exports and
// payload built by the specified compiler of the specified version.
func NewImage(compiler, version, entry string, exports []string, code []byte) (*Image, error) {
	img := &Image{
		Header: Header{
			Magic:    Magic,
			Compiler: compiler,
		},
		Entry:   entry,
		Exports: exports,
		Code:    code,
	}
	v, err := GetVersion(version)
	if err != nil {
		return nil, err
	}
	img.Header.Version = v
	img.Checksum = img.Header.CalculateChecksum()
	return img, nil
}

// GetVersion returns Version from the given string. It accepts the following formats:
// `major[-...].minor[-...].build[-...]` and `major[-...].minor[-...].build[-...].revision[-...]`
// where `major`, `minor`, `build` and `revision` are 32-bit integers with base=10.
func GetVersion(version string) (Version, error) {
	var (
		result Version
		err    error
	)
	versions := strings.SplitN(version, ".", 4)
	if len(versions) < 3 {
		return result, errors.New("invalid version format")
	}
	result.Major, err = parseDashedVersion(versions[0])
	if err != nil {
		return result, fmt.Errorf("failed to parse major version: %w", err)
	}
	result.Minor, err = parseDashedVersion(versions[1])
	if err != nil {
		return result, fmt.Errorf("failed to parse minor version: %w", err)
	}
	result.Build, err = parseDashedVersion(versions[2])
	if err != nil {
		return result, fmt.Errorf("failed to parse build version: %w", err)
	}
	if len(versions) == 4 {
		result.Revision, err = parseDashedVersion(versions[3])
		if err != nil {
			return result, fmt.Errorf("failed to parse revision version: %w", err)
		}
	}
	return result, nil
}

// parseDashedVersion extracts int from string of the format `int[-...]` where `int` is
// a 32-bit integer with base=10.
func parseDashedVersion(version string) (int32, error) {
	version = strings.SplitN(version, "-", 2)[0]
	result, err := strconv.ParseInt(version, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(result), nil
}

// EncodeBinary implements io.Serializable interface.
func (v *Version) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(uint32(v.Major))
	w.WriteU32LE(uint32(v.Minor))
	w.WriteU32LE(uint32(v.Build))
	w.WriteU32LE(uint32(v.Revision))
}

// DecodeBinary implements io.Serializable interface.
func (v *Version) DecodeBinary(r *io.BinReader) {
	v.Major = int32(r.ReadU32LE())
	v.Minor = int32(r.ReadU32LE())
	v.Build = int32(r.ReadU32LE())
	v.Revision = int32(r.ReadU32LE())
}

// EncodeBinary implements io.Serializable interface.
func (h *Header) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(h.Magic)
	if len(h.Compiler) > compilerFieldSize {
		w.Err = errors.New("invalid compiler name length")
		return
	}
	var b = make([]byte, compilerFieldSize)
	copy(b, []byte(h.Compiler))
	w.WriteBytes(b)
	h.Version.EncodeBinary(w)
}

// DecodeBinary implements io.Serializable interface.
func (h *Header) DecodeBinary(r *io.BinReader) {
	h.Magic = r.ReadU32LE()
	if r.Err == nil && h.Magic != Magic {
		r.Err = errors.New("invalid Magic")
		return
	}
	buf := make([]byte, compilerFieldSize)
	r.ReadBytes(buf)
	buf = bytes.TrimRightFunc(buf, func(r rune) bool {
		return r == 0
	})
	h.Compiler = string(buf)
	h.Version.DecodeBinary(r)
}

// CalculateChecksum returns first 4 bytes of double-SHA256(Header) converted to uint32.
func (h *Header) CalculateChecksum() uint32 {
	buf := io.NewBufBinWriter()
	h.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		panic(buf.Err)
	}
	return binary.LittleEndian.Uint32(hash.Checksum(buf.Bytes()))
}

// EncodeBinary implements io.Serializable interface.
func (img *Image) EncodeBinary(w *io.BinWriter) {
	img.Header.EncodeBinary(w)
	w.WriteU32LE(img.Checksum)
	w.WriteString(img.Entry)
	w.WriteVarUint(uint64(len(img.Exports)))
	for _, name := range img.Exports {
		w.WriteString(name)
	}
	w.WriteVarBytes(img.Code)
}

// DecodeBinary implements io.Serializable interface.
func (img *Image) DecodeBinary(r *io.BinReader) {
	img.Header.DecodeBinary(r)
	img.Checksum = r.ReadU32LE()
	if r.Err != nil {
		return
	}
	if img.Header.CalculateChecksum() != img.Checksum {
		r.Err = errors.New("checksum verification failure")
		return
	}
	img.Entry = r.ReadString(MaxSymbolNameLen)
	if r.Err == nil && len(img.Entry) == 0 {
		r.Err = errors.New("empty entry")
		return
	}
	n := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if n > MaxExports {
		r.Err = fmt.Errorf("too many exports: %d", n)
		return
	}
	img.Exports = make([]string, n)
	for i := range img.Exports {
		img.Exports[i] = r.ReadString(MaxSymbolNameLen)
	}
	img.Code = r.ReadVarBytes(MaxCodeLength)
}

// Bytes returns a byte array with the serialized image.
func (img *Image) Bytes() ([]byte, error) {
	return io.ToBytes(img)
}

// ContentHash returns the content hash of the serialized image.
func (img *Image) ContentHash() (util.Uint256, error) {
	b, err := img.Bytes()
	if err != nil {
		return util.Uint256{}, err
	}
	return ContentHash(b), nil
}

// Exported reports whether the image exports the named symbol.
func (img *Image) Exported(name string) bool {
	for _, e := range img.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// ImageFromBytes returns an Image deserialized from the given bytes.
func ImageFromBytes(source []byte) (*Image, error) {
	img := new(Image)
	if err := io.FromBytes(source, img); err != nil {
		return nil, err
	}
	return img, nil
}

// ContentHash returns the content hash of arbitrary cell data.
func ContentHash(data []byte) util.Uint256 {
	return hash.Sha256(data)
}
