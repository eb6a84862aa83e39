package dl

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"go.uber.org/zap"
)

var (
	// ErrModuleNotFound is returned when no cell dep matches the hash.
	ErrModuleNotFound = errors.New("module not found")
	// ErrBadImage is returned when matching cell data is not a valid image.
	ErrBadImage = errors.New("invalid module image")
	// ErrNotLinked is returned when there is no native implementation for
	// the image.
	ErrNotLinked = errors.New("module can't be linked")
	// ErrSymbolNotFound is returned for symbols not exported by the module.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrSymbolType is returned when a symbol has an unexpected signature.
	ErrSymbolType = errors.New("symbol type mismatch")
)

// CellDataLoader provides access to the cell deps of the transaction.
type CellDataLoader interface {
	// CellDepCount returns the number of cell deps.
	CellDepCount() int
	// LoadCellDepData returns the data of the i-th cell dep.
	LoadCellDepData(i int) ([]byte, error)
}

// Context is a per-run dynamic loading context.
type Context struct {
	deps   CellDataLoader
	linker *Linker
	env    Env
	log    *zap.Logger
}

// Library is a loaded and linked module.
type Library struct {
	hash    util.Uint256
	image   *Image
	symbols Symbols
}

// NewContext creates a dynamic loading context over the given cell deps.
func NewContext(deps CellDataLoader, linker *Linker, env Env, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		deps:   deps,
		linker: linker,
		env:    env,
		log:    log,
	}
}

// Load finds a cell dep with data matching the content hash and links it.
// Cell deps whose data can't be loaded are skipped.
func (c *Context) Load(h util.Uint256) (*Library, error) {
	n := c.deps.CellDepCount()
	for i := 0; i < n; i++ {
		data, err := c.deps.LoadCellDepData(i)
		if err != nil {
			c.log.Debug("skipping cell dep", zap.Int("dep", i), zap.Error(err))
			continue
		}
		if ContentHash(data) != h {
			continue
		}
		img, err := ImageFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadImage, h, err)
		}
		syms, err := c.linker.Link(img, c.env)
		if err != nil {
			return nil, err
		}
		c.log.Debug("module loaded",
			zap.Stringer("hash", h),
			zap.String("entry", img.Entry),
			zap.Int("dep", i))
		return &Library{hash: h, image: img, symbols: syms}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, h)
}

// Hash returns the content hash of the library.
func (l *Library) Hash() util.Uint256 {
	return l.hash
}

// Get resolves an exported symbol by name.
func (l *Library) Get(name string) (any, error) {
	if !l.image.Exported(name) {
		return nil, fmt.Errorf("%w: %q", ErrSymbolNotFound, name)
	}
	return l.symbols[name], nil
}

// GetSymbol resolves an exported symbol and checks its type.
func GetSymbol[F any](l *Library, name string) (F, error) {
	var f F
	sym, err := l.Get(name)
	if err != nil {
		return f, err
	}
	f, ok := sym.(F)
	if !ok {
		return f, fmt.Errorf("%w: %q is %T", ErrSymbolType, name, sym)
	}
	return f, nil
}
