package dl

import (
	"fmt"
	"sync"

	"github.com/nspcc-dev/rsa-identity/pkg/util"
)

type (
	// Env is the part of the host a native module may access.
	Env interface {
		// GroupWitness returns the witness of the i-th cell of the current
		// script group.
		GroupWitness(i int) ([]byte, error)
		// TxHash returns the hash of the transaction being verified.
		TxHash() util.Uint256
	}

	// Symbols is a set of named functions provided by an implementation.
	Symbols map[string]any

	// Implementation instantiates a native module for the given host.
	Implementation func(env Env) Symbols

	// Linker binds module images to native implementations by their
	// Entry name. It's configured once by the host and shared between
	// script runs.
	Linker struct {
		lock  sync.RWMutex
		impls map[string]Implementation
	}
)

// NewLinker returns an empty Linker.
func NewLinker() *Linker {
	return &Linker{impls: make(map[string]Implementation)}
}

// Register installs impl under the given entry name, replacing any previous
// registration.
func (l *Linker) Register(entry string, impl Implementation) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.impls[entry] = impl
}

// Link instantiates the implementation the image refers to and checks that
// all of the image exports are provided by it.
func (l *Linker) Link(img *Image, env Env) (Symbols, error) {
	l.lock.RLock()
	impl, ok := l.impls[img.Entry]
	l.lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotLinked, img.Entry)
	}
	syms := impl(env)
	for _, name := range img.Exports {
		if _, ok := syms[name]; !ok {
			return nil, fmt.Errorf("%w: %q doesn't provide %q", ErrNotLinked, img.Entry, name)
		}
	}
	return syms, nil
}
