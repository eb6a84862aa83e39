/*
Package ledger keeps live cells: deployed module images and identity records
that transactions reference as cell deps.
*/
package ledger

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/rsa-identity/pkg/core/storage"
	"github.com/nspcc-dev/rsa-identity/pkg/core/transaction"
	"github.com/nspcc-dev/rsa-identity/pkg/io"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"go.uber.org/zap"
)

const (
	// dataCacheSize is the number of cell data entries kept in memory.
	dataCacheSize = 256
	// cellKeyLen is prefix, tx hash and output index.
	cellKeyLen = 1 + util.Uint256Size + 4
)

// ErrCellNotFound is returned for out points not known to the ledger.
var ErrCellNotFound = errors.New("cell not found")

// Ledger stores cells created by transactions.
type Ledger struct {
	// lock protects store writes and cache consistency.
	lock  sync.RWMutex
	store storage.Store
	cache *lru.Cache
	log   *zap.Logger
}

// New creates a ledger over the given store.
func New(s storage.Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := lru.New(dataCacheSize) // Never errors for positive size.
	return &Ledger{
		store: s,
		cache: cache,
		log:   log,
	}
}

func cellKey(op transaction.OutPoint) []byte {
	w := io.NewBufBinWriterSize(cellKeyLen)
	w.WriteB(byte(storage.DataCell))
	op.EncodeBinary(w.BinWriter)
	return w.Bytes()
}

func outPointFromKey(key []byte) (transaction.OutPoint, error) {
	var op transaction.OutPoint
	if len(key) != cellKeyLen {
		return op, fmt.Errorf("bad cell key length %d", len(key))
	}
	err := io.FromBytes(key[1:], &op)
	return op, err
}

// AddTransaction stores all outputs of the transaction as live cells. It
// doesn't verify anything, that's the job of the caller.
func (l *Ledger) AddTransaction(tx *transaction.Transaction) error {
	if len(tx.Outputs) != len(tx.OutputsData) {
		return transaction.ErrInvalidOutputsData
	}
	h := tx.Hash()
	l.lock.Lock()
	defer l.lock.Unlock()
	for i := range tx.Outputs {
		c := Cell{Output: tx.Outputs[i], Data: tx.OutputsData[i]}
		val, err := io.ToBytes(&c)
		if err != nil {
			return err
		}
		op := transaction.OutPoint{TxHash: h, Index: uint32(i)}
		if err := l.store.Put(cellKey(op), val); err != nil {
			return fmt.Errorf("failed to store cell %s: %w", op, err)
		}
		l.cache.Remove(op)
	}
	l.log.Debug("transaction added",
		zap.Stringer("hash", h),
		zap.Int("outputs", len(tx.Outputs)))
	return nil
}

// Deploy creates a single cell with the given output and data, it's a
// shortcut for deploying module images and records.
func (l *Ledger) Deploy(out transaction.Output, data []byte) (transaction.OutPoint, error) {
	tx := transaction.New([]transaction.Output{out}, [][]byte{data})
	if err := l.AddTransaction(tx); err != nil {
		return transaction.OutPoint{}, err
	}
	return transaction.OutPoint{TxHash: tx.Hash(), Index: 0}, nil
}

// GetCell returns the cell by its out point.
func (l *Ledger) GetCell(op transaction.OutPoint) (*Cell, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.getCell(op)
}

func (l *Ledger) getCell(op transaction.OutPoint) (*Cell, error) {
	val, err := l.store.Get(cellKey(op))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCellNotFound, op)
		}
		return nil, err
	}
	c := &Cell{OutPoint: op}
	if err := io.FromBytes(val, c); err != nil {
		return nil, fmt.Errorf("bad cell %s: %w", op, err)
	}
	return c, nil
}

// LoadCellData returns the data of the cell. The result is shared with the
// cache and must not be modified.
func (l *Ledger) LoadCellData(op transaction.OutPoint) ([]byte, error) {
	if data, ok := l.cache.Get(op); ok {
		return data.([]byte), nil
	}
	l.lock.RLock()
	defer l.lock.RUnlock()
	c, err := l.getCell(op)
	if err != nil {
		return nil, err
	}
	l.cache.Add(op, c.Data)
	return c.Data, nil
}

// ConsumeCell removes the cell from the live set.
func (l *Ledger) ConsumeCell(op transaction.OutPoint) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if _, err := l.getCell(op); err != nil {
		return err
	}
	l.cache.Remove(op)
	return l.store.Delete(cellKey(op))
}

// ForEachCell iterates over all live cells in key order until f returns
// false.
func (l *Ledger) ForEachCell(f func(*Cell) bool) error {
	l.lock.RLock()
	defer l.lock.RUnlock()
	var iterErr error
	err := l.store.Seek(storage.DataCell.Bytes(), func(k, v []byte) bool {
		op, err := outPointFromKey(k)
		if err != nil {
			iterErr = err
			return false
		}
		c := &Cell{OutPoint: op}
		if err := io.FromBytes(v, c); err != nil {
			iterErr = fmt.Errorf("bad cell %s: %w", op, err)
			return false
		}
		return f(c)
	})
	if err != nil {
		return err
	}
	return iterErr
}

// Close closes the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
