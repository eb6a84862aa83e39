package ledger

import (
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/rsa-identity/pkg/core/storage"
	"github.com/nspcc-dev/rsa-identity/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/rsa-identity/pkg/core/transaction"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestLedger(t *testing.T) *Ledger {
	return New(storage.NewMemoryStore(), zaptest.NewLogger(t))
}

func testOutput(codeHash byte) transaction.Output {
	return transaction.Output{
		Capacity: 100,
		Lock:     transaction.Script{CodeHash: util.Uint256{codeHash}, Args: []byte{}},
	}
}

func TestLedgerDeploy(t *testing.T) {
	l := newTestLedger(t)

	op, err := l.Deploy(testOutput(1), []byte("module"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), op.Index)

	c, err := l.GetCell(op)
	require.NoError(t, err)
	require.Equal(t, op, c.OutPoint)
	require.Equal(t, testOutput(1), c.Output)
	require.Equal(t, []byte("module"), c.Data)

	data, err := l.LoadCellData(op)
	require.NoError(t, err)
	require.Equal(t, []byte("module"), data)

	// Cached path.
	data, err = l.LoadCellData(op)
	require.NoError(t, err)
	require.Equal(t, []byte("module"), data)
}

func TestLedgerMissingCell(t *testing.T) {
	l := newTestLedger(t)
	op := transaction.OutPoint{TxHash: util.Uint256{1, 2, 3}, Index: 1}

	_, err := l.GetCell(op)
	require.ErrorIs(t, err, ErrCellNotFound)
	_, err = l.LoadCellData(op)
	require.ErrorIs(t, err, ErrCellNotFound)
	require.ErrorIs(t, l.ConsumeCell(op), ErrCellNotFound)
}

func TestLedgerAddTransaction(t *testing.T) {
	l := newTestLedger(t)
	tx := transaction.New(
		[]transaction.Output{testOutput(1), testOutput(2), testOutput(3)},
		[][]byte{{1}, {2}, {3}})
	require.NoError(t, l.AddTransaction(tx))

	var seen []transaction.OutPoint
	require.NoError(t, l.ForEachCell(func(c *Cell) bool {
		require.Equal(t, []byte{byte(c.OutPoint.Index + 1)}, c.Data)
		seen = append(seen, c.OutPoint)
		return true
	}))
	require.Equal(t, []transaction.OutPoint{
		{TxHash: tx.Hash(), Index: 0},
		{TxHash: tx.Hash(), Index: 1},
		{TxHash: tx.Hash(), Index: 2},
	}, seen)

	t.Run("consume", func(t *testing.T) {
		op := transaction.OutPoint{TxHash: tx.Hash(), Index: 1}
		_, err := l.LoadCellData(op)
		require.NoError(t, err)
		require.NoError(t, l.ConsumeCell(op))
		_, err = l.LoadCellData(op)
		require.ErrorIs(t, err, ErrCellNotFound)
	})

	t.Run("mismatched data", func(t *testing.T) {
		bad := transaction.New([]transaction.Output{testOutput(1)}, nil)
		require.ErrorIs(t, l.AddTransaction(bad), transaction.ErrInvalidOutputsData)
	})
}

func TestLedgerPersistence(t *testing.T) {
	cfg := dbconfig.DBConfiguration{
		Type:          dbconfig.BoltDB,
		BoltDBOptions: dbconfig.BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "ledger.bolt")},
	}
	s, err := storage.NewStore(cfg)
	require.NoError(t, err)
	l := New(s, zaptest.NewLogger(t))
	op, err := l.Deploy(testOutput(7), []byte{0xde, 0xad})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	s, err = storage.NewStore(cfg)
	require.NoError(t, err)
	l = New(s, zaptest.NewLogger(t))
	t.Cleanup(func() { require.NoError(t, l.Close()) })
	data, err := l.LoadCellData(op)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad}, data)
}
