package librsa_test

import (
	"errors"
	"testing"

	"github.com/nspcc-dev/rsa-identity/internal/rsatest"
	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/identity/codec"
	"github.com/nspcc-dev/rsa-identity/pkg/librsa"
	"github.com/nspcc-dev/rsa-identity/pkg/native/rsalib"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type deps [][]byte

func (d deps) CellDepCount() int { return len(d) }

func (d deps) LoadCellDepData(i int) ([]byte, error) {
	if i >= len(d) {
		return nil, errors.New("index out of bound")
	}
	return d[i], nil
}

type env struct {
	witness []byte
	txHash  util.Uint256
}

func (e env) GroupWitness(int) ([]byte, error) { return e.witness, nil }
func (e env) TxHash() util.Uint256             { return e.txHash }

func newContext(t *testing.T, e dl.Env, images ...[]byte) *dl.Context {
	l := dl.NewLinker()
	rsalib.Register(l)
	return dl.NewContext(deps(images), l, e, zaptest.NewLogger(t))
}

func TestLoad(t *testing.T) {
	ctx := newContext(t, env{}, []byte("junk"), rsalib.ImageBytes())
	lib, err := librsa.Load(ctx, rsalib.ContentHash())
	require.NoError(t, err)
	require.Equal(t, rsalib.ContentHash(), lib.Hash())

	t.Run("missing module", func(t *testing.T) {
		ctx := newContext(t, env{}, []byte("junk"))
		_, err := librsa.Load(ctx, rsalib.ContentHash())
		require.ErrorIs(t, err, librsa.ErrModuleLoad)
		require.ErrorIs(t, err, dl.ErrModuleNotFound)
		require.Panics(t, func() { librsa.MustLoad(ctx, rsalib.ContentHash()) })
	})
	t.Run("wrong hash", func(t *testing.T) {
		_, err := librsa.Load(ctx, util.Uint256{1})
		require.ErrorIs(t, err, librsa.ErrModuleLoad)
	})
	t.Run("missing symbol", func(t *testing.T) {
		img, err := dl.NewImage(rsalib.Compiler, rsalib.Version, rsalib.Entry,
			[]string{librsa.ValidateSignatureSymbol}, []byte("partial"))
		require.NoError(t, err)
		data, err := img.Bytes()
		require.NoError(t, err)
		ctx := newContext(t, env{}, data)
		_, err = librsa.Load(ctx, dl.ContentHash(data))
		require.ErrorIs(t, err, librsa.ErrSymbolResolution)
		require.ErrorIs(t, err, dl.ErrSymbolNotFound)
	})
	t.Run("wrong symbol type", func(t *testing.T) {
		l := dl.NewLinker()
		l.Register(rsalib.Entry, func(dl.Env) dl.Symbols {
			return dl.Symbols{
				librsa.ValidateSignatureSymbol:     func() int32 { return 0 },
				librsa.ValidateRSASighashAllSymbol: func() int32 { return 0 },
			}
		})
		ctx := dl.NewContext(deps{rsalib.ImageBytes()}, l, env{}, nil)
		_, err := librsa.Load(ctx, rsalib.ContentHash())
		require.ErrorIs(t, err, librsa.ErrSymbolResolution)
		require.ErrorIs(t, err, dl.ErrSymbolType)
	})
}

func TestValidateSignature(t *testing.T) {
	ctx := newContext(t, env{}, rsalib.ImageBytes())
	lib := librsa.MustLoad(ctx, rsalib.ContentHash())
	_, rec := rsatest.Record(t, codec.Layout1024)
	req, err := rec.Request()
	require.NoError(t, err)

	out, err := lib.ValidateSignature(lib.LoadPrefilledData(), req, rec.Message)
	require.NoError(t, err)
	require.Equal(t, rec.KeyHash().BytesBE(), out)

	req[len(req)-1] ^= 0xff
	_, err = lib.ValidateSignature(lib.LoadPrefilledData(), req, rec.Message)
	require.ErrorIs(t, err, librsa.ErrVerify)
	var ce *librsa.CodeError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, rsalib.ErrorVerifyFailed, ce.Code)
	require.Equal(t, librsa.ValidateSignatureSymbol, ce.Symbol)

	_, err = lib.ValidateSignature(nil, req, rec.Message)
	require.ErrorIs(t, err, librsa.ErrPrefilledData)
}

func TestValidateSignatureOutputOverflow(t *testing.T) {
	l := dl.NewLinker()
	l.Register(rsalib.Entry, func(dl.Env) dl.Symbols {
		return dl.Symbols{
			librsa.ValidateSignatureSymbol: librsa.ValidateSignatureFunc(func(prefilled, _, _, out []byte, outLen *uint64) int32 {
				if len(prefilled) != librsa.PrefilledDataSize || len(out) != librsa.OutputCapacity {
					return 100
				}
				*outLen = librsa.OutputCapacity + 1
				return 0
			}),
			librsa.ValidateRSASighashAllSymbol: librsa.ValidateRSASighashAllFunc(func([]byte) int32 { return 0 }),
		}
	})
	ctx := dl.NewContext(deps{rsalib.ImageBytes()}, l, env{}, nil)
	lib := librsa.MustLoad(ctx, rsalib.ContentHash())
	_, err := lib.ValidateSignature(lib.LoadPrefilledData(), []byte{1}, []byte{2})
	require.ErrorIs(t, err, librsa.ErrOutputOverflow)
}

func TestValidateRSASighashAll(t *testing.T) {
	key := rsatest.Key(t, 1024)
	txHash := util.Uint256{0xaa}
	witness := rsatest.Request(t, key, txHash.BytesBE())
	ctx := newContext(t, env{witness: witness, txHash: txHash}, rsalib.ImageBytes())
	lib := librsa.MustLoad(ctx, rsalib.ContentHash())

	d, err := codec.DecodeRequest(witness)
	require.NoError(t, err)
	keyHash := codec.KeyHash(d.Exponent, d.Modulus)

	require.NoError(t, lib.ValidateRSASighashAll(keyHash.BytesBE()))

	err = lib.ValidateRSASighashAll(make([]byte, util.Uint160Size))
	require.ErrorIs(t, err, librsa.ErrVerify)

	err = lib.ValidateRSASighashAll([]byte{1, 2, 3})
	require.ErrorIs(t, err, librsa.ErrVerify)
}
