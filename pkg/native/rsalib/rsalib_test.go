package rsalib

import (
	"errors"
	"testing"

	"github.com/nspcc-dev/rsa-identity/internal/rsatest"
	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/identity/codec"
	"github.com/nspcc-dev/rsa-identity/pkg/librsa"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	witness []byte
	txHash  util.Uint256
}

func (e *testEnv) GroupWitness(i int) ([]byte, error) {
	if i != 0 || e.witness == nil {
		return nil, errors.New("no witness")
	}
	return e.witness, nil
}

func (e *testEnv) TxHash() util.Uint256 { return e.txHash }

func symbols(t *testing.T, env dl.Env) (librsa.ValidateSignatureFunc, librsa.ValidateRSASighashAllFunc) {
	syms := New(env)
	vs, ok := syms[librsa.ValidateSignatureSymbol].(librsa.ValidateSignatureFunc)
	require.True(t, ok)
	vsa, ok := syms[librsa.ValidateRSASighashAllSymbol].(librsa.ValidateRSASighashAllFunc)
	require.True(t, ok)
	return vs, vsa
}

func callValidateSignature(vs librsa.ValidateSignatureFunc, req, msg []byte) ([]byte, int32) {
	var (
		out    = make([]byte, librsa.OutputCapacity)
		outLen = uint64(librsa.OutputCapacity)
	)
	res := vs(make([]byte, librsa.PrefilledDataSize), req, msg, out, &outLen)
	return out[:outLen], res
}

func TestImage(t *testing.T) {
	img := Image()
	require.Equal(t, Entry, img.Entry)
	require.True(t, img.Exported(librsa.ValidateSignatureSymbol))
	require.True(t, img.Exported(librsa.ValidateRSASighashAllSymbol))

	// The image is deterministic, so is the hash scripts pin.
	require.Equal(t, ContentHash(), dl.ContentHash(ImageBytes()))
	require.Equal(t, ContentHash(), ContentHash())
}

func TestValidateSignature(t *testing.T) {
	vs, _ := symbols(t, &testEnv{})
	for _, l := range []codec.FieldLayout{codec.Layout1024, codec.Layout2048, codec.Layout4096} {
		t.Run(l.Name, func(t *testing.T) {
			_, rec := rsatest.Record(t, l)
			req, err := rec.Request()
			require.NoError(t, err)

			out, res := callValidateSignature(vs, req, rec.Message)
			require.Equal(t, int32(0), res)
			require.Equal(t, rec.KeyHash().BytesBE(), out)

			t.Run("flipped signature byte", func(t *testing.T) {
				bad := append(codec.Request{}, req...)
				bad[len(bad)-1] ^= 0x01
				_, res := callValidateSignature(vs, bad, rec.Message)
				require.Equal(t, ErrorVerifyFailed, res)
			})
			t.Run("other message", func(t *testing.T) {
				_, res := callValidateSignature(vs, req, []byte("other"))
				require.Equal(t, ErrorVerifyFailed, res)
			})
		})
	}
}

func TestValidateSignatureForeignKey(t *testing.T) {
	vs, _ := symbols(t, &testEnv{})
	_, rec := rsatest.Record(t, codec.Layout4096)
	other := rsatest.Key(t, 1024)
	forged, err := codec.NewInputRecord(&other.PublicKey, rec.Message, rsatest.Sign(t, other, []byte("other")), codec.Layout1024)
	require.NoError(t, err)
	req, err := forged.Request()
	require.NoError(t, err)

	_, res := callValidateSignature(vs, req, rec.Message)
	require.Equal(t, ErrorVerifyFailed, res)
}

func TestValidateSignatureBadRequest(t *testing.T) {
	vs, _ := symbols(t, &testEnv{})
	_, rec := rsatest.Record(t, codec.Layout1024)
	req, err := rec.Request()
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, res := callValidateSignature(vs, req[:len(req)-1], rec.Message)
		require.Equal(t, ErrorBadRequest, res)
	})
	t.Run("empty", func(t *testing.T) {
		_, res := callValidateSignature(vs, nil, rec.Message)
		require.Equal(t, ErrorBadRequest, res)
	})
	for _, h := range []codec.Header{
		{2, 3, 0, 6},
		{1, 9, 0, 6},
		{1, 3, 1, 6},
		{1, 3, 0, 5},
	} {
		bad := append(codec.Request{}, req...)
		copy(bad, h[:])
		_, res := callValidateSignature(vs, bad, rec.Message)
		require.Equal(t, ErrorUnsupportedHeader, res, h)
	}
	t.Run("exact key size class", func(t *testing.T) {
		good := append(codec.Request{}, req...)
		good[1] = codec.KeySize1024
		_, res := callValidateSignature(vs, good, rec.Message)
		require.Equal(t, int32(0), res)
	})
	t.Run("key larger than header class", func(t *testing.T) {
		_, rec := rsatest.Record(t, codec.Layout2048)
		req, err := rec.Request()
		require.NoError(t, err)
		req[1] = codec.KeySize1024
		_, res := callValidateSignature(vs, req, rec.Message)
		require.Equal(t, ErrorUnsupportedHeader, res)
	})
	t.Run("even exponent", func(t *testing.T) {
		bad := append(codec.Request{}, req...)
		bad[4] = 2
		bad[5], bad[6], bad[7] = 0, 0, 0
		_, res := callValidateSignature(vs, bad, rec.Message)
		require.Equal(t, ErrorInvalidKey, res)
	})
	t.Run("zero modulus", func(t *testing.T) {
		bad := append(codec.Request{}, req...)
		for i := codec.RequestOverhead; i < codec.RequestOverhead+128; i++ {
			bad[i] = 0
		}
		_, res := callValidateSignature(vs, bad, rec.Message)
		require.Equal(t, ErrorInvalidKey, res)
	})
	t.Run("small output", func(t *testing.T) {
		out := make([]byte, 10)
		outLen := uint64(len(out))
		res := vs(nil, req, rec.Message, out, &outLen)
		require.Equal(t, ErrorOutputTooSmall, res)
	})
}

func TestValidateRSASighashAll(t *testing.T) {
	key := rsatest.Key(t, 1024)
	txHash := util.Uint256{1, 2, 3}
	env := &testEnv{txHash: txHash, witness: rsatest.Request(t, key, txHash.BytesBE())}
	_, vsa := symbols(t, env)

	d, err := codec.DecodeRequest(env.witness)
	require.NoError(t, err)
	keyHash := codec.KeyHash(d.Exponent, d.Modulus)

	require.Equal(t, int32(0), vsa(keyHash.BytesBE()))
	require.Equal(t, ErrorKeyHashMismatch, vsa(make([]byte, util.Uint160Size)))
	require.Equal(t, ErrorKeyHashMismatch, vsa(keyHash.BytesBE()[:10]))

	t.Run("other tx", func(t *testing.T) {
		env.txHash = util.Uint256{4, 5, 6}
		defer func() { env.txHash = txHash }()
		require.Equal(t, ErrorVerifyFailed, vsa(keyHash.BytesBE()))
	})
	t.Run("no witness", func(t *testing.T) {
		_, vsa := symbols(t, &testEnv{txHash: txHash})
		require.Equal(t, ErrorWitnessMissing, vsa(keyHash.BytesBE()))
	})
}
