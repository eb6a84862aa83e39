/*
Package rsatest contains RSA keys, signatures and identity records for tests.
*/
package rsatest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/nspcc-dev/rsa-identity/pkg/identity/codec"
	"github.com/stretchr/testify/require"
)

// MessageHex is the 32-byte message test records carry.
const MessageHex = "2a8434db3224e208c61dfd521953974092d13b6859558a054dfd5a390203e704"

var (
	keysLock sync.Mutex
	keys     = make(map[int]*rsa.PrivateKey)
)

// Message returns the test message bytes.
func Message() []byte {
	b, _ := hex.DecodeString(MessageHex)
	return b
}

// Key returns a private key of the given size. Keys are generated once per
// size and reused by all tests of the package.
func Key(t testing.TB, bits int) *rsa.PrivateKey {
	keysLock.Lock()
	defer keysLock.Unlock()
	if k, ok := keys[bits]; ok {
		return k
	}
	k, err := rsa.GenerateKey(rand.Reader, bits)
	require.NoError(t, err)
	keys[bits] = k
	return k
}

// Sign signs SHA-256 of msg with PKCS#1 v1.5.
func Sign(t testing.TB, key *rsa.PrivateKey, msg []byte) []byte {
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return sig
}

// Record returns a record for Message signed with a key matching the layout.
func Record(t testing.TB, layout codec.FieldLayout) (*rsa.PrivateKey, *codec.InputRecord) {
	key := Key(t, layout.ModulusLen*8)
	msg := Message()
	rec, err := codec.NewInputRecord(&key.PublicKey, msg, Sign(t, key, msg), layout)
	require.NoError(t, err)
	return key, rec
}

// RecordBytes is like Record, but returns packed record data.
func RecordBytes(t testing.TB, layout codec.FieldLayout) []byte {
	_, rec := Record(t, layout)
	data, err := rec.Bytes(layout)
	require.NoError(t, err)
	return data
}

// Request returns a Verifier Request for msg signed with key.
func Request(t testing.TB, key *rsa.PrivateKey, msg []byte) codec.Request {
	rec, err := codec.NewInputRecord(&key.PublicKey, make([]byte, codec.MessageLen), Sign(t, key, msg), layoutFor(key))
	require.NoError(t, err)
	req, err := rec.Request()
	require.NoError(t, err)
	return req
}

func layoutFor(key *rsa.PrivateKey) codec.FieldLayout {
	switch key.Size() {
	case 128:
		return codec.Layout1024
	case 256:
		return codec.Layout2048
	default:
		return codec.Layout4096
	}
}
