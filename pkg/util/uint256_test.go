package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexHash = "c449b9d7916e66670660da045a63c78a810f8aa9f032c9ee167d3d9bcb0e56b1"

func TestUint256DecodeString(t *testing.T) {
	u, err := Uint256DecodeString(hexHash)
	require.NoError(t, err)
	assert.Equal(t, hexHash, u.String())
	assert.Equal(t, byte(0xc4), u[0])

	u2, err := Uint256DecodeString("0x" + hexHash)
	require.NoError(t, err)
	assert.True(t, u.Equals(u2))

	_, err = Uint256DecodeString(hexHash[2:])
	require.Error(t, err)
	_, err = Uint256DecodeString("zz" + hexHash[2:])
	require.Error(t, err)
}

func TestUint256JSON(t *testing.T) {
	u, err := Uint256DecodeString(hexHash)
	require.NoError(t, err)
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Equal(t, `"0x`+hexHash+`"`, string(data))

	var actual Uint256
	require.NoError(t, json.Unmarshal(data, &actual))
	assert.Equal(t, u, actual)
}

func TestUint160DecodeStringShort(t *testing.T) {
	const s = "23c329ed630d6ce750712a477543672adab57f4c"
	u, err := Uint160DecodeString(s)
	require.NoError(t, err)
	assert.Equal(t, s, u.String())
	_, err = Uint160DecodeBytes([]byte{1, 2})
	require.Error(t, err)
}

func TestReversedCopy(t *testing.T) {
	src := []byte{1, 2, 3}
	assert.Equal(t, []byte{3, 2, 1}, ReversedCopy(src))
	assert.Equal(t, []byte{1, 2, 3}, src)
	assert.Equal(t, []byte{1}, ArrayReverse([]byte{1}))
}
