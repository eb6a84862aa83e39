package main

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/nspcc-dev/rsa-identity/internal/rsatest"
	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/encoding/address"
	"github.com/nspcc-dev/rsa-identity/pkg/native/rsalib"
	"github.com/stretchr/testify/require"
)

func TestModuleImage(t *testing.T) {
	e := newExecutor(t)
	out := filepath.Join(t.TempDir(), "rsa.img")

	e.RunWithError(t, "rsa-identity", "module", "image")
	e.Run(t, "rsa-identity", "module", "image", "--out", out)
	e.checkNextLine(t, rsalib.ContentHash().StringPrefixed())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, rsalib.ContentHash(), dl.ContentHash(b))

	e.Run(t, "rsa-identity", "module", "hash", "--in", out)
	e.checkNextLine(t, rsalib.ContentHash().StringPrefixed())
	e.checkEOF(t)

	bad := filepath.Join(t.TempDir(), "bad.img")
	require.NoError(t, os.WriteFile(bad, []byte{1, 2, 3}, 0644))
	e.RunWithError(t, "rsa-identity", "module", "hash", "--in", bad)
}

func TestRecordFlow(t *testing.T) {
	var (
		e       = newExecutor(t)
		dir     = t.TempDir()
		cfg     = writeTestConfig(t, dir)
		key     = writeTestKey(t, dir)
		rec     = filepath.Join(dir, "record.bin")
		msg     = rsatest.MessageHex
		keyHash string
		addr    string
		modCell string
	)

	t.Run("pack", func(t *testing.T) {
		e.RunWithError(t, "rsa-identity", "record", "pack", "--message", msg, "--out", rec, "--config-file", cfg)
		e.RunWithError(t, "rsa-identity", "record", "pack", "--key", key, "--message", "abcd", "--out", rec, "--config-file", cfg)
		e.Run(t, "rsa-identity", "record", "pack", "--key", key, "--message", msg, "--out", rec, "--config-file", cfg)
		keyHash = e.getNextLine(t)
		require.Regexp(t, "^0x[0-9a-f]{40}$", keyHash)
		addr = e.getNextLine(t)
		u, err := address.StringToUint160(addr)
		require.NoError(t, err)
		require.Equal(t, keyHash, u.StringPrefixed())
		e.checkEOF(t)

		b, err := os.ReadFile(rec)
		require.NoError(t, err)
		require.Len(t, b, 292)
	})

	t.Run("parse", func(t *testing.T) {
		e.Run(t, "rsa-identity", "record", "parse", "--in", rec, "--config-file", cfg)
		e.checkNextLine(t, "^layout: rsa1024$")
		e.checkNextLine(t, "^exponent: 65537$")
		e.checkNextLine(t, `^modulus: "?[0-9a-f]{256}"?$`)
		e.checkNextLine(t, `^message: "?`+msg+`"?$`)
		e.checkNextLine(t, `^signature: "?[0-9a-f]{256}"?$`)
		e.checkNextLine(t, `^keyhash: "?`+keyHash+`"?$`)
		e.checkNextLine(t, "^address: "+addr+"$")
		e.checkNextLine(t, "^requestlength: 264$")
		e.checkEOF(t)

		e.RunWithError(t, "rsa-identity", "record", "parse", "--in", rec, "--layout", "rsa2048", "--config-file", cfg)
	})

	t.Run("verify without module", func(t *testing.T) {
		e.RunWithError(t, "rsa-identity", "record", "verify", "--in", rec, "--config-file", cfg)
	})

	t.Run("deploy", func(t *testing.T) {
		e.Run(t, "rsa-identity", "module", "deploy", "--config-file", cfg)
		op := e.getNextLine(t)
		modCell = op
		// Deploying twice finds the existing cell.
		e.Run(t, "rsa-identity", "module", "deploy", "--config-file", cfg)
		e.checkNextLine(t, op)

		e.Run(t, "rsa-identity", "module", "list", "--config-file", cfg)
		e.checkNextLine(t, op+"\t"+rsalib.ContentHash().StringPrefixed()+"\t"+rsalib.Entry)
		e.checkEOF(t)
	})

	t.Run("verify", func(t *testing.T) {
		e.Run(t, "rsa-identity", "record", "verify", "--in", rec, "--config-file", cfg)
		e.checkNextLine(t, "^OK$")

		e.Run(t, "rsa-identity", "record", "verify", "--in", rec, "--args", keyHash[2:], "--config-file", cfg)
		e.checkNextLine(t, "^OK$")

		e.Run(t, "rsa-identity", "record", "verify", "--in", rec, "--args", addr, "--config-file", cfg)
		e.checkNextLine(t, "^OK$")

		e.RunWithErrorCode(t, 9, "rsa-identity", "record", "verify", "--in", rec,
			"--args", "0000000000000000000000000000000000000000", "--config-file", cfg)
		e.RunWithErrorCode(t, 8, "rsa-identity", "record", "verify", "--in", rec, "--args", "00", "--config-file", cfg)
	})

	t.Run("sighash", func(t *testing.T) {
		e.RunWithError(t, "rsa-identity", "record", "sighash", "--config-file", cfg)

		e.Run(t, "rsa-identity", "record", "sighash", "--key", key, "--config-file", cfg)
		e.checkNextLine(t, "^0x[0-9a-f]{64}$")
		e.checkNextLine(t, "^OK$")
		e.checkEOF(t)

		e.Run(t, "rsa-identity", "record", "sighash", "--key", key, "--keyhash", addr, "--config-file", cfg)
		e.checkNextLine(t, "^0x[0-9a-f]{64}$")
		e.checkNextLine(t, "^OK$")

		e.Run(t, "rsa-identity", "record", "sighash", "--key", key, "--keyhash", keyHash, "--config-file", cfg)
		e.checkNextLine(t, "^0x[0-9a-f]{64}$")
		e.checkNextLine(t, "^OK$")

		// The cell is locked to another key.
		e.RunWithErrorCode(t, 7, "rsa-identity", "record", "sighash", "--key", key,
			"--keyhash", "0x0000000000000000000000000000000000000000", "--config-file", cfg)
		e.RunWithError(t, "rsa-identity", "record", "sighash", "--key", key, "--keyhash", "00", "--config-file", cfg)
	})

	t.Run("sighash not configured", func(t *testing.T) {
		b, err := os.ReadFile(cfg)
		require.NoError(t, err)
		noSighash := filepath.Join(dir, "nosighash.yml")
		b = regexp.MustCompile(`(?m)^\s*SighashCodeHash:.*\n`).ReplaceAll(b, nil)
		require.NoError(t, os.WriteFile(noSighash, b, 0644))
		e.RunWithError(t, "rsa-identity", "record", "sighash", "--key", key, "--config-file", noSighash)

		e.Run(t, "rsa-identity", "record", "verify", "--in", rec, "--config-file", noSighash)
		e.checkNextLine(t, "^OK$")
	})

	t.Run("verify broken", func(t *testing.T) {
		b, err := os.ReadFile(rec)
		require.NoError(t, err)
		b[len(b)-1] ^= 0xff
		broken := filepath.Join(dir, "broken.bin")
		require.NoError(t, os.WriteFile(broken, b, 0644))
		e.RunWithErrorCode(t, 7, "rsa-identity", "record", "verify", "--in", broken, "--config-file", cfg)

		short := filepath.Join(dir, "short.bin")
		require.NoError(t, os.WriteFile(short, b[:len(b)-1], 0644))
		e.RunWithErrorCode(t, 5, "rsa-identity", "record", "verify", "--in", short, "--config-file", cfg)
	})

	t.Run("undeploy", func(t *testing.T) {
		e.RunWithError(t, "rsa-identity", "module", "undeploy", "--config-file", cfg)
		e.RunWithError(t, "rsa-identity", "module", "undeploy", "--cell", "garbage", "--config-file", cfg)

		e.Run(t, "rsa-identity", "module", "undeploy", "--cell", modCell, "--config-file", cfg)
		e.checkNextLine(t, rsalib.ContentHash().StringPrefixed())
		e.checkEOF(t)

		e.Run(t, "rsa-identity", "module", "list", "--config-file", cfg)
		e.checkEOF(t)
		e.RunWithError(t, "rsa-identity", "record", "verify", "--in", rec, "--config-file", cfg)
		e.RunWithError(t, "rsa-identity", "module", "undeploy", "--cell", modCell, "--config-file", cfg)
	})
}
