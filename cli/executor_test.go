package main

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/rsa-identity/cli/app"
	"github.com/nspcc-dev/rsa-identity/internal/rsatest"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

func newExecutor(t *testing.T) *executor {
	e := &executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	return e
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithErrorCode runs command and checks that it exits with the given code.
func (e *executor) RunWithErrorCode(t *testing.T, code int, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, code)
}

// RunWithError runs command and checks that it exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	e.RunWithErrorCode(t, 1, args...)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	return e.CLI.Run(args)
}

func writeTestConfig(t *testing.T, dir string) string {
	p := filepath.Join(dir, "protocol.yml")
	cfg := `ProtocolConfiguration:
  Layout: rsa1024
  IdentityCodeHash: "0x0100000000000000000000000000000000000000000000000000000000000000"
  SighashCodeHash: "0x0200000000000000000000000000000000000000000000000000000000000000"
ApplicationConfiguration:
  LogLevel: warn
  DBConfiguration:
    Type: boltdb
    BoltDBOptions:
      FilePath: "` + filepath.Join(dir, "chain.bolt") + `"
`
	require.NoError(t, os.WriteFile(p, []byte(cfg), 0644))
	return p
}

func writeTestKey(t *testing.T, dir string) string {
	key := rsatest.Key(t, 1024)
	p := filepath.Join(dir, "key.pem")
	b := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(p, b, 0600))
	return p
}
