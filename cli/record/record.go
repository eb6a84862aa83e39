/*
Package record implements commands packing, inspecting and verifying RSA
identity records.
*/
package record

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nspcc-dev/rsa-identity/cli/module"
	"github.com/nspcc-dev/rsa-identity/cli/options"
	"github.com/nspcc-dev/rsa-identity/pkg/config"
	"github.com/nspcc-dev/rsa-identity/pkg/core/ledger"
	"github.com/nspcc-dev/rsa-identity/pkg/core/transaction"
	"github.com/nspcc-dev/rsa-identity/pkg/core/txverifier"
	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/encoding/address"
	"github.com/nspcc-dev/rsa-identity/pkg/identity/codec"
	"github.com/nspcc-dev/rsa-identity/pkg/native/rsalib"
	"github.com/nspcc-dev/rsa-identity/pkg/script"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	errNoKey         = errors.New("no key file specified, use '--key' flag")
	errNoInput       = errors.New("no record file specified, use '--in' flag")
	errNoOutput      = errors.New("no output file specified, use '--out' flag")
	errNotDeployed   = errors.New("verification module is not deployed, use 'module deploy' command")
	errNotRSAKey     = errors.New("not an RSA private key")
	errNoPEM         = errors.New("no PEM block found")
	errNoSighash     = errors.New("sighash script is not configured, set 'SighashCodeHash'")
	errMessageLength = fmt.Errorf("message must be %d bytes long", codec.MessageLen)
)

// NewCommands returns 'record' command.
func NewCommands() []cli.Command {
	inFlag := cli.StringFlag{
		Name:  "in, i",
		Usage: "record file",
	}
	return []cli.Command{{
		Name:  "record",
		Usage: "RSA identity records",
		Subcommands: []cli.Command{
			{
				Name:      "pack",
				Usage:     "sign a message and pack the identity record",
				UsageText: "rsa-identity record pack --key <key.pem> --message <hex> --out <file> [--layout <name>]",
				Action:    pack,
				Flags: []cli.Flag{
					cli.StringFlag{
						Name:  "key, k",
						Usage: "PEM-encoded RSA private key (PKCS#1 or PKCS#8)",
					},
					cli.StringFlag{
						Name:  "message, m",
						Usage: fmt.Sprintf("hex-encoded %d-byte message", codec.MessageLen),
					},
					cli.StringFlag{
						Name:  "out, o",
						Usage: "output file",
					},
					options.Layout,
					options.ConfigFile,
				},
			},
			{
				Name:      "parse",
				Usage:     "print record fields",
				UsageText: "rsa-identity record parse --in <file> [--layout <name>]",
				Action:    parse,
				Flags:     []cli.Flag{inFlag, options.Layout, options.ConfigFile},
			},
			{
				Name:      "verify",
				Usage:     "verify the record with the deployed module",
				UsageText: "rsa-identity record verify --in <file> [--args <hex>] [--config-file <file>]",
				Action:    verify,
				Flags: append([]cli.Flag{
					inFlag,
					cli.StringFlag{
						Name:  "args, a",
						Usage: "script args: identity address or hex-encoded public key hash to pin",
					},
					options.Layout,
				}, options.Ledger...),
			},
			{
				Name:      "sighash",
				Usage:     "sign a transaction spending a key hash cell and verify it",
				UsageText: "rsa-identity record sighash --key <key.pem> [--keyhash <address|hex>] [--config-file <file>]",
				Action:    sighash,
				Flags: append([]cli.Flag{
					cli.StringFlag{
						Name:  "key, k",
						Usage: "PEM-encoded RSA private key (PKCS#1 or PKCS#8)",
					},
					cli.StringFlag{
						Name:  "keyhash",
						Usage: "identity address or hex-encoded key hash the cell is locked to, the key's own hash by default",
					},
				}, options.Ledger...),
			},
		},
	}}
}

// getLayout returns the layout set by flag or configured.
func getLayout(ctx *cli.Context) (codec.FieldLayout, error) {
	var (
		name = ctx.String("layout")
		cfg  config.Config
		err  error
	)
	if name == "" {
		cfg, err = options.GetConfigFromContext(ctx)
		if err != nil {
			return codec.FieldLayout{}, err
		}
		name = cfg.ProtocolConfiguration.Layout
	}
	l, err := codec.LayoutByName(name)
	if err != nil {
		return l, err
	}
	return l, l.Validate()
}

func readPrivateKey(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errNoPEM
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rk, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, errNotRSAKey
	}
	return rk, nil
}

func pack(ctx *cli.Context) error {
	keyPath := ctx.String("key")
	if keyPath == "" {
		return cli.NewExitError(errNoKey, 1)
	}
	out := ctx.String("out")
	if out == "" {
		return cli.NewExitError(errNoOutput, 1)
	}
	msg, err := hex.DecodeString(ctx.String("message"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("bad message: %w", err), 1)
	}
	if len(msg) != codec.MessageLen {
		return cli.NewExitError(errMessageLength, 1)
	}
	layout, err := getLayout(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	key, err := readPrivateKey(keyPath)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("can't read key: %w", err), 1)
	}

	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("can't sign: %w", err), 1)
	}
	rec, err := codec.NewInputRecord(&key.PublicKey, msg, sig, layout)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	data, err := rec.Bytes(layout)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, rec.KeyHash().StringPrefixed())
	fmt.Fprintln(ctx.App.Writer, address.Uint160ToString(rec.KeyHash()))
	return nil
}

func readRecord(ctx *cli.Context) ([]byte, codec.FieldLayout, error) {
	in := ctx.String("in")
	if in == "" {
		return nil, codec.FieldLayout{}, errNoInput
	}
	layout, err := getLayout(ctx)
	if err != nil {
		return nil, layout, err
	}
	data, err := os.ReadFile(in)
	return data, layout, err
}

type recordInfo struct {
	Layout    string `yaml:"layout"`
	Exponent  uint32 `yaml:"exponent"`
	Modulus   string `yaml:"modulus"`
	Message   string `yaml:"message"`
	Signature string `yaml:"signature"`
	KeyHash   string `yaml:"keyhash"`
	Address   string `yaml:"address"`
	Request   int    `yaml:"requestlength"`
}

func parse(ctx *cli.Context) error {
	data, layout, err := readRecord(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	rec, err := codec.ParseInputRecord(data, layout)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	req, err := rec.Request()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	info := recordInfo{
		Layout:    layout.Name,
		Exponent:  rec.Exponent,
		Modulus:   hex.EncodeToString(rec.Modulus),
		Message:   hex.EncodeToString(rec.Message),
		Signature: hex.EncodeToString(rec.Signature),
		KeyHash:   rec.KeyHash().StringPrefixed(),
		Address:   address.Uint160ToString(rec.KeyHash()),
		Request:   len(req),
	}
	b, err := yaml.Marshal(info)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = ctx.App.Writer.Write(b)
	return nil
}

// verifier holds what both verification commands share: the opened ledger,
// the deployment and the module cell dep.
type verifier struct {
	cfg config.Config
	v   *txverifier.Verifier
	d   script.Deployment
	dep transaction.OutPoint
	log *zap.Logger
	l   *ledger.Ledger
}

func newVerifier(ctx *cli.Context) (*verifier, error) {
	cfg, l, log, err := options.InitLedger(ctx)
	if err != nil {
		return nil, err
	}
	res := &verifier{cfg: cfg, log: log, l: l}
	if err := res.init(); err != nil {
		res.close()
		return nil, cli.NewExitError(err, 1)
	}
	return res, nil
}

func (r *verifier) init() error {
	var err error
	r.d, err = r.cfg.ProtocolConfiguration.Deployment()
	if err != nil {
		return err
	}
	identity, sh, err := r.cfg.ProtocolConfiguration.CodeHashes()
	if err != nil {
		return err
	}
	dep, ok, err := module.FindModule(r.l, r.d.VerifierHash)
	if err != nil {
		return err
	}
	if !ok {
		return errNotDeployed
	}
	r.dep = dep

	linker := dl.NewLinker()
	rsalib.Register(linker)
	scripts := map[util.Uint256]txverifier.Entry{identity: txverifier.IdentityEntry(r.d)}
	if !sh.Equals(util.Uint256{}) {
		scripts[sh] = txverifier.SighashEntry(r.d)
	}
	r.v = &txverifier.Verifier{
		Scripts: scripts,
		Cells:   r.l,
		Linker:  linker,
		Log:     r.log,
	}
	return nil
}

func (r *verifier) close() {
	_ = r.l.Close()
	_ = r.log.Sync()
}

// verifyTx runs the scripts of tx, a script rejection is reported with its
// exit code.
func (r *verifier) verifyTx(tx *transaction.Transaction) error {
	err := r.v.VerifyTx(tx)
	if err != nil {
		var serr *txverifier.ScriptError
		if errors.As(err, &serr) && serr.Code > 0 {
			return cli.NewExitError(err, int(serr.Code))
		}
		return cli.NewExitError(err, 1)
	}
	return nil
}

func verify(ctx *cli.Context) error {
	data, _, err := readRecord(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	args, err := parseArgs(ctx.String("args"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("bad args: %w", err), 1)
	}
	r, err := newVerifier(ctx)
	if err != nil {
		return err
	}
	defer r.close()

	identity, _, err := r.cfg.ProtocolConfiguration.CodeHashes()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	ts := &transaction.Script{CodeHash: identity, Args: args}
	tx := transaction.New([]transaction.Output{{Lock: *ts, Type: ts}}, [][]byte{data})
	tx.CellDeps = []transaction.OutPoint{r.dep}
	if err := r.verifyTx(tx); err != nil {
		return err
	}
	r.log.Debug("record verified", zap.Stringer("layout", r.d.Layout))
	fmt.Fprintln(ctx.App.Writer, "OK")
	return nil
}

// sighash creates a transaction with a cell locked to the key hash, signs it
// with the key and verifies it.
func sighash(ctx *cli.Context) error {
	keyPath := ctx.String("key")
	if keyPath == "" {
		return cli.NewExitError(errNoKey, 1)
	}
	key, err := readPrivateKey(keyPath)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("can't read key: %w", err), 1)
	}
	if key.E <= 0 || uint64(key.E) > uint64(^uint32(0)) {
		return cli.NewExitError(fmt.Errorf("exponent %d doesn't fit", key.E), 1)
	}
	modulus := util.ReversedCopy(key.N.FillBytes(make([]byte, key.Size())))
	keyHash := codec.KeyHash(uint32(key.E), modulus)
	if s := ctx.String("keyhash"); s != "" {
		b, err := parseArgs(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("bad key hash: %w", err), 1)
		}
		keyHash, err = util.Uint160DecodeBytes(b)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("bad key hash: %w", err), 1)
		}
	}
	r, err := newVerifier(ctx)
	if err != nil {
		return err
	}
	defer r.close()

	_, sh, err := r.cfg.ProtocolConfiguration.CodeHashes()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if sh.Equals(util.Uint256{}) {
		return cli.NewExitError(errNoSighash, 1)
	}
	ts := &transaction.Script{CodeHash: sh, Args: []byte{}}
	tx := transaction.New([]transaction.Output{{Lock: *ts, Type: ts}}, [][]byte{keyHash.BytesBE()})
	tx.CellDeps = []transaction.OutPoint{r.dep}

	h := tx.Hash()
	digest := sha256.Sum256(h.BytesBE())
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("can't sign: %w", err), 1)
	}
	req, err := codec.EncodeVerifierRequest(modulus, uint32(key.E), sig)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tx.Witnesses = [][]byte{req}
	fmt.Fprintln(ctx.App.Writer, h.StringPrefixed())
	if err := r.verifyTx(tx); err != nil {
		return err
	}
	r.log.Debug("transaction signature verified", zap.Stringer("tx", h))
	fmt.Fprintln(ctx.App.Writer, "OK")
	return nil
}

// parseArgs accepts an identity address or raw hex script args.
func parseArgs(s string) ([]byte, error) {
	if u, err := address.StringToUint160(s); err == nil {
		return u.BytesBE(), nil
	}
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
