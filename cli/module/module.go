/*
Package module implements commands managing the RSA verification module
image: writing it out, computing content hashes and deploying it as a cell.
*/
package module

import (
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/rsa-identity/cli/options"
	"github.com/nspcc-dev/rsa-identity/pkg/core/ledger"
	"github.com/nspcc-dev/rsa-identity/pkg/core/transaction"
	"github.com/nspcc-dev/rsa-identity/pkg/dl"
	"github.com/nspcc-dev/rsa-identity/pkg/native/rsalib"
	"github.com/nspcc-dev/rsa-identity/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	errNoOutput = errors.New("no output file specified, use '--out' flag")
	errNoCell   = errors.New("no cell specified, use '--cell' flag")
)

// NewCommands returns 'module' command.
func NewCommands() []cli.Command {
	inFlag := cli.StringFlag{
		Name:  "in, i",
		Usage: "module image file (the reference module image if not set)",
	}
	return []cli.Command{{
		Name:  "module",
		Usage: "RSA verification module image",
		Subcommands: []cli.Command{
			{
				Name:      "image",
				Usage:     "write the reference module image to a file",
				UsageText: "rsa-identity module image --out <file>",
				Action:    writeImage,
				Flags: []cli.Flag{
					cli.StringFlag{
						Name:  "out, o",
						Usage: "output file",
					},
				},
			},
			{
				Name:      "hash",
				Usage:     "print the content hash of a module image",
				UsageText: "rsa-identity module hash [--in <file>]",
				Action:    printHash,
				Flags:     []cli.Flag{inFlag},
			},
			{
				Name:      "deploy",
				Usage:     "deploy a module image as a ledger cell",
				UsageText: "rsa-identity module deploy [--in <file>] [--config-file <file>]",
				Action:    deploy,
				Flags:     append([]cli.Flag{inFlag}, options.Ledger...),
			},
			{
				Name:      "undeploy",
				Usage:     "consume a deployed module cell",
				UsageText: "rsa-identity module undeploy --cell <hash:index> [--config-file <file>]",
				Action:    undeploy,
				Flags: append([]cli.Flag{
					cli.StringFlag{
						Name:  "cell",
						Usage: "out point of the module cell as printed by 'module deploy'",
					},
				}, options.Ledger...),
			},
			{
				Name:      "list",
				Usage:     "list deployed module images",
				UsageText: "rsa-identity module list [--config-file <file>]",
				Action:    list,
				Flags:     options.Ledger,
			},
		},
	}}
}

func readImage(ctx *cli.Context) ([]byte, *dl.Image, error) {
	in := ctx.String("in")
	if in == "" {
		b := rsalib.ImageBytes()
		return b, rsalib.Image(), nil
	}
	b, err := os.ReadFile(in)
	if err != nil {
		return nil, nil, err
	}
	img, err := dl.ImageFromBytes(b)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", in, err)
	}
	return b, img, nil
}

func writeImage(ctx *cli.Context) error {
	out := ctx.String("out")
	if out == "" {
		return cli.NewExitError(errNoOutput, 1)
	}
	if err := os.WriteFile(out, rsalib.ImageBytes(), 0644); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, rsalib.ContentHash().StringPrefixed())
	return nil
}

func printHash(ctx *cli.Context) error {
	b, _, err := readImage(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, dl.ContentHash(b).StringPrefixed())
	return nil
}

func deploy(ctx *cli.Context) error {
	b, img, err := readImage(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, l, log, err := options.InitLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer l.Close()

	h := dl.ContentHash(b)
	if op, ok, err := FindModule(l, h); err != nil {
		return cli.NewExitError(err, 1)
	} else if ok {
		log.Info("module is already deployed", zap.Stringer("hash", h), zap.Stringer("cell", op))
		fmt.Fprintln(ctx.App.Writer, op)
		return nil
	}
	op, err := l.Deploy(transaction.Output{Lock: transaction.Script{Args: []byte{}}}, b)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to deploy module: %w", err), 1)
	}
	log.Info("module deployed",
		zap.Stringer("hash", h),
		zap.String("entry", img.Entry),
		zap.Stringer("cell", op))
	fmt.Fprintln(ctx.App.Writer, op)
	return nil
}

func undeploy(ctx *cli.Context) error {
	s := ctx.String("cell")
	if s == "" {
		return cli.NewExitError(errNoCell, 1)
	}
	op, err := transaction.OutPointFromString(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, l, log, err := options.InitLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer l.Close()

	c, err := l.GetCell(op)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if _, err := dl.ImageFromBytes(c.Data); err != nil {
		return cli.NewExitError(fmt.Errorf("cell %s is not a module: %w", op, err), 1)
	}
	if err := l.ConsumeCell(op); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to undeploy module: %w", err), 1)
	}
	log.Info("module undeployed",
		zap.Stringer("hash", dl.ContentHash(c.Data)),
		zap.Stringer("cell", op))
	fmt.Fprintln(ctx.App.Writer, dl.ContentHash(c.Data).StringPrefixed())
	return nil
}

func list(ctx *cli.Context) error {
	_, l, log, err := options.InitLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer l.Close()

	err = l.ForEachCell(func(c *ledger.Cell) bool {
		img, err := dl.ImageFromBytes(c.Data)
		if err != nil {
			return true
		}
		fmt.Fprintf(ctx.App.Writer, "%s\t%s\t%s\n", c.OutPoint, dl.ContentHash(c.Data).StringPrefixed(), img.Entry)
		return true
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

// FindModule looks for a live cell holding data with the given content
// hash.
func FindModule(l *ledger.Ledger, h util.Uint256) (transaction.OutPoint, bool, error) {
	var (
		res   transaction.OutPoint
		found bool
	)
	err := l.ForEachCell(func(c *ledger.Cell) bool {
		if dl.ContentHash(c.Data) == h {
			res, found = c.OutPoint, true
		}
		return !found
	})
	return res, found, err
}
