package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/rsa-identity/cli/module"
	"github.com/nspcc-dev/rsa-identity/cli/record"
	"github.com/nspcc-dev/rsa-identity/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "RSA identity\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "rsa-identity"
	ctl.Version = config.Version
	ctl.Usage = "RSA identity records and verification module tooling"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, module.NewCommands()...)
	ctl.Commands = append(ctl.Commands, record.NewCommands()...)
	return ctl
}
