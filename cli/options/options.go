/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/config"
	"github.com/nspcc-dev/rsa-identity/pkg/core/ledger"
	"github.com/nspcc-dev/rsa-identity/pkg/core/storage"
	"github.com/nspcc-dev/rsa-identity/pkg/io"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConfigFile is a flag for commands that use the tool configuration.
var ConfigFile = cli.StringFlag{
	Name:  "config-file, c",
	Usage: "path to the configuration file (" + config.DefaultConfigPath + " by default)",
}

// Debug is a flag for commands that allow debug mode usage.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// Layout is a flag overriding the configured record layout.
var Layout = cli.StringFlag{
	Name:  "layout, l",
	Usage: "record layout (rsa1024, rsa2048 or rsa4096), overrides configuration",
}

// Ledger is a set of flags for commands working with the ledger.
var Ledger = []cli.Flag{ConfigFile, Debug}

// GetConfigFromContext loads the config the file flag points to, the
// default one is used if there is no flag.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.String("config-file"))
	if err != nil {
		return cfg, err
	}
	if l := ctx.String("layout"); l != "" {
		cfg.ProtocolConfiguration.Layout = l
		if err := cfg.ProtocolConfiguration.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := io.MakeDirForFile(logPath, "logger"); err != nil {
			return nil, nil, err
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

// InitLedger loads the configuration, sets up logging and opens the ledger
// it describes. The caller must close the ledger and sync the logger.
func InitLedger(ctx *cli.Context) (config.Config, *ledger.Ledger, *zap.Logger, error) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return cfg, nil, nil, cli.NewExitError(err, 1)
	}
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return cfg, nil, nil, cli.NewExitError(err, 1)
	}
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return cfg, nil, nil, cli.NewExitError(fmt.Errorf("could not initialize storage: %w", err), 1)
	}
	return cfg, ledger.New(store, log), log, nil
}
