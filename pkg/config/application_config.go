package config

import (
	"fmt"

	"github.com/nspcc-dev/rsa-identity/pkg/core/storage/dbconfig"
	"go.uber.org/zap/zapcore"
)

// DBConfiguration is the ledger storage configuration.
type DBConfiguration = dbconfig.DBConfiguration

// ApplicationConfiguration config specific to the tool.
type ApplicationConfiguration struct {
	LogLevel        string          `yaml:"LogLevel"`
	LogPath         string          `yaml:"LogPath"`
	DBConfiguration DBConfiguration `yaml:"DBConfiguration"`
}

// Validate checks ApplicationConfiguration for internal consistency.
func (a ApplicationConfiguration) Validate() error {
	if a.LogLevel != "" {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("log setting: %w", err)
		}
	}
	switch a.DBConfiguration.Type {
	case dbconfig.InMemoryDB, dbconfig.BoltDB, dbconfig.LevelDB:
	default:
		return fmt.Errorf("unknown DB type: %q", a.DBConfiguration.Type)
	}
	return nil
}
