package controllers

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
)

// loadSettings resolves the configuration file from --config, then
// REQGUARD_CONFIG, then the default locations. Running without any file is
// fine since every setting has an environment override.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(entities.ConfigEnvVar)
	}
	if path == "" {
		if found, err := entities.FindConfigFile(); err == nil {
			path = found
		}
	}

	if path != "" {
		logger.Infof("Using config file: %s", path)
	}
	return entities.NewSettings(path)
}
