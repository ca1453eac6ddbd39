package cmd

import (
	"context"
	"os"

	"github.com/creasty/defaults"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prison facet API",
	Long:  `Loads the prison list, keeps it refreshed and serves the facet mapping, choices and filter sessions.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func loadServerConfigFromFile(file string) (*server.Config, error) {
	if file == "" {
		file = "config.yaml"
	}

	config := &server.Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file) //nolint:gosec // User-provided config file path
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadServerConfigFromFile(cfgFile)
	if err != nil {
		return err
	}

	// --log-level wins over the config file
	if !cmd.Flags().Changed("log-level") {
		level, parseErr := logrus.ParseLevel(config.Logging)
		if parseErr != nil {
			return parseErr
		}
		logger.SetLevel(level)
	}

	logger.Info("Configuration loaded")

	ctx := context.Background()

	srv, err := server.NewServer(ctx, logger, config)
	if err != nil {
		return err
	}

	return srv.Start(ctx)
}
