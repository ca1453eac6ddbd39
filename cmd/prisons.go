package cmd

import (
	"context"
	"fmt"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/spf13/cobra"
)

// staticList serves a list loaded once for a CLI invocation
type staticList struct {
	list *prisons.List
}

func (s *staticList) List() (*prisons.List, error) {
	return s.list, nil
}

// addPrisonsFlag registers --prisons, which overrides the configured source with a file
func addPrisonsFlag(cmd *cobra.Command) {
	cmd.Flags().String("prisons", "", "prison list JSON file (overrides the configured source)")
}

// loadPrisonList reads the prison list from the --prisons file or the configured source
func loadPrisonList(ctx context.Context, cmd *cobra.Command) (*prisons.List, error) {
	cfg, err := LoadCLIConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if file, _ := cmd.Flags().GetString("prisons"); file != "" {
		cfg.Prisons.File = file
		cfg.Prisons.APIURL = ""
	}

	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, validationErr
	}

	source := cfg.Prisons.NewSource()

	records, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load prisons from %s: %w", source.Name(), err)
	}

	logger.WithField("prisons", len(records)).Debug("Loaded prison list")

	return prisons.NewList(records, cfg.Prisons.Options), nil
}
