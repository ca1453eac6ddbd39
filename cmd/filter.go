package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/i18n"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/session"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	filterRegion     string
	filterCategory   string
	filterPopulation string
	filterLang       string
	filterOutput     string
)

// filterCmd runs one filter pass over the prison list
//
//nolint:gochecknoglobals // Cobra commands are typically global
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Show which prisons a region, category and type selection leaves selectable",
	Long: `Runs the prison filter once with the given selections and prints every prison
with its visibility, followed by the filter mode and the catch-all label.`,
	PersistentPreRunE: quietUnlessLogLevelSet,
	RunE:              runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	addPrisonsFlag(filterCmd)
	filterCmd.Flags().StringVar(&filterRegion, "region", "", "selected region")
	filterCmd.Flags().StringVar(&filterCategory, "category", "", "selected category")
	filterCmd.Flags().StringVar(&filterPopulation, "population", "", "selected population")
	filterCmd.Flags().StringVar(&filterLang, "lang", i18n.BaseLocale, "locale of the labels")
	filterCmd.Flags().StringVarP(&filterOutput, "output", "o", "table", "output format (table, json)")
}

// quietUnlessLogLevelSet keeps one-shot commands to errors unless --log-level is given
func quietUnlessLogLevelSet(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("log-level") {
		logger.SetLevel(logrus.ErrorLevel)
	}

	return nil
}

func runFilter(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	list, err := loadPrisonList(ctx, cmd)
	if err != nil {
		return err
	}

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		return err
	}

	svc := session.NewService(logger, session.NewMemoryStore(time.Minute), &staticList{list: list}, bundle)

	view, err := svc.Create(ctx, bundle.Resolve(filterLang, ""), facets.SelectorState{
		Region:     filterRegion,
		Category:   filterCategory,
		Population: filterPopulation,
	})
	if err != nil {
		return err
	}

	return printFilterView(cmd.OutOrStdout(), view, filterOutput)
}

func printFilterView(out io.Writer, view *session.View, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(view)
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "PRISON\tNAME\tVISIBLE\tENABLED")
		for _, option := range view.Options {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", option.ID, option.Label, option.Visible, option.Enabled)
		}
		_ = w.Flush()

		_, _ = fmt.Fprintf(out, "\nMode: %s\nEligible: %d of %d\nLabel: %s\n",
			view.Mode, view.Eligible, len(view.Options), view.CatchAllLabel)

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutputFormat, format)
	}
}
