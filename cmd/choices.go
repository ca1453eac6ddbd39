package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/i18n"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/spf13/cobra"
)

// ErrUnknownOutputFormat is returned for an unsupported --output value
var ErrUnknownOutputFormat = errors.New("unknown output format")

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	choicesLang  string
	choicesFacet string
)

// choicesCmd lists the selector choices
//
//nolint:gochecknoglobals // Cobra commands are typically global
var choicesCmd = &cobra.Command{
	Use:               "choices",
	Short:             "List the region, category and type choices of the prison filter",
	PersistentPreRunE: quietUnlessLogLevelSet,
	RunE:              runChoices,
}

func init() {
	rootCmd.AddCommand(choicesCmd)
	addPrisonsFlag(choicesCmd)
	choicesCmd.Flags().StringVar(&choicesLang, "lang", i18n.BaseLocale, "locale of the labels")
	choicesCmd.Flags().StringVar(&choicesFacet, "facet", "", "only list one facet (region, category, population)")
}

func runChoices(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	selected := facets.AllFacets()
	if choicesFacet != "" {
		facet, err := facets.ParseFacet(choicesFacet)
		if err != nil {
			return err
		}
		selected = []facets.Facet{facet}
	}

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

	printChoices(cmd.OutOrStdout(), list, bundle, bundle.Resolve(choicesLang, ""), selected)

	return nil
}

func printChoices(out io.Writer, list *prisons.List, bundle *i18n.Bundle, locale string, selected []facets.Facet) {
	for i, facet := range selected {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintf(out, "%s\n", bundle.FacetLabel(locale, facet))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "VALUE\tLABEL")
		_, _ = fmt.Fprintf(w, "%s\t%s\n", "-", bundle.BlankChoiceLabel(locale, facet))
		for _, choice := range list.FacetChoices(facet) {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", choice.Value, choice.Label)
		}
		_ = w.Flush()
	}
}
