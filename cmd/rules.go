package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interest-filter/internal/domain"
	"github.com/spigell/interest-filter/internal/validation"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the tag vocabulary and the configured validation checks",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup()

		validator, err := validation.New(config.Validation)
		if err != nil {
			logger.Fatal("building validator", zap.Error(err))
		}

		printRules(cmd.OutOrStdout(), validator)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func printRules(w io.Writer, validator *validation.Validator) {
	fmt.Fprintln(w, "Allowed tags:")
	for _, t := range domain.AllowedTags() {
		fmt.Fprintf(w, "  %-18s %s\n", t.Tag, t.Description)
	}

	fmt.Fprintln(w, "\nChecks (in order):")
	for n, status := range validator.Describe() {
		keys := make([]string, 0, len(status.Details))
		for k := range status.Details {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		details := make([]string, 0, len(keys))
		for _, k := range keys {
			details = append(details, k+"="+status.Details[k])
		}
		fmt.Fprintf(w, "  %d. %s %s\n", n+1, status.Name, strings.Join(details, " "))
	}
}
