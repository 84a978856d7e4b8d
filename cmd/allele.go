package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hammerlab/mhcseq/internal/allele"
)

// alleleCmd is for checking how allele names are normalized
var alleleCmd = &cobra.Command{
	Use:     "allele [name]...",
	Short:   "Print the normalized, two-field name of alleles",
	Args:    cobra.MinimumNArgs(1),
	Aliases: []string{"normalize"},
	Example: "  mhcseq allele A*02:01:01:01 HLA-B5701 H2Kb",
	RunE:    alleleExec,
}

func init() {
	rootCmd.AddCommand(alleleCmd)
}

// alleleExec prints each name that can be normalized and returns an
// error for those that can't.
func alleleExec(cmd *cobra.Command, args []string) error {
	var errs []error
	for _, name := range args {
		normalized, err := allele.Normalize(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, normalized)
	}
	return errors.Join(errs...)
}
