package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hammerlab/mhcseq/config"
	"github.com/hammerlab/mhcseq/internal/pipeline"
)

// deriveCmd is for deriving allele sequences from an alignment
var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive a pseudosequence for each allele in an alignment",
	Long: `Derive a pseudosequence for each allele in an alignment

An allele's pseudosequence is its residues at a fixed set of alignment columns.
The columns are either read from a file of 0-based positions or found by
recapitulating a CSV of known pseudosequences, ex: class1_pseudosequences.csv,
against the alignment.

Alleles listed in "differentiate-alleles" that share a pseudosequence with
another allele get extra columns appended, left to right, until every allele
with a distinct aligned sequence has a distinct pseudosequence. Groups that
can't be told apart are logged as warnings, or are an error with "strict".`,
	Example: `  mhcseq derive --alignment aligned.fasta --recapitulate-sequences class1_pseudosequences.csv \
    --differentiate-alleles training_alleles.txt --header-field 1 --normalize --out allele_sequences.csv`,
	RunE: deriveExec,
}

func init() {
	rootCmd.AddCommand(deriveCmd)

	flags := deriveCmd.Flags()
	flags.StringP("alignment", "a", "", "aligned protein sequences in FASTA or Clustal format")
	flags.StringP("recapitulate-sequences", "r", "", "CSV with allele and pseudosequence columns to recapitulate")
	flags.StringP("positions", "p", "", "file of 0-based alignment columns")
	flags.StringP("differentiate-alleles", "d", "", "file of alleles that need distinct sequences")
	flags.StringP("out", "o", "", "output path (default stdout)")
	flags.StringP("format", "f", "", "output format: csv or json (default from out's extension, else csv)")
	flags.Int("header-field", 0, "whitespace separated header field to name sequences by, 0 is the ID")
	flags.Bool("normalize", false, "normalize sequence names to two-field alleles, ex: HLA-A*02:01")
	flags.StringSlice("alleles", nil, "only write these alleles")
	flags.Int("max-appended", 0, "max columns to append to a group of alleles (default no limit)")
	flags.Bool("skip-gaps", false, "don't append columns with gaps")
	flags.Bool("strict", false, "fail if alleles can't be differentiated")

	// Bind the parameters to viper
	for _, name := range []string{
		"alignment",
		"recapitulate-sequences",
		"positions",
		"differentiate-alleles",
		"out",
		"format",
		"header-field",
		"normalize",
		"alleles",
		"max-appended",
		"skip-gaps",
		"strict",
	} {
		viper.BindPFlag("derive."+name, flags.Lookup(name))
	}
}

func deriveExec(cmd *cobra.Command, args []string) error {
	conf, err := config.New()
	if err != nil {
		return err
	}

	result, err := pipeline.Derive(conf.Derive, logger)
	if err != nil {
		return err
	}

	if len(result.Incomplete) > 0 {
		logger.Warn("some alleles share a sequence", zap.Int("groups", len(result.Incomplete)))
	}
	return nil
}
