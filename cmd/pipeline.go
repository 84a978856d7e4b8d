package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hammerlab/mhcseq/config"
	"github.com/hammerlab/mhcseq/internal/pipeline"
)

var dryRun bool

// pipelineCmd is for the download, align, derive and train workflow
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Download, align and derive allele sequences, then optionally train models",
	Long: `Download, align and derive allele sequences, then optionally train models

The protein sequences at "pipeline.source-url" are downloaded and aligned
with clustalo. Allele sequences are derived from the alignment with the
"derive" settings (see "mhcseq derive --help") and written to the workdir.
With "train", the external mhcflurry training command is run on the binding
data. The results are packaged into a tar.bz2 archive.

Steps whose outputs already exist in the workdir are skipped.`,
	Example: "  mhcseq pipeline --config mhcseq.yaml --train --binding-data curated_training_data.csv",
	RunE:    pipelineExec,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)

	flags := pipelineCmd.Flags()
	flags.StringP("workdir", "w", "", "directory for intermediate and final files")
	flags.Bool("train", false, "train models on the derived sequences")
	flags.String("binding-data", "", "CSV of binding measurements to train on")
	flags.BoolVar(&dryRun, "dry-run", false, "print the steps without running them")

	viper.BindPFlag("pipeline.workdir", flags.Lookup("workdir"))
	viper.BindPFlag("pipeline.train.enabled", flags.Lookup("train"))
	viper.BindPFlag("pipeline.train.binding-data", flags.Lookup("binding-data"))
}

func pipelineExec(cmd *cobra.Command, args []string) error {
	conf, err := config.New()
	if err != nil {
		return err
	}

	p, err := pipeline.Plan(conf, logger)
	if err != nil {
		return err
	}

	if dryRun {
		for _, s := range p.Steps() {
			command := s.Command
			if command == "" {
				command = "(in-process)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s\n", s.Name, command)
		}
		return nil
	}

	if err := os.MkdirAll(conf.Pipeline.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create workdir: %w", err)
	}

	p.Run()

	logger.Info("finished pipeline",
		zap.String("sequences", p.Sequences()),
		zap.String("models", p.Models()),
		zap.String("archive", p.Archive()),
	)
	return nil
}
