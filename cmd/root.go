// Package cmd is for command line interactions with the mhcseq application
package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hammerlab/mhcseq/config"
)

var (
	// stderr is for failures that end the process
	stderr = log.New(os.Stderr, "", 0)

	// logger is built from the settings before any command runs
	logger = zap.NewNop()

	configPath string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "mhcseq",
	Short: `Derive MHC allele pseudosequences from aligned protein sequences.
Alleles that share a pseudosequence but need to be told apart get extra columns`,
	Version:      "0.1.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return err
		}

		l, err := newLogger(viper.GetBool("verbose"))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		stderr.Fatalf("%v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default is $HOME/.mhcseq/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "whether to log debug output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// newLogger returns a JSON production logger, or a human readable
// development logger at debug level if verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
