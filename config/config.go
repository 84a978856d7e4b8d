// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// DeriveConfig is settings for deriving allele sequences from an alignment.
type DeriveConfig struct {
	// path to the aligned protein sequences (FASTA or Clustal)
	Alignment string `mapstructure:"alignment"`

	// path to a CSV of reference pseudosequences whose positions are recapitulated
	References string `mapstructure:"recapitulate-sequences"`

	// path to a list of 0-based alignment columns, an alternative to References
	Positions string `mapstructure:"positions"`

	// path to a list of alleles that need distinct sequences
	Differentiate string `mapstructure:"differentiate-alleles"`

	// alleles to write, all alleles in the alignment if empty
	Alleles []string `mapstructure:"alleles"`

	// the output path, stdout if empty
	Out string `mapstructure:"out"`

	// output format, csv or json. Guessed from Out when empty
	Format string `mapstructure:"format"`

	// header field to name sequences by, 0 is the FASTA ID
	HeaderField int `mapstructure:"header-field"`

	// whether to normalize names to two-field alleles
	Normalize bool `mapstructure:"normalize"`

	// the max number of columns to append to a group, 0 for no limit
	MaxAppended int `mapstructure:"max-appended"`

	// whether to skip columns with gaps when differentiating alleles
	SkipGaps bool `mapstructure:"skip-gaps"`

	// whether incomplete differentiation is an error
	Strict bool `mapstructure:"strict"`
}

// TrainConfig is settings for the external model training command.
type TrainConfig struct {
	// whether to train models after deriving sequences
	Enabled bool `mapstructure:"enabled"`

	// the training executable
	Command string `mapstructure:"command"`

	// CSV of binding measurements with mhc, peptide, peptide_length and meas columns
	BindingData string `mapstructure:"binding-data"`

	// don't train predictors for alleles with fewer samples
	MinSamplesPerAllele int `mapstructure:"min-samples-per-allele"`

	// alleles to train, all alleles in the binding data if empty
	Alleles []string `mapstructure:"alleles"`

	// extra arguments passed through to the training command
	Args []string `mapstructure:"args"`
}

// PipelineConfig is settings for the download, align, derive, train pipeline.
type PipelineConfig struct {
	// directory all intermediate and final files are written to
	WorkDir string `mapstructure:"workdir"`

	// URL of the protein sequences to align
	SourceURL string `mapstructure:"source-url"`

	// download command, "{url}" and "{out}" are replaced
	Download string `mapstructure:"download"`

	// the clustalo executable
	Clustalo string `mapstructure:"clustalo"`

	// threads passed to clustalo
	Threads int `mapstructure:"threads"`

	// max number of concurrently running tasks
	MaxTasks int `mapstructure:"max-tasks"`

	// whether to package the results into a tar.bz2 archive
	Archive bool `mapstructure:"archive"`

	Train TrainConfig `mapstructure:"train"`
}

// Config is the root-level settings struct and is a mix
// of settings available in config.yaml, MHCSEQ_ environment variables
// and those available from the command line
type Config struct {
	// Verbose is whether to log debug output
	Verbose bool `mapstructure:"verbose"`

	Derive DeriveConfig `mapstructure:"derive"`

	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// EnvPrefix is the prefix of environment variables that override settings,
// ex: MHCSEQ_PIPELINE_CLUSTALO
const EnvPrefix = "MHCSEQ"

// SetDefaults sets the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)

	v.SetDefault("derive.header-field", 0)
	v.SetDefault("derive.normalize", false)
	v.SetDefault("derive.max-appended", 0)
	v.SetDefault("derive.skip-gaps", false)
	v.SetDefault("derive.strict", false)

	v.SetDefault("pipeline.workdir", "mhcseq-pipeline")
	v.SetDefault("pipeline.source-url", "https://ftp.ebi.ac.uk/pub/databases/ipd/imgt/hla/hla_prot.fasta")
	v.SetDefault("pipeline.download", "wget -q {url} -O {out}")
	v.SetDefault("pipeline.clustalo", "clustalo")
	v.SetDefault("pipeline.threads", runtime.NumCPU())
	v.SetDefault("pipeline.max-tasks", 2)
	v.SetDefault("pipeline.archive", true)

	v.SetDefault("pipeline.train.enabled", false)
	v.SetDefault("pipeline.train.command", "mhcflurry-class1-train-allele-specific-models")
	v.SetDefault("pipeline.train.min-samples-per-allele", 5)
}

// Init sets up the global viper instance: defaults, the MHCSEQ_ environment
// and the settings file. If path is empty, $HOME/.mhcseq/config.yaml is
// read if it exists.
func Init(path string) error {
	return load(viper.GetViper(), path)
}

func load(v *viper.Viper, path string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".mhcseq", "config.yaml")
		if _, err := os.Stat(path); err != nil {
			return nil // optional
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// New returns a new Config struct populated by Viper settings (either from
// the settings file, the environment and/or command line arguments)
func New() (*Config, error) {
	return from(viper.GetViper())
}

func from(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}
	return &c, nil
}

// Validate checks that the settings needed for a derivation are present.
func (d DeriveConfig) Validate() error {
	if d.Alignment == "" {
		return fmt.Errorf("no alignment set")
	}
	if d.References == "" && d.Positions == "" {
		return fmt.Errorf("one of recapitulate-sequences or positions is required")
	}
	if d.References != "" && d.Positions != "" {
		return fmt.Errorf("recapitulate-sequences and positions are mutually exclusive")
	}
	if d.HeaderField < 0 {
		return fmt.Errorf("header-field must be >= 0, got %d", d.HeaderField)
	}
	if d.MaxAppended < 0 {
		return fmt.Errorf("max-appended must be >= 0, got %d", d.MaxAppended)
	}
	return nil
}

// Validate checks the pipeline settings.
func (p PipelineConfig) Validate() error {
	if p.WorkDir == "" {
		return fmt.Errorf("no pipeline workdir set")
	}
	if p.SourceURL == "" {
		return fmt.Errorf("no source-url set")
	}
	if !strings.Contains(p.Download, "{url}") || !strings.Contains(p.Download, "{out}") {
		return fmt.Errorf("download command %q must contain {url} and {out}", p.Download)
	}
	if p.Threads < 1 || p.MaxTasks < 1 {
		return fmt.Errorf("threads and max-tasks must be positive")
	}
	if p.Train.Enabled {
		if p.Train.BindingData == "" {
			return fmt.Errorf("training requires binding-data")
		}
		if p.Train.MinSamplesPerAllele < 0 {
			return fmt.Errorf("min-samples-per-allele must be >= 0")
		}
	}
	return nil
}
