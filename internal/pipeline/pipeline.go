// Package pipeline runs the steps that produce allele sequences and,
// optionally, trained models: download protein sequences, align them
// with clustalo, derive allele sequences, train with the external
// mhcflurry training command and package the results.
//
// Every step other than the derivation is an external program run by scipipe.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sp "github.com/scipipe/scipipe"
	"go.uber.org/zap"

	"github.com/hammerlab/mhcseq/config"
	"github.com/hammerlab/mhcseq/internal/pseudoseq"
)

// Step is a single process in the pipeline.
type Step struct {
	// Name of the process, ex: "align"
	Name string

	// Command run by the process, with scipipe {i:...} and {o:...} placeholders.
	// Empty for steps run in-process.
	Command string
}

// Pipeline is a planned scipipe workflow.
type Pipeline struct {
	wf    *sp.Workflow
	steps []Step

	// paths of the final outputs
	sequences string
	archive   string
	models    string
}

// Plan validates the settings and builds the pipeline's workflow.
func Plan(conf *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pc := conf.Pipeline
	if err := pc.Validate(); err != nil {
		return nil, err
	}

	// the alignment is produced by the workflow
	derive := conf.Derive
	derive.Alignment = "-"
	if err := derive.Validate(); err != nil {
		return nil, err
	}

	if conf.Verbose {
		sp.InitLogInfo()
	} else {
		sp.InitLogError()
	}

	p := &Pipeline{
		wf:        sp.NewWorkflow("mhcseq", pc.MaxTasks),
		sequences: filepath.Join(pc.WorkDir, "allele_sequences.csv"),
	}

	download := p.proc("download", downloadCommand(pc.Download, pc.SourceURL))
	download.SetOut("fasta", filepath.Join(pc.WorkDir, sourceName(pc.SourceURL)))

	align := p.proc("align", fmt.Sprintf(
		"%s -i {i:fasta} -o {o:aligned} --outfmt=fa --threads=%d --force",
		pc.Clustalo, pc.Threads,
	))
	align.SetOut("aligned", filepath.Join(pc.WorkDir, "aligned.fasta"))
	align.In("fasta").From(download.Out("fasta"))

	// run in-process, the pattern only declares the ports
	deriveProc := p.wf.NewProc("derive", "# {i:aligned} {o:sequences}")
	p.steps = append(p.steps, Step{Name: "derive"})
	deriveProc.SetOut("sequences", p.sequences)
	deriveProc.In("aligned").From(align.Out("aligned"))
	deriveProc.CustomExecute = func(t *sp.Task) {
		d := conf.Derive
		d.Alignment = t.InPath("aligned")
		// scipipe moves outputs from the task's temp dir once the task succeeds
		d.Out = filepath.Join(t.TempDir(), t.OutIP("sequences").TempPath())
		d.Format = string(pseudoseq.CSV)
		if _, err := Derive(d, logger); err != nil {
			logger.Fatal("failed to derive allele sequences", zap.Error(err))
		}
	}

	archiveInputs := []string{"{i:sequences}"}
	var train *sp.Process
	if pc.Train.Enabled {
		p.models = filepath.Join(pc.WorkDir, "models")
		train = p.proc("train", trainCommand(pc.Train))
		train.SetOut("models", p.models)
		archiveInputs = append(archiveInputs, "{i:models}")
	}

	if pc.Archive {
		p.archive = filepath.Join(pc.WorkDir, archiveName(time.Now(), pc.Train.Enabled))
		archive := p.proc("package", "tar -cjf {o:archive} "+strings.Join(archiveInputs, " "))
		archive.SetOut("archive", p.archive)
		archive.In("sequences").From(deriveProc.Out("sequences"))
		if train != nil {
			archive.In("models").From(train.Out("models"))
		}
	}

	logger.Debug("planned pipeline", zap.Int("steps", len(p.steps)))
	return p, nil
}

// proc adds a process to the workflow and records its step.
func (p *Pipeline) proc(name, command string) *sp.Process {
	p.steps = append(p.steps, Step{Name: name, Command: command})
	return p.wf.NewProc(name, command)
}

// Steps returns the pipeline's steps in the order they were planned.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Sequences is the path the allele sequences are written to.
func (p *Pipeline) Sequences() string {
	return p.sequences
}

// Archive is the path of the packaged results, empty if they aren't packaged.
func (p *Pipeline) Archive() string {
	return p.archive
}

// Models is the directory trained models are written to, empty if not training.
func (p *Pipeline) Models() string {
	return p.models
}

// Run executes the workflow. Steps whose outputs already exist are skipped.
func (p *Pipeline) Run() {
	p.wf.Run()
}

// downloadCommand fills in a download command template.
func downloadCommand(template, url string) string {
	r := strings.NewReplacer("{url}", shellQuote(url), "{out}", "{o:fasta}")
	return r.Replace(template)
}

// trainCommand builds the mhcflurry training command.
func trainCommand(t config.TrainConfig) string {
	args := []string{
		t.Command,
		"--binding-data-csv", shellQuote(t.BindingData),
		"--output-dir", "{o:models}",
		"--min-samples-per-allele", fmt.Sprint(t.MinSamplesPerAllele),
	}
	if len(t.Alleles) > 0 {
		args = append(args, "--alleles")
		for _, a := range t.Alleles {
			args = append(args, shellQuote(a))
		}
	}
	for _, a := range t.Args {
		args = append(args, shellQuote(a))
	}
	return strings.Join(args, " ")
}

// sourceName is the file name of a download, ex: hla_prot.fasta
func sourceName(url string) string {
	name := url
	if i := strings.LastIndexAny(name, "/?"); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	if name == "" || strings.ContainsAny(name, ":/?") {
		return "sequences.fasta"
	}
	return name
}

// archiveName is the name of the packaged results, ex: allele_sequences.20240102.tar.bz2
func archiveName(t time.Time, models bool) string {
	prefix := "allele_sequences"
	if models {
		prefix = "models_class1"
	}
	return fmt.Sprintf("%s.%s.tar.bz2", prefix, t.Format("20060102"))
}

// shellQuote single quotes a string for the shell if it has special characters.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=,@+", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
