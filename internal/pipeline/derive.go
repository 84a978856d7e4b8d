package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hammerlab/mhcseq/config"
	"github.com/hammerlab/mhcseq/internal/alignment"
	"github.com/hammerlab/mhcseq/internal/allele"
	"github.com/hammerlab/mhcseq/internal/pseudoseq"
)

// Derive reads the alignment and reference inputs named in the settings,
// derives a sequence for each allele and writes them to d.Out.
func Derive(d config.DeriveConfig, logger *zap.Logger) (*pseudoseq.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	format, err := pseudoseq.ParseFormat(d.Format)
	if err != nil {
		return nil, err
	}
	if d.Format == "" && d.Out != "" {
		format = pseudoseq.FormatFromPath(d.Out)
	}

	aln, err := alignment.Read(d.Alignment, alignment.ReadOptions{
		HeaderField: d.HeaderField,
		Normalize:   d.Normalize,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("read alignment",
		zap.String("path", d.Alignment),
		zap.Int("sequences", aln.Size()),
		zap.Int("columns", aln.Len()),
	)

	var positions pseudoseq.Positions
	if d.References != "" {
		refs, err := pseudoseq.ReadReferences(d.References)
		if err != nil {
			return nil, err
		}
		if d.Normalize {
			refs = normalizeReferences(refs, logger)
		}
		if positions, err = pseudoseq.Recapitulate(aln, refs, logger); err != nil {
			return nil, err
		}
	} else if positions, err = pseudoseq.ReadPositions(d.Positions); err != nil {
		return nil, err
	}

	ambiguous := pseudoseq.NewAlleleSet()
	if d.Differentiate != "" {
		alleles, err := pseudoseq.ReadAlleles(d.Differentiate)
		if err != nil {
			return nil, err
		}
		if d.Normalize {
			if alleles, err = normalizeAll(alleles); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", d.Differentiate, err)
			}
		}
		ambiguous = pseudoseq.NewAlleleSet(alleles...)
	}

	selected := d.Alleles
	if d.Normalize && len(selected) > 0 {
		if selected, err = normalizeAll(selected); err != nil {
			return nil, err
		}
	}

	result, err := pseudoseq.Derive(aln, positions, ambiguous, pseudoseq.Options{
		Alleles:        selected,
		MaxAppended:    d.MaxAppended,
		SkipGapColumns: d.SkipGaps,
		Strict:         d.Strict,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	if err := pseudoseq.Write(d.Out, format, d.Alignment, result); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeReferences normalizes reference allele names, dropping those that can't be.
func normalizeReferences(refs []pseudoseq.Reference, logger *zap.Logger) []pseudoseq.Reference {
	normalized := make([]pseudoseq.Reference, 0, len(refs))
	for _, ref := range refs {
		name, err := allele.Normalize(ref.Allele)
		if err != nil {
			logger.Debug("skipping reference", zap.String("allele", ref.Allele), zap.Error(err))
			continue
		}
		normalized = append(normalized, pseudoseq.Reference{Allele: name, Pseudosequence: ref.Pseudosequence})
	}
	return normalized
}

func normalizeAll(alleles []string) ([]string, error) {
	normalized := make([]string, len(alleles))
	for i, a := range alleles {
		n, err := allele.Normalize(a)
		if err != nil {
			return nil, err
		}
		normalized[i] = n
	}
	return normalized, nil
}
