package pseudoseq

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hammerlab/mhcseq/internal/alignment"
)

// Reference is an allele's known pseudosequence, ex: a row of
// class1_pseudosequences.csv.
type Reference struct {
	Allele         string
	Pseudosequence string
}

// Recapitulate finds the alignment columns that best reproduce a set of
// reference pseudosequences. For a pseudosequence of length K it returns
// K strictly increasing columns that maximize the number of reference
// residues matched across all reference alleles in the alignment. Ties go
// to the leftmost columns.
//
// References for alleles that aren't in the alignment are skipped.
func Recapitulate(aln *alignment.Alignment, refs []Reference, logger *zap.Logger) (Positions, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if aln == nil || aln.Size() == 0 || aln.Len() == 0 {
		return nil, &InputFormatError{Msg: "alignment is empty"}
	}

	var rows, pseqs []string
	k := -1
	skipped := 0
	for _, ref := range refs {
		row, ok := aln.Row(ref.Allele)
		if !ok {
			skipped++
			continue
		}

		pseq := strings.ToUpper(ref.Pseudosequence)
		if k == -1 {
			k = len(pseq)
		}
		if len(pseq) != k {
			return nil, &InputFormatError{
				Msg: fmt.Sprintf("pseudosequence of %s has length %d, expected %d", ref.Allele, len(pseq), k),
			}
		}

		rows = append(rows, row.Residues)
		pseqs = append(pseqs, pseq)
	}

	switch {
	case len(rows) == 0:
		return nil, &InputFormatError{Msg: "no reference alleles found in the alignment"}
	case k == 0:
		return nil, &InputFormatError{Msg: "reference pseudosequences are empty"}
	case k > aln.Len():
		return nil, &InputFormatError{
			Msg: fmt.Sprintf("pseudosequence length %d exceeds alignment length %d", k, aln.Len()),
		}
	}

	n := aln.Len()
	score := func(i, col int) int {
		matched := 0
		for r, row := range rows {
			if row[col] == pseqs[r][i] {
				matched++
			}
		}
		return matched
	}

	// best[i][c] is the highest score for pseudosequence positions 0..i with
	// position i placed at column c. from[i][c] is the column of position i-1.
	best := make([][]int, k)
	from := make([][]int, k)
	for i := range best {
		best[i] = make([]int, n)
		from[i] = make([]int, n)
		for c := range best[i] {
			best[i][c] = -1
			from[i][c] = -1
		}
	}

	for c := 0; c <= n-k; c++ {
		best[0][c] = score(0, c)
	}
	for i := 1; i < k; i++ {
		prefix, prefixCol := -1, -1
		for c := i; c <= n-k+i; c++ {
			if prev := best[i-1][c-1]; prev > prefix {
				prefix, prefixCol = prev, c-1
			}
			best[i][c] = prefix + score(i, c)
			from[i][c] = prefixCol
		}
	}

	end, total := -1, -1
	for c := k - 1; c < n; c++ {
		if best[k-1][c] > total {
			end, total = c, best[k-1][c]
		}
	}

	positions := make(Positions, k)
	for i, c := k-1, end; i >= 0; i-- {
		positions[i] = c
		c = from[i][c]
	}

	logger.Info("recapitulated pseudosequence positions",
		zap.Int("references", len(rows)),
		zap.Int("skipped", skipped),
		zap.Int("matched", total),
		zap.Int("possible", len(rows)*k),
		zap.String("positions", positions.String()),
	)

	return positions, nil
}
