// Package pseudoseq derives fixed-length allele pseudosequences from a
// multiple sequence alignment of MHC protein sequences.
//
// Each allele's base pseudosequence is the residues at a fixed set of
// alignment columns (the contact positions). Alleles that need to be told
// apart, ex: those in a training set, but share a base pseudosequence get
// extra columns appended until their sequences differ.
package pseudoseq

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hammerlab/mhcseq/internal/alignment"
)

// Positions are 0-based alignment columns, in pseudosequence order.
type Positions []int

// AlleleSet is a set of allele names.
type AlleleSet map[string]struct{}

// NewAlleleSet creates a set from the alleles.
func NewAlleleSet(alleles ...string) AlleleSet {
	s := make(AlleleSet, len(alleles))
	for _, a := range alleles {
		s[a] = struct{}{}
	}
	return s
}

// Contains returns whether the allele is in the set.
func (s AlleleSet) Contains(allele string) bool {
	_, ok := s[allele]
	return ok
}

// Sorted returns the set's alleles in sorted order.
func (s AlleleSet) Sorted() []string {
	alleles := make([]string, 0, len(s))
	for a := range s {
		alleles = append(alleles, a)
	}
	sort.Strings(alleles)
	return alleles
}

// Derived is a single allele's derived sequence.
type Derived struct {
	// Allele's name as it's in the alignment
	Allele string `json:"allele"`

	// Sequence is the base pseudosequence plus the residues of any appended columns
	Sequence string `json:"sequence"`

	// Appended are the columns appended to differentiate the allele's group
	Appended []int `json:"appended,omitempty"`
}

// Result of a derivation.
type Result struct {
	// Positions used for the base pseudosequence
	Positions Positions `json:"positions"`

	// Sequences sorted by allele
	Sequences []Derived `json:"sequences"`

	// Incomplete are the groups that couldn't be fully differentiated
	Incomplete []DisambiguationIncomplete `json:"incomplete,omitempty"`
}

// Options for Derive.
type Options struct {
	// Alleles to write. Empty means every allele in the alignment.
	Alleles []string

	// MaxAppended caps the number of columns appended to a group. 0 is no cap.
	MaxAppended int

	// SkipGapColumns ignores a column for a group if any member has a gap there.
	SkipGapColumns bool

	// Strict turns a DisambiguationIncomplete into an error.
	Strict bool

	Logger *zap.Logger
}

// Derive makes a pseudosequence for each allele in the alignment from the
// residues at positions. Groups of alleles that share a pseudosequence and
// include an ambiguous allele are extended, left to right, with the columns
// outside positions that split them.
func Derive(aln *alignment.Alignment, positions Positions, ambiguous AlleleSet, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if aln == nil || aln.Size() == 0 || aln.Len() == 0 {
		return nil, &InputFormatError{Msg: "alignment is empty"}
	}
	if err := positions.validate(aln.Len()); err != nil {
		return nil, err
	}

	var missing []error
	for _, a := range ambiguous.Sorted() {
		if _, ok := aln.Row(a); !ok {
			missing = append(missing, &LookupError{Allele: a})
		}
	}
	for _, a := range opts.Alleles {
		if _, ok := aln.Row(a); !ok && !ambiguous.Contains(a) {
			missing = append(missing, &LookupError{Allele: a})
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	// group alleles by their base pseudosequence
	rows := aln.Rows()
	base := make(map[string]string, len(rows))
	groups := make(map[string][]alignment.Row)
	for _, r := range rows {
		b := positions.extract(r.Residues)
		base[r.Name] = b
		groups[b] = append(groups[b], r)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	appended := make(map[string][]int) // base pseudosequence to appended columns
	result := &Result{Positions: append(Positions(nil), positions...)}
	for _, k := range keys {
		group := groups[k]
		if len(group) < 2 || !intersects(group, ambiguous) {
			continue
		}

		cols, unresolved := differentiate(aln.Len(), group, positions.set(), opts)
		if len(cols) > 0 {
			appended[k] = cols
		}

		logger.Debug("differentiated alleles",
			zap.String("pseudosequence", k),
			zap.Int("alleles", len(group)),
			zap.Ints("columns", cols),
		)

		for _, class := range unresolved {
			alleles := make([]string, len(class))
			for i, r := range class {
				alleles[i] = r.Name
			}
			sort.Strings(alleles)
			result.Incomplete = append(result.Incomplete, DisambiguationIncomplete{
				Alleles:  alleles,
				Sequence: k + extract(class[0].Residues, cols),
			})
		}
	}

	for _, inc := range result.Incomplete {
		logger.Warn("disambiguation incomplete",
			zap.Strings("alleles", inc.Alleles),
			zap.String("sequence", inc.Sequence),
		)
	}
	if opts.Strict && len(result.Incomplete) > 0 {
		errs := make([]error, len(result.Incomplete))
		for i, inc := range result.Incomplete {
			errs[i] = inc
		}
		return nil, errors.Join(errs...)
	}

	names := opts.Alleles
	if len(names) == 0 {
		names = aln.Names()
	}
	names = append([]string(nil), names...)
	sort.Strings(names)

	for i, name := range names {
		if i > 0 && names[i-1] == name {
			continue
		}
		row, _ := aln.Row(name)
		b := base[name]
		cols := appended[b]
		result.Sequences = append(result.Sequences, Derived{
			Allele:   name,
			Sequence: b + extract(row.Residues, cols),
			Appended: cols,
		})
	}

	logger.Info("derived allele sequences",
		zap.Int("alleles", len(result.Sequences)),
		zap.Int("positions", len(positions)),
		zap.Int("groups_extended", len(appended)),
		zap.Int("incomplete", len(result.Incomplete)),
	)

	return result, nil
}

// differentiate picks the columns, left to right, that split a group of rows
// sharing a base pseudosequence. It returns the columns and the classes of
// rows that differ but couldn't be split.
func differentiate(length int, group []alignment.Row, skip map[int]bool, opts Options) (cols []int, unresolved [][]alignment.Row) {
	classes := [][]alignment.Row{group}

	for col := 0; col < length && anyUnresolved(classes); col++ {
		if skip[col] {
			continue
		}
		if opts.MaxAppended > 0 && len(cols) >= opts.MaxAppended {
			break
		}

		split := false
		next := make([][]alignment.Row, 0, len(classes))
		for _, class := range classes {
			if resolved(class) || (opts.SkipGapColumns && hasGap(class, col)) {
				next = append(next, class)
				continue
			}

			sub := partition(class, col)
			if len(sub) > 1 {
				split = true
			}
			next = append(next, sub...)
		}

		if split {
			cols = append(cols, col)
			classes = next
		}
	}

	for _, class := range classes {
		if !resolved(class) {
			unresolved = append(unresolved, class)
		}
	}
	return cols, unresolved
}

// partition splits rows by their residue at col, keeping the order of first appearance.
func partition(rows []alignment.Row, col int) [][]alignment.Row {
	var order []byte
	byResidue := make(map[byte][]alignment.Row)
	for _, r := range rows {
		c := r.Residues[col]
		if _, ok := byResidue[c]; !ok {
			order = append(order, c)
		}
		byResidue[c] = append(byResidue[c], r)
	}

	parts := make([][]alignment.Row, len(order))
	for i, c := range order {
		parts[i] = byResidue[c]
	}
	return parts
}

// resolved is true if every row in the class has the same residues.
func resolved(class []alignment.Row) bool {
	for _, r := range class[1:] {
		if r.Residues != class[0].Residues {
			return false
		}
	}
	return true
}

func anyUnresolved(classes [][]alignment.Row) bool {
	for _, c := range classes {
		if !resolved(c) {
			return true
		}
	}
	return false
}

func hasGap(rows []alignment.Row, col int) bool {
	for _, r := range rows {
		if r.Residues[col] == alignment.Gap {
			return true
		}
	}
	return false
}

func intersects(rows []alignment.Row, set AlleleSet) bool {
	for _, r := range rows {
		if set.Contains(r.Name) {
			return true
		}
	}
	return false
}

// validate checks the positions are in range and unique.
func (p Positions) validate(length int) error {
	if len(p) == 0 {
		return &InputFormatError{Msg: "no pseudosequence positions"}
	}

	seen := make(map[int]bool, len(p))
	for _, pos := range p {
		if pos < 0 || pos >= length {
			return &InputFormatError{Msg: fmt.Sprintf("position %d outside alignment of length %d", pos, length)}
		}
		if seen[pos] {
			return &InputFormatError{Msg: fmt.Sprintf("duplicate position %d", pos)}
		}
		seen[pos] = true
	}
	return nil
}

func (p Positions) set() map[int]bool {
	s := make(map[int]bool, len(p))
	for _, pos := range p {
		s[pos] = true
	}
	return s
}

func (p Positions) extract(residues string) string {
	return extract(residues, p)
}

// String returns the positions as a comma separated list.
func (p Positions) String() string {
	strs := make([]string, len(p))
	for i, pos := range p {
		strs[i] = fmt.Sprint(pos)
	}
	return strings.Join(strs, ",")
}

func extract(residues string, cols []int) string {
	b := make([]byte, len(cols))
	for i, c := range cols {
		b[i] = residues[c]
	}
	return string(b)
}
