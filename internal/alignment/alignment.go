// Package alignment is for reading multiple sequence alignments of MHC
// protein sequences, as written by clustalo.
package alignment

import (
	"fmt"
)

// Gap is the residue used for alignment gaps.
const Gap = '-'

// Row is a single aligned sequence: an allele (or protein) identifier and its
// residues, including gaps.
type Row struct {
	Name     string
	Residues string
}

// Alignment is an ordered set of rows. All rows in an Alignment are
// guaranteed to have the same length.
type Alignment struct {
	rows   []Row
	index  map[string]int
	length int
}

// InputFormatError is returned for an alignment (or other input file) that
// can't be parsed or violates the alignment's invariants.
type InputFormatError struct {
	// Path to the offending file, empty for in-memory input
	Path string

	// Line is the 1-based line number, 0 when it doesn't apply
	Line int

	Msg string
}

func (e *InputFormatError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("invalid input %s:%d: %s", e.Path, e.Line, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("invalid input %s: %s", e.Path, e.Msg)
	}
	return "invalid input: " + e.Msg
}

// New creates an alignment from its rows, checking that there's at least one
// non-empty row, that row names are unique and that all rows are the same length.
func New(rows []Row) (*Alignment, error) {
	if len(rows) == 0 {
		return nil, &InputFormatError{Msg: "alignment has no sequences"}
	}

	a := &Alignment{
		rows:   make([]Row, 0, len(rows)),
		index:  make(map[string]int, len(rows)),
		length: len(rows[0].Residues),
	}
	if a.length == 0 {
		return nil, &InputFormatError{Msg: fmt.Sprintf("sequence %s has zero length", rows[0].Name)}
	}

	for _, r := range rows {
		if len(r.Residues) != a.length {
			return nil, &InputFormatError{
				Msg: fmt.Sprintf("sequence %s has length %d, expected %d", r.Name, len(r.Residues), a.length),
			}
		}
		if _, dup := a.index[r.Name]; dup {
			return nil, &InputFormatError{Msg: fmt.Sprintf("duplicate sequence name %s", r.Name)}
		}
		a.index[r.Name] = len(a.rows)
		a.rows = append(a.rows, r)
	}

	return a, nil
}

// Len returns the number of columns in the alignment.
func (a *Alignment) Len() int {
	return a.length
}

// Size returns the number of rows in the alignment.
func (a *Alignment) Size() int {
	return len(a.rows)
}

// Rows returns the rows in the order they were read.
func (a *Alignment) Rows() []Row {
	return append([]Row(nil), a.rows...)
}

// Names returns the row names in the order they were read.
func (a *Alignment) Names() []string {
	names := make([]string, len(a.rows))
	for i, r := range a.rows {
		names[i] = r.Name
	}
	return names
}

// Row returns the row with the given name.
func (a *Alignment) Row(name string) (Row, bool) {
	i, ok := a.index[name]
	if !ok {
		return Row{}, false
	}
	return a.rows[i], true
}

// Column returns the residues at the column, one per row, in row order.
func (a *Alignment) Column(col int) string {
	b := make([]byte, len(a.rows))
	for i, r := range a.rows {
		b[i] = r.Residues[col]
	}
	return string(b)
}
