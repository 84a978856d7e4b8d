package pseudoseq

import (
	"fmt"
	"strings"

	"github.com/hammerlab/mhcseq/internal/alignment"
)

// InputFormatError is a malformed alignment, position or allele file.
type InputFormatError = alignment.InputFormatError

// LookupError is returned for an allele that isn't in the alignment.
type LookupError struct {
	Allele string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("allele %s not found in alignment", e.Allele)
}

// DisambiguationIncomplete names alleles whose alignment rows differ
// but that still share a derived sequence after every candidate column
// was tried. It is a warning unless Options.Strict is set.
type DisambiguationIncomplete struct {
	Alleles  []string `json:"alleles"`
	Sequence string   `json:"sequence"`
}

func (d DisambiguationIncomplete) Error() string {
	return fmt.Sprintf("alleles %s share sequence %s despite differing alignment rows",
		strings.Join(d.Alleles, ", "), d.Sequence)
}
