package alignment

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"go.uber.org/zap"

	"github.com/hammerlab/mhcseq/internal/allele"
)

// ReadOptions control how sequence names are parsed from alignment records.
type ReadOptions struct {
	// HeaderField is the whitespace separated field of a record's header to
	// use as its name. 0 is the record ID, 1 the first word of the description.
	// IMGT/HLA headers, ex: ">HLA:HLA00001 A*01:01:01:01 365 bp", use 1.
	HeaderField int

	// Normalize names to two-field alleles. Records whose names can't be
	// normalized are skipped and the first record of each allele is kept.
	Normalize bool

	Logger *zap.Logger
}

// record is a parsed, but not yet named, alignment entry.
type record struct {
	fields   []string
	residues string
	line     int
}

// Read parses a FASTA or Clustal formatted alignment at the path.
func Read(path string, opts ReadOptions) (*Alignment, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alignment: %w", err)
	}

	trimmed := bytes.TrimSpace(dat)
	var records []record
	switch {
	case len(trimmed) == 0:
		return nil, &InputFormatError{Path: path, Msg: "alignment file is empty"}
	case trimmed[0] == '>':
		records, err = readFasta(path, dat)
	case bytes.HasPrefix(trimmed, []byte("CLUSTAL")):
		records, err = readClustal(path, dat)
	default:
		return nil, &InputFormatError{Path: path, Line: 1, Msg: "unrecognized alignment format, expected FASTA or Clustal"}
	}
	if err != nil {
		return nil, err
	}

	rows, err := name(path, records, opts)
	if err != nil {
		return nil, err
	}

	aln, err := New(rows)
	if err != nil {
		if fe, ok := err.(*InputFormatError); ok {
			fe.Path = path
		}
		return nil, err
	}
	return aln, nil
}

// readFasta parses aligned FASTA records.
func readFasta(path string, dat []byte) ([]record, error) {
	r := fasta.NewReader(bytes.NewReader(dat), linear.NewSeq("", nil, alphabet.Protein))
	sc := seqio.NewScanner(r)

	var records []record
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)

		b := make([]byte, len(s.Seq))
		for i, l := range s.Seq {
			b[i] = byte(l)
		}

		fields := append([]string{s.Name()}, strings.Fields(s.Description())...)
		records = append(records, record{
			fields:   fields,
			residues: cleanResidues(string(b)),
		})
	}
	if err := sc.Error(); err != nil {
		return nil, &InputFormatError{Path: path, Msg: err.Error()}
	}

	return records, nil
}

// readClustal parses a Clustal (.aln) alignment. Blocks are concatenated
// per sequence name and conservation lines are ignored.
func readClustal(path string, dat []byte) ([]record, error) {
	var records []record
	index := make(map[string]int)

	sc := bufio.NewScanner(bytes.NewReader(dat))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	header := false
	for sc.Scan() {
		lineNum++
		line := sc.Text()

		if strings.TrimSpace(line) == "" {
			continue
		}
		if !header {
			// everything up to and including the CLUSTAL line
			header = strings.HasPrefix(strings.TrimSpace(line), "CLUSTAL")
			continue
		}

		// conservation lines start with whitespace
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &InputFormatError{Path: path, Line: lineNum, Msg: "expected a sequence name and residues"}
		}

		i, seen := index[fields[0]]
		if !seen {
			i = len(records)
			index[fields[0]] = i
			records = append(records, record{fields: fields[:1], line: lineNum})
		}
		records[i].residues += cleanResidues(fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, &InputFormatError{Path: path, Line: lineNum, Msg: err.Error()}
	}

	if len(records) == 0 {
		return nil, &InputFormatError{Path: path, Msg: "no sequences in Clustal alignment"}
	}
	return records, nil
}

// name picks each record's name and drops records per opts.
func name(path string, records []record, opts ReadOptions) ([]Row, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	seen := make(map[string]bool)
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		if opts.HeaderField >= len(rec.fields) {
			return nil, &InputFormatError{
				Path: path,
				Line: rec.line,
				Msg:  fmt.Sprintf("record %d has no header field %d", i+1, opts.HeaderField),
			}
		}
		n := rec.fields[opts.HeaderField]

		if opts.Normalize {
			normalized, err := allele.Normalize(n)
			if err != nil {
				logger.Debug("skipping sequence", zap.String("name", n), zap.Error(err))
				continue
			}
			if seen[normalized] {
				logger.Debug("skipping duplicate allele", zap.String("name", n), zap.String("allele", normalized))
				continue
			}
			n = normalized
		}

		seen[n] = true
		rows = append(rows, Row{Name: n, Residues: rec.residues})
	}

	return rows, nil
}

// cleanResidues upper-cases residues and maps A2M style '.' gaps to '-'.
func cleanResidues(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '.':
			return Gap
		case r == ' ' || r == '\t' || r == '\r':
			return -1
		}
		return r
	}, s)
}
