package pseudoseq

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadReferences reads reference pseudosequences from a CSV file with
// "allele" and "pseudosequence" columns (other columns are ignored).
func ReadReferences(path string) ([]Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference pseudosequences: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, &InputFormatError{Path: path, Line: 1, Msg: "missing CSV header"}
	}

	alleleCol, seqCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "allele":
			alleleCol = i
		case "pseudosequence", "sequence":
			seqCol = i
		}
	}
	if alleleCol < 0 || seqCol < 0 {
		return nil, &InputFormatError{Path: path, Line: 1, Msg: `expected "allele" and "pseudosequence" columns`}
	}

	var refs []Reference
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(path, err)
		}
		num, _ := r.FieldPos(0)

		a, s := strings.TrimSpace(rec[alleleCol]), strings.TrimSpace(rec[seqCol])
		if a == "" || s == "" {
			return nil, &InputFormatError{Path: path, Line: num, Msg: "empty allele or pseudosequence"}
		}
		refs = append(refs, Reference{Allele: a, Pseudosequence: s})
	}

	if len(refs) == 0 {
		return nil, &InputFormatError{Path: path, Msg: "no reference pseudosequences"}
	}
	return refs, nil
}

// ReadAlleles reads allele names from a file with one allele per line, or
// from a CSV file with an "allele" or "mhc" column, ex: mhcflurry training data.
// Blank lines and '#' comments are skipped.
func ReadAlleles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var alleles []string
	col := 0
	for first := true; ; first = false {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(path, err)
		}

		if first {
			if i := alleleColumn(rec); i >= 0 {
				col = i
				continue
			}
		}

		if col >= len(rec) {
			num, _ := r.FieldPos(0)
			return nil, &InputFormatError{Path: path, Line: num, Msg: fmt.Sprintf("expected at least %d columns", col+1)}
		}
		if a := strings.TrimSpace(rec[col]); a != "" {
			alleles = append(alleles, a)
		}
	}

	return alleles, nil
}

// alleleColumn returns the index of a header's allele column, or -1 if it isn't a header.
func alleleColumn(header []string) int {
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "allele", "mhc":
			return i
		}
	}
	return -1
}

// csvError converts a CSV read error to an InputFormatError with its line.
func csvError(path string, err error) error {
	var pe *csv.ParseError
	num := 0
	if errors.As(err, &pe) {
		num = pe.Line
	}
	return &InputFormatError{Path: path, Line: num, Msg: err.Error()}
}

// ReadPositions reads 0-based alignment columns separated by commas or whitespace.
func ReadPositions(path string) (Positions, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	var positions Positions
	for _, l := range lines {
		fields := strings.FieldsFunc(l.text, func(c rune) bool {
			return c == ',' || c == ' ' || c == '\t'
		})
		for _, f := range fields {
			pos, err := strconv.Atoi(f)
			if err != nil || pos < 0 {
				return nil, &InputFormatError{Path: path, Line: l.num, Msg: fmt.Sprintf("invalid position %q", f)}
			}
			positions = append(positions, pos)
		}
	}

	if len(positions) == 0 {
		return nil, &InputFormatError{Path: path, Msg: "no positions"}
	}
	return positions, nil
}

type line struct {
	num  int
	text string
}

// readLines returns the trimmed lines of a file with comments removed.
func readLines(path string) ([]line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []line
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		text := sc.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}
		lines = append(lines, line{num: n, text: strings.TrimSpace(text)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
