package pseudoseq

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Format of the written allele sequences.
type Format string

const (
	// CSV is an "allele,sequence" table
	CSV Format = "csv"

	// JSON is the full Result with its positions and warnings
	JSON Format = "json"
)

// ParseFormat returns the Format with the name, ex: "csv".
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case CSV, JSON:
		return f, nil
	case "":
		return CSV, nil
	}
	return "", fmt.Errorf("unknown output format %q, expected csv or json", name)
}

// FormatFromPath guesses a Format from an output path's extension.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return JSON
	}
	return CSV
}

// Output is the JSON document written for a Result.
type Output struct {
	// Time, ex: "2018/01/01 20:41:00"
	Time string `json:"time"`

	// Alignment is the path to the alignment the sequences were derived from
	Alignment string `json:"alignment,omitempty"`

	*Result
}

// WriteCSV writes an "allele,sequence" table.
func WriteCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"allele", "sequence"}); err != nil {
		return err
	}
	for _, d := range result.Sequences {
		if err := cw.Write([]string{d.Allele, d.Sequence}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the result, with a timestamp, as indented JSON.
func WriteJSON(w io.Writer, alignmentPath string, result *Result) error {
	t := time.Now()
	out := Output{
		Time: fmt.Sprintf(
			"%d/%02d/%02d %02d:%02d:%02d",
			t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(),
		),
		Alignment: alignmentPath,
		Result:    result,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to serialize output: %w", err)
	}
	return nil
}

// Write writes the result to the filename, or to stdout if filename is "" or "-".
func Write(filename string, format Format, alignmentPath string, result *Result) (err error) {
	var w io.Writer = os.Stdout
	if filename != "" && filename != "-" {
		f, cerr := os.Create(filename)
		if cerr != nil {
			return fmt.Errorf("failed to create output file: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("failed to write the output: %w", cerr)
			}
		}()
		w = f
	}

	if format == JSON {
		return WriteJSON(w, alignmentPath, result)
	}
	return WriteCSV(w, result)
}
