package alignment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		rows    []Row
		wantErr bool
	}{
		{
			"equal length rows",
			[]Row{{"a", "MAVM"}, {"b", "MAVL"}},
			false,
		},
		{
			"no rows",
			nil,
			true,
		},
		{
			"zero length rows",
			[]Row{{"a", ""}, {"b", ""}},
			true,
		},
		{
			"unequal lengths",
			[]Row{{"a", "MAVM"}, {"b", "MAV"}},
			true,
		},
		{
			"duplicate names",
			[]Row{{"a", "MAVM"}, {"a", "MAVL"}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aln, err := New(tt.rows)
			if tt.wantErr {
				var fe *InputFormatError
				assert.True(t, errors.As(err, &fe), "expected an InputFormatError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, aln.Len())
			assert.Equal(t, 2, aln.Size())
			assert.Equal(t, []string{"a", "b"}, aln.Names())
			assert.Equal(t, "ML", aln.Column(3))

			row, ok := aln.Row("b")
			assert.True(t, ok)
			assert.Equal(t, "MAVL", row.Residues)

			_, ok = aln.Row("c")
			assert.False(t, ok)
		})
	}
}

func TestRead_fasta(t *testing.T) {
	path := writeFile(t, "aligned.fasta", `>HLA:HLA00001 A*01:01:01:01 365 bp
MAVM-.
TR
>HLA:HLA00002 A*01:01:01:02N 365 bp
MAVMAA
TR
>HLA:HLA00005 A*02:01:01:01 365 bp
mavlaa
tr
`)

	t.Run("record ids", func(t *testing.T) {
		aln, err := Read(path, ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"HLA:HLA00001", "HLA:HLA00002", "HLA:HLA00005"}, aln.Names())
		assert.Equal(t, 8, aln.Len())

		row, _ := aln.Row("HLA:HLA00001")
		assert.Equal(t, "MAVM--TR", row.Residues)

		row, _ = aln.Row("HLA:HLA00005")
		assert.Equal(t, "MAVLAATR", row.Residues)
	})

	t.Run("normalized description field", func(t *testing.T) {
		aln, err := Read(path, ReadOptions{HeaderField: 1, Normalize: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"HLA-A*01:01", "HLA-A*01:01N", "HLA-A*02:01"}, aln.Names())
	})

	t.Run("missing header field", func(t *testing.T) {
		_, err := Read(path, ReadOptions{HeaderField: 9})
		var fe *InputFormatError
		assert.True(t, errors.As(err, &fe))
	})
}

func TestRead_normalizeKeepsFirst(t *testing.T) {
	path := writeFile(t, "aligned.fa", `>1 A*02:01:01:01
MAVL
>2 A*02:01:01:02
MAVI
>3 junk
MAVK
`)

	aln, err := Read(path, ReadOptions{HeaderField: 1, Normalize: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"HLA-A*02:01"}, aln.Names())

	row, _ := aln.Row("HLA-A*02:01")
	assert.Equal(t, "MAVL", row.Residues)
}

const clustalBlocks = `CLUSTAL O(1.2.4) multiple sequence alignment


A*01:01      MAVM--
A*02:01      MAVLAA
             ***:

A*01:01      TR
A*02:01      TR
             **
`

func TestRead_clustal(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"header first", clustalBlocks},
		{"blank lines before header", "\n  \n" + clustalBlocks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aln, err := Read(writeFile(t, "aligned.aln", tt.contents), ReadOptions{})
			require.NoError(t, err)
			assert.Equal(t, []string{"A*01:01", "A*02:01"}, aln.Names())

			row, _ := aln.Row("A*01:01")
			assert.Equal(t, "MAVM--TR", row.Residues)
		})
	}
}

func TestRead_errors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"empty", "  \n"},
		{"unknown format", "allele,sequence\nA,MAV\n"},
		{"ragged fasta", ">a\nMAVM\n>b\nMAV\n"},
		{"clustal without residues", "CLUSTAL W\n\nA*01:01\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "in.txt", tt.contents)
			_, err := Read(path, ReadOptions{})

			var fe *InputFormatError
			require.True(t, errors.As(err, &fe), "expected an InputFormatError, got %v", err)
			assert.Equal(t, path, fe.Path)
		})
	}

	_, err := Read(filepath.Join(t.TempDir(), "missing.fa"), ReadOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
