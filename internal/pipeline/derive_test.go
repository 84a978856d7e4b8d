package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammerlab/mhcseq/config"
	"github.com/hammerlab/mhcseq/internal/pseudoseq"
)

const alignedFasta = `>HLA:HLA00001 A*01:01:01:01 365 bp
GSHSMRYFFTSV
>HLA:HLA00002 A*01:01:01:02N 365 bp
GSHSMRYFFTSV
>HLA:HLA00005 A*02:01:01:01 365 bp
GSHSMRYFYTAV
>HLA:HLA00006 A*02:02:01:01 365 bp
GSHSMRYFYTAM
`

func writeInput(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDerive(t *testing.T) {
	dir := t.TempDir()
	d := config.DeriveConfig{
		Alignment:     writeInput(t, dir, "aligned.fasta", alignedFasta),
		Positions:     writeInput(t, dir, "positions.txt", "4,5,6\n"),
		Differentiate: writeInput(t, dir, "alleles.txt", "allele\nA*02:01\nHLA-A*02:02\n"),
		Out:           filepath.Join(dir, "allele_sequences.csv"),
		HeaderField:   1,
		Normalize:     true,
	}

	result, err := Derive(d, nil)
	require.NoError(t, err)
	require.Len(t, result.Sequences, 4)

	dat, err := os.ReadFile(d.Out)
	require.NoError(t, err)
	assert.Equal(t, `allele,sequence
HLA-A*01:01,MRYFV
HLA-A*01:01N,MRYFV
HLA-A*02:01,MRYYV
HLA-A*02:02,MRYYM
`, string(dat))
}

func TestDerive_recapitulate(t *testing.T) {
	dir := t.TempDir()
	d := config.DeriveConfig{
		Alignment:   writeInput(t, dir, "aligned.fasta", alignedFasta),
		References:  writeInput(t, dir, "refs.csv", "allele,pseudosequence\nA*01:01,MFT\nHLA-A*02:01,MYT\nHLA-B*07:02,YYS\n"),
		Out:         filepath.Join(dir, "out.json"),
		HeaderField: 1,
		Normalize:   true,
	}

	result, err := Derive(d, nil)
	require.NoError(t, err)
	assert.Equal(t, pseudoseq.Positions{4, 8, 9}, result.Positions)

	_, err = os.Stat(d.Out)
	assert.NoError(t, err)
}

func TestDerive_errors(t *testing.T) {
	dir := t.TempDir()
	aligned := writeInput(t, dir, "aligned.fasta", alignedFasta)

	t.Run("unknown allele", func(t *testing.T) {
		_, err := Derive(config.DeriveConfig{
			Alignment:     aligned,
			Positions:     writeInput(t, dir, "positions.txt", "0 1 2"),
			Differentiate: writeInput(t, dir, "missing.txt", "HLA-C*07:02\n"),
			Out:           filepath.Join(dir, "out.csv"),
			HeaderField:   1,
			Normalize:     true,
		}, nil)

		var le *pseudoseq.LookupError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, "HLA-C*07:02", le.Allele)
	})

	t.Run("invalid settings", func(t *testing.T) {
		_, err := Derive(config.DeriveConfig{Alignment: aligned}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Derive(config.DeriveConfig{
			Alignment: aligned,
			Positions: writeInput(t, dir, "positions.txt", "0"),
			Format:    "xml",
		}, nil)
		assert.Error(t, err)
	})
}
