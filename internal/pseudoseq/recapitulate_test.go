package pseudoseq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammerlab/mhcseq/internal/alignment"
)

func TestRecapitulate(t *testing.T) {
	aln := mustAlignment(t,
		alignment.Row{Name: "HLA-A*01:01", Residues: "GMQYAR"},
		alignment.Row{Name: "HLA-A*02:01", Residues: "GMHYTR"},
		alignment.Row{Name: "HLA-B*07:02", Residues: "GGQYTR"},
	)

	tests := []struct {
		name string
		refs []Reference
		want Positions
	}{
		{
			"unique best columns",
			[]Reference{
				{"HLA-A*01:01", "QA"},
				{"HLA-A*02:01", "HT"},
			},
			Positions{2, 4},
		},
		{
			"ties go left",
			[]Reference{
				{"HLA-B*07:02", "G"},
			},
			Positions{0},
		},
		{
			"columns are increasing",
			[]Reference{
				{"HLA-A*01:01", "AQ"},
			},
			Positions{0, 2}, // A (4) and Q (2) can't both match in order
		},
		{
			"missing references are skipped",
			[]Reference{
				{"HLA-C*07:02", "ZZ"},
				{"HLA-A*01:01", "qa"},
			},
			Positions{2, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Recapitulate(aln, tt.refs, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecapitulate_errors(t *testing.T) {
	aln := mustAlignment(t,
		alignment.Row{Name: "a", Residues: "MAV"},
		alignment.Row{Name: "b", Residues: "MAL"},
	)

	tests := []struct {
		name string
		refs []Reference
	}{
		{"no references in alignment", []Reference{{"x", "MA"}}},
		{"unequal lengths", []Reference{{"a", "MA"}, {"b", "M"}}},
		{"longer than alignment", []Reference{{"a", "MAVL"}}},
		{"empty", []Reference{{"a", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recapitulate(aln, tt.refs, nil)

			var fe *InputFormatError
			assert.True(t, errors.As(err, &fe), "expected an InputFormatError, got %v", err)
		})
	}
}

func TestRecapitulate_thenDerive(t *testing.T) {
	aln := mustAlignment(t,
		alignment.Row{Name: "HLA-A*01:01", Residues: "GMQYARK"},
		alignment.Row{Name: "HLA-A*01:02", Residues: "GMQYARR"},
		alignment.Row{Name: "HLA-A*02:01", Residues: "GMHYTRK"},
	)

	positions, err := Recapitulate(aln, []Reference{
		{"HLA-A*01:01", "QA"},
		{"HLA-A*02:01", "HT"},
	}, nil)
	require.NoError(t, err)

	result, err := Derive(aln, positions, NewAlleleSet("HLA-A*01:02"), Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"HLA-A*01:01": "QAK",
		"HLA-A*01:02": "QAR",
		"HLA-A*02:01": "HT",
	}, sequences(result))
}
