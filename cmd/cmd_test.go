package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_alleleExec(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			"four field name",
			[]string{"A*02:01:01:01"},
			"A*02:01:01:01\tHLA-A*02:01\n",
			false,
		},
		{
			"several names",
			[]string{"HLA-B5701", "H2Kb"},
			"HLA-B5701\tHLA-B*57:01\nH2Kb\tH-2-Kb\n",
			false,
		},
		{
			"numeric name",
			[]string{"1234", "C*07:02"},
			"C*07:02\tHLA-C*07:02\n",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			alleleCmd.SetOut(&out)

			err := alleleExec(alleleCmd, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func Test_deriveCmd(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
		return path
	}

	aligned := write("aligned.fasta", ">a\nMKVA\n>b\nMKVC\n>c\nMRVA\n")
	positions := write("positions.txt", "1\n")
	ambiguous := write("ambiguous.txt", "a\n")
	out := filepath.Join(dir, "sequences.csv")

	rootCmd.SetArgs([]string{
		"derive",
		"--config", write("config.yaml", "verbose: false\n"),
		"--alignment", aligned,
		"--positions", positions,
		"--differentiate-alleles", ambiguous,
		"--out", out,
	})
	require.NoError(t, rootCmd.Execute())

	dat, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "allele,sequence\na,KA\nb,KC\nc,R\n", string(dat))
}

func Test_filePrepender(t *testing.T) {
	assert.Contains(t, filePrepender("docs/mhcseq.md"), "permalink: /")

	derive := filePrepender("docs/mhcseq_derive.md")
	assert.Contains(t, derive, "title: derive")
	assert.Contains(t, derive, "parent: mhcseq")
}

func Test_linkHandler(t *testing.T) {
	assert.Equal(t, "/", linkHandler("mhcseq.md"))
	assert.Equal(t, "mhcseq_pipeline", linkHandler("mhcseq_pipeline.md"))
}
