package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Textfile(t *testing.T) {
	r := NewRecorder()
	at := time.Unix(1700000000, 0)

	r.Observe(Run{Mode: "compile", Result: "ok", Duration: 20 * time.Millisecond, Species: 3, Rules: 7, Files: 2, Written: true, At: at})
	r.Observe(Run{Mode: "compile", Result: "schema_violation", Duration: time.Millisecond, Species: 99, At: at})

	path := filepath.Join(t.TempDir(), "exorules.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `exorules_compile_runs_total{mode="compile",result="ok"} 1`)
	assert.Contains(t, text, `exorules_compile_runs_total{mode="compile",result="schema_violation"} 1`)
	assert.Contains(t, text, "exorules_catalog_species 3\n")
	assert.Contains(t, text, "exorules_catalog_rules 7\n")
	assert.Contains(t, text, "exorules_catalog_files 2\n")
	assert.Contains(t, text, "exorules_output_writes_total 1\n")
	assert.Contains(t, text, `exorules_compile_duration_seconds_count{mode="compile"} 2`)
	assert.Contains(t, text, "exorules_last_run_timestamp_seconds 1.7e+09\n")
}

func TestRecorder_Gather(t *testing.T) {
	r := NewRecorder()
	r.Observe(Run{Mode: "check", Result: "ok", At: time.Now()})

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "exorules_compile_runs_total")
	assert.Contains(t, names, "exorules_catalog_species")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
