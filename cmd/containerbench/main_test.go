package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunScenario_SelfcheckAllBackends replays the same weighted mix
// against every backend with the oracle diff enabled; a divergence fails
// inside runScenario.
func TestRunScenario_SelfcheckAllBackends(t *testing.T) {
	s := Scenario{
		Ops:          20000,
		Seed:         42,
		KeySpace:     500,
		InsertWeight: 4,
		GetWeight:    3,
		RemoveWeight: 3,
	}
	for _, kind := range []string{"hashmap", "flatmap", "splaymap", "multimap"} {
		t.Run(kind, func(t *testing.T) {
			b, err := newBackend(kind)
			require.NoError(t, err)

			report, err := runScenario(b, s, true)
			require.NoError(t, err)
			assert.Contains(t, report, "container: "+kind)
			assert.Contains(t, report, "selfcheck: ok")
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := newBackend("btree")
	assert.ErrorIs(t, err, errUnknownContainer)
}

func TestLoadScenario_JSONCWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// heavy churn: as many removes as inserts
		"ops": 5000,
		"seed": 7,
		"key_space": 100,
		"insert_weight": 3,
		"get_weight": 1,
		"remove_weight": 3, // trailing comma next line is fine too
	}`), 0o644))

	s, err := loadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, s.Ops)
	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, 100, s.KeySpace)
	assert.Equal(t, 3, s.RemoveWeight)
}

func TestLoadScenario_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"ops": -1}`), 0o644))
	_, err := loadScenario(path)
	assert.ErrorIs(t, err, errScenarioInvalid)

	_, err = loadScenario(filepath.Join(t.TempDir(), "missing.jsonc"))
	assert.ErrorIs(t, err, errScenarioRead)
}

func TestRun_ReportFile(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.txt")
	var out, errOut strings.Builder

	code := run([]string{
		"--container", "hashmap",
		"--ops", "2000",
		"--seed", "1",
		"--selfcheck",
		"--report", reportPath,
	}, &out, &errOut)
	require.Equal(t, 0, code, "stderr: %s", errOut.String())

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(data))
	assert.Contains(t, string(data), "selfcheck: ok")
}
