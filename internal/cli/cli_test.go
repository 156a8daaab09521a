package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"

	"github.com/momentics/hioload-pool/internal/bench"
	"github.com/momentics/hioload-pool/internal/config"
	"github.com/momentics/hioload-pool/threadpool"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestStrategiesCommand(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	for _, s := range threadpool.Strategies() {
		assert.Contains(t, out, string(s))
	}
	assert.Contains(t, out, "queue")
	assert.Contains(t, out, "slot")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")
	_, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestRunCommandJSON(t *testing.T) {
	out, err := execute(t, "run",
		"--strategy", "stealing", "-s", "RoundRobin,helping",
		"--workers", "2", "--tasks", "200", "--repetitions", "1",
		"--format", "json")
	require.NoError(t, err)

	var results []bench.Result
	require.NoError(t, sonnet.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "stealing", results[0].Strategy)
	assert.Equal(t, "roundrobin", results[1].Strategy)
	assert.Equal(t, "helping", results[2].Strategy)
	for _, r := range results {
		assert.EqualValues(t, 200, r.Completed)
		assert.Equal(t, 2, r.Workers)
	}
}

func TestRunCommandFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	cfg := config.DefaultConfig()
	cfg.Strategies = []threadpool.Strategy{threadpool.SpinQueue}
	cfg.Pool.Workers = 1
	cfg.Workload.Tasks = 50
	cfg.Workload.Repetitions = 1
	cfg.Report.Format = config.FormatJSON
	require.NoError(t, config.WriteConfig(path, cfg))

	out, err := execute(t, "run", "--config", path, "--tasks", "70")
	require.NoError(t, err)
	var results []bench.Result
	require.NoError(t, sonnet.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "spinqueue", results[0].Strategy)
	assert.EqualValues(t, 70, results[0].Completed)
}

func TestRunCommandRejectsBadInput(t *testing.T) {
	_, err := execute(t, "run", "--strategy", "fifo")
	assert.Error(t, err)
	_, err = execute(t, "run", "--format", "xml", "--tasks", "1")
	assert.ErrorContains(t, err, "report.format")
	_, err = execute(t, "run", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "reading config")
}
