package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/tilestitch/internal/monitoring"
	"github.com/banshee-data/tilestitch/internal/optimizer"
	"github.com/banshee-data/tilestitch/internal/storage/sqlite"
	"github.com/banshee-data/tilestitch/internal/tileio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainProblem = `{
  "dimensions": 2,
  "tiles": [
    {"id": 1, "name": "left", "model": "translation"},
    {"id": 2, "name": "right", "model": "translation"},
    {"id": 9, "name": "orphan"}
  ],
  "pairs": [
    {"tile1": 1, "tile2": 2, "valid": true, "weight": 1,
     "point_a": [110, 40], "point_b": [10, 40]},
    {"tile1": 1, "tile2": 2, "valid": true, "weight": 1,
     "point_a": [105, 10], "point_b": [5, 10]}
  ]
}`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFlagDefaults(t *testing.T) {
	assert.Empty(t, *problemPath)
	assert.Empty(t, *dbPath)
	assert.False(t, *quiet)
	assert.False(t, *showVersion)
}

func TestRun_WritesAllArtefacts(t *testing.T) {
	defer monitoring.SuppressOutput()()

	dir := t.TempDir()
	args := runArgs{
		problem: writeTemp(t, "problem.json", chainProblem),
		config:  writeTemp(t, "solver.json", `{"iterations": 20, "prealign": false}`),
		out:     filepath.Join(dir, "result.json"),
		db:      filepath.Join(dir, "runs.db"),
		label:   "chain",
		plot:    filepath.Join(dir, "errors.png"),
		html:    filepath.Join(dir, "tiles.html"),
	}

	var stdout bytes.Buffer
	res, err := run(context.Background(), args, &stdout)
	require.NoError(t, err)
	assert.Equal(t, optimizer.StatusSolved, res.Status)
	assert.Zero(t, stdout.Len(), "result goes to -out")

	data, err := os.ReadFile(args.out)
	require.NoError(t, err)
	var rf tileio.ResultFile
	require.NoError(t, json.Unmarshal(data, &rf))
	assert.Equal(t, "solved", rf.Status)
	require.Len(t, rf.Tiles, 2)
	require.Len(t, rf.Diagnostics.LostTiles, 1)
	assert.Equal(t, "orphan", rf.Diagnostics.LostTiles[0].Name)

	db, err := sqlite.Open(args.db)
	require.NoError(t, err)
	defer db.Close()
	runs, err := sqlite.NewRunStore(db, nil).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "chain", runs[0].Label)

	for _, p := range []string{args.plot, args.html} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestRun_Stdout(t *testing.T) {
	defer monitoring.SuppressOutput()()

	var stdout bytes.Buffer
	_, err := run(context.Background(), runArgs{problem: writeTemp(t, "p.json", chainProblem)}, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), `"status": "solved"`)
}

func TestRun_Errors(t *testing.T) {
	defer monitoring.SuppressOutput()()
	ctx := context.Background()

	_, err := run(ctx, runArgs{problem: filepath.Join(t.TempDir(), "missing.json")}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = run(ctx, runArgs{
		problem: writeTemp(t, "p.json", chainProblem),
		config:  writeTemp(t, "bad.json", `{"damping": 2}`),
	}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid configuration")
}
