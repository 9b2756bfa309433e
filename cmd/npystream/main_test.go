package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usnistgov/npystream"
	"github.com/usnistgov/npystream/npyappend"
)

func TestParseShape(t *testing.T) {
	v := viper.New()
	require.NoError(t, parseShape(v, []string{"12", "3"}))
	assert.Equal(t, 12, v.GetInt("rows"))
	assert.Equal(t, 3, v.GetInt("cols"))

	assert.Error(t, parseShape(v, []string{"1", "2", "3"}))
	assert.Error(t, parseShape(v, []string{"-1", "2"}))
	assert.Error(t, parseShape(v, []string{"x", "2"}))
}

func TestParseShapeMissing(t *testing.T) {
	v := viper.New()
	err := parseShape(v, nil)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "ROWS")
	}
	err = parseShape(v, []string{"4"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "COLS")
	}

	// Values from the config file fill in what the arguments leave out.
	fname := filepath.Join(t.TempDir(), "npystream.yaml")
	require.NoError(t, os.WriteFile(fname, []byte("rows: 6\ncols: 2\n"), 0644))
	v = viper.New()
	require.NoError(t, npystream.SetupViper(v, fname))
	require.NoError(t, parseShape(v, nil))
	require.NoError(t, parseShape(v, []string{"9"}))
	assert.Equal(t, 9, v.GetInt("rows"))
	assert.Equal(t, 2, v.GetInt("cols"))
}

func TestRun(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := filepath.Join(t.TempDir(), "arrays")
	err := run([]string{"--output-dir", dir, "--checkpoint-every", "2", "--atomic", "--verify", "5", "3"})
	require.NoError(t, err)

	info, err := npyappend.Inspect(npystream.IncArrayPath(dir, 5, 3))
	require.NoError(t, err)
	assert.Equal(t, 5, info.Rows)
	assert.Equal(t, 3, info.Cols)
}

func TestRunBadArgs(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.Error(t, run([]string{"--no-such-flag"}))
	assert.Error(t, run([]string{"--output-dir", t.TempDir(), "two", "3"}))
	dir := t.TempDir()
	assert.Error(t, run([]string{"--output-dir", dir, "3"}))
	assert.Error(t, run([]string{"--output-dir", dir}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no array should be written without a full shape")
	assert.NoError(t, run([]string{"--version"}))
}
