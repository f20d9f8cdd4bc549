package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tpchgen "github.com/gizmodata/tpch-datagen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version", "--scale-factor", "0")
	require.NoError(t, err)
	assert.Equal(t, "tpchgen "+tpchgen.Version+"\n", out)
}

func TestMissingScaleFactor(t *testing.T) {
	data := filepath.Join(t.TempDir(), "data")
	out, err := execute(t, "--data-directory", data)
	require.Error(t, err)
	assert.True(t, tpchgen.IsCode(err, tpchgen.ErrCodeConfig), err.Error())
	assert.Contains(t, out, "scale factor")
	_, statErr := os.Stat(data)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInvalidConfigOpensNoHistory(t *testing.T) {
	dir := t.TempDir()
	history := filepath.Join(dir, "history.db")
	_, err := execute(t, "--data-directory", filepath.Join(dir, "data"), "--history-dsn", "sqlite://"+history)
	require.Error(t, err)
	assert.True(t, tpchgen.IsCode(err, tpchgen.ErrCodeConfig), err.Error())
	assert.NoFileExists(t, history)
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "tpchgen.toml")
	require.NoError(t, os.WriteFile(conf, []byte(strings.Join([]string{
		"[scale]",
		"scale_factor = 10",
		"num_chunks = 20",
		`compression = "snappy"`,
		"[paths]",
		`data_directory = "/srv/tpch"`,
		"[publish.ftp]",
		`addr = "ftp.example.com:21"`,
		`user = "loader"`,
	}, "\n")), 0o644))

	cmd, f := newCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", conf, "--num-chunks", "8", "--duckdb-threads", "3", "--ftp-dir", "/in"}))
	cfg, err := buildConfig(cmd, f)
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Scale.ScaleFactor)
	assert.Equal(t, 8, cfg.Scale.Chunks)
	assert.Equal(t, 3, cfg.Scale.EngineThreads)
	assert.Equal(t, "snappy", cfg.Scale.Compression)
	assert.Equal(t, "/srv/tpch", cfg.Paths.DataDirectory)
	assert.Equal(t, tpchgen.DefaultWorkDirectory, cfg.Paths.WorkDirectory)
	require.NotNil(t, cfg.Publish.FTP)
	assert.Equal(t, "loader", cfg.Publish.FTP.User)
	assert.Equal(t, "/in", cfg.Publish.FTP.Dir)
}

func TestBuildConfig_ProcessesResizeEngineThreads(t *testing.T) {
	cmd, f := newCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--scale-factor", "1", "--num-processes", "2"}))
	cfg, err := buildConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Scale.Processes)
	assert.Equal(t, tpchgen.DefaultEngineThreads(2), cfg.Scale.EngineThreads)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t,
		"--scale-factor", "0.001",
		"--data-directory", filepath.Join(dir, "data"),
		"--work-directory", filepath.Join(dir, "work"),
		"--num-chunks", "2",
		"--num-processes", "2",
		"--engine-threads", "1",
		"--checksum", "md5",
		"--log-level", "warn",
	)
	require.NoError(t, err, out)

	root := filepath.Join(dir, "data", "tpch", "sf=0.001")
	for _, name := range []string{"region/region_0_0.parquet", "nation/nation_0_0.parquet",
		"lineitem/lineitem_0_0.parquet", "lineitem/lineitem_1_0.parquet", "orders/orders_1_0.parquet"} {
		assert.FileExists(t, filepath.Join(root, name))
		assert.FileExists(t, filepath.Join(root, name+".md5"))
	}
	work, err := os.ReadDir(filepath.Join(dir, "work"))
	require.NoError(t, err)
	assert.Empty(t, work)
}
