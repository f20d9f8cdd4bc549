package tpchgen

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/gizmodata/tpch-datagen/file"
	"github.com/gizmodata/tpch-datagen/status"
)

func testConfig(t *testing.T, sf float64, chunks, processes int) Config {
	cfg := DefaultConfig()
	cfg.Scale.ScaleFactor = sf
	cfg.Scale.Chunks = chunks
	cfg.Scale.Processes = processes
	cfg.Scale.EngineThreads = 1
	cfg.Paths.DataDirectory = t.TempDir()
	cfg.Paths.WorkDirectory = t.TempDir()
	return cfg
}

// fileOrdinals returns the distinct unit ordinals found in the file names of a table dir
func fileOrdinals(t *testing.T, dir, table string) []int {
	entries, err := os.ReadDir(dir)
	assert.Equal(t, nil, err)
	seen := map[int]bool{}
	for _, e := range entries {
		name := e.Name()
		assert.T(t, strings.HasPrefix(name, table+"_"), name)
		parts := strings.Split(strings.TrimPrefix(name, table+"_"), "_")
		ord, err := strconv.Atoi(parts[0])
		assert.Equal(t, nil, err)
		seen[ord] = true
	}
	ordinals := make([]int, 0, len(seen))
	for o := range seen {
		ordinals = append(ordinals, o)
	}
	sort.Ints(ordinals)
	return ordinals
}

func assertNoScratchLeft(t *testing.T, cfg Config, engine *fakeEngine) {
	entries, err := os.ReadDir(cfg.Paths.WorkDirectory)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(entries))
	for _, ws := range engine.workspaces {
		_, err := os.Stat(ws)
		assert.T(t, os.IsNotExist(err), "workspace left behind", ws)
	}
}

func TestJob_AllUnitsComplete(t *testing.T) {
	cfg := testConfig(t, 1, 4, 2)
	engine := &fakeEngine{}
	job := NewJob("tpch", cfg).Engine(engine).Build()

	execution, err := job.Run(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, 5, len(execution.UnitExecutions))
	assert.Equal(t, filepath.Join(cfg.Paths.DataDirectory, "tpch", "sf=1"), execution.Location.Path)

	for _, table := range ReferenceTables() {
		assert.Equal(t, []int{0}, fileOrdinals(t, execution.Location.TableDir(table), table))
	}
	for _, table := range FactTables() {
		assert.Equal(t, []int{0, 1, 2, 3}, fileOrdinals(t, execution.Location.TableDir(table), table))
	}
	assert.Equal(t, 2+4*len(FactTables()), len(execution.Files()))
	assert.Equal(t, int32(5), engine.opened)
	assert.Equal(t, int32(5), engine.closed)
	assertNoScratchLeft(t, cfg, engine)
}

func TestJob_OneUnitFails(t *testing.T) {
	cfg := testConfig(t, 1, 4, 4)
	engine := &fakeEngine{
		failOrdinals:    map[int]bool{2: true},
		failAfterOpened: 5,
	}
	job := NewJob("tpch", cfg).Engine(engine).Build()

	execution, err := job.Run(context.Background())
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.T(t, IsCode(err, ErrCodeJobFailed), err)

	jobErr, ok := err.(*JobError)
	assert.T(t, ok)
	assert.Equal(t, 1, len(jobErr.Failures))
	assert.Equal(t, 2, jobErr.Failures[0].Unit.Ordinal)
	assert.Equal(t, FactUnit, jobErr.Failures[0].Unit.Kind)
	assert.Equal(t, StageGenerate, jobErr.Failures[0].Stage)
	assert.Equal(t, 0, len(jobErr.Abandoned))
	assert.T(t, strings.Contains(err.Error(), "fact-2"), err.Error())

	for _, table := range FactTables() {
		assert.Equal(t, []int{0, 1, 3}, fileOrdinals(t, execution.Location.TableDir(table), table))
	}
	assertNoScratchLeft(t, cfg, engine)
}

func TestJob_HaltsDispatchAfterFailure(t *testing.T) {
	cfg := testConfig(t, 1, 4, 1)
	engine := &fakeEngine{failOrdinals: map[int]bool{1: true}}
	job := NewJob("tpch", cfg).Engine(engine).Build()

	execution, err := job.Run(context.Background())
	assert.Equal(t, status.FAILED, execution.JobStatus)
	jobErr := err.(*JobError)
	assert.Equal(t, 1, len(jobErr.Failures))
	assert.Equal(t, 1, jobErr.Failures[0].Unit.Ordinal)
	assert.Equal(t, 2, len(jobErr.Abandoned))
	assert.Equal(t, 2, jobErr.Abandoned[0].Ordinal)
	assert.Equal(t, 3, jobErr.Abandoned[1].Ordinal)
	assert.Equal(t, []int{0, 1}, engine.factGenerated())

	statuses := map[status.BatchStatus]int{}
	for _, ue := range execution.UnitExecutions {
		statuses[ue.UnitStatus]++
	}
	assert.Equal(t, 2, statuses[status.COMPLETED])
	assert.Equal(t, 1, statuses[status.FAILED])
	assert.Equal(t, 2, statuses[status.ABANDONED])
	assertNoScratchLeft(t, cfg, engine)
}

func TestJob_ReferenceFailureSkipsFacts(t *testing.T) {
	cfg := testConfig(t, 1, 3, 2)
	engine := &fakeEngine{failExport: TableNation}
	job := NewJob("tpch", cfg).Engine(engine).Build()

	execution, err := job.Run(context.Background())
	assert.Equal(t, status.FAILED, execution.JobStatus)
	jobErr := err.(*JobError)
	assert.Equal(t, 1, len(jobErr.Failures))
	assert.Equal(t, ReferenceUnit, jobErr.Failures[0].Unit.Kind)
	assert.Equal(t, "export:nation", jobErr.Failures[0].Stage)
	assert.Equal(t, 3, len(jobErr.Abandoned))
	assert.Equal(t, 0, len(engine.factGenerated()))
	assertNoScratchLeft(t, cfg, engine)
}

func TestJob_PoolBound(t *testing.T) {
	cfg := testConfig(t, 1, 8, 3)
	engine := &fakeEngine{delay: 20 * time.Millisecond}
	job := NewJob("tpch", cfg).Engine(engine).Build()

	_, err := job.Run(context.Background())
	assert.Equal(t, nil, err)
	assert.T(t, engine.peak <= 3, "peak sessions", engine.peak)
	assert.T(t, engine.peak >= 1)
}

func TestJob_ScratchReleasedOnOpenFailure(t *testing.T) {
	cfg := testConfig(t, 1, 2, 2)
	engine := &fakeEngine{failOpen: true}
	job := NewJob("tpch", cfg).Engine(engine).Build()

	_, err := job.Run(context.Background())
	assert.T(t, IsCode(err, ErrCodeJobFailed))
	assert.Equal(t, StageOpen, err.(*JobError).Failures[0].Stage)
	assert.Equal(t, 1, len(engine.workspaces))
	assertNoScratchLeft(t, cfg, engine)
}

func TestJob_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, 0, 4, 2)
	cfg.Paths.DataDirectory = filepath.Join(cfg.Paths.DataDirectory, "data")
	engine := &fakeEngine{}
	job := NewJob("tpch", cfg).Engine(engine).Build()

	execution, err := job.Run(context.Background())
	assert.T(t, IsCode(err, ErrCodeConfig), err)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	_, statErr := os.Stat(cfg.Paths.DataDirectory)
	assert.T(t, os.IsNotExist(statErr))
	assert.Equal(t, int32(0), engine.opened)
}

func TestJob_LocationExists(t *testing.T) {
	cfg := testConfig(t, 1, 2, 2)
	path, _ := LocationPath(cfg.Paths.DataDirectory, 1)
	assert.Equal(t, nil, os.MkdirAll(path, 0o755))

	engine := &fakeEngine{}
	_, err := NewJob("tpch", cfg).Engine(engine).Build().Run(context.Background())
	assert.T(t, IsCode(err, ErrCodeLocationExists), err)
	assert.Equal(t, 0, len(engine.workspaces))

	cfg.Paths.Overwrite = true
	_, err = NewJob("tpch", cfg).Engine(engine).Build().Run(context.Background())
	assert.Equal(t, nil, err)
}

func TestJob_Cancelled(t *testing.T) {
	cfg := testConfig(t, 1, 3, 1)
	engine := &fakeEngine{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	execution, err := NewJob("tpch", cfg).Engine(engine).Build().Run(ctx)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	jobErr := err.(*JobError)
	assert.Equal(t, 0, len(jobErr.Failures))
	assert.Equal(t, 4, len(jobErr.Abandoned))
	assert.Equal(t, ReferenceUnit, jobErr.Abandoned[0].Kind)
	assert.Equal(t, context.Canceled, jobErr.Cause())
	assert.Equal(t, 0, len(engine.workspaces))
}

func TestJob_ChecksumAndPublish(t *testing.T) {
	cfg := testConfig(t, 0.5, 2, 2)
	cfg.Publish.Checksum = "sha256"
	target := t.TempDir()
	engine := &fakeEngine{}
	job := NewJob("tpch", cfg).
		Engine(engine).
		Publisher(NewPublisher(&file.LocalFileSystem{}, target)).
		Build()

	execution, err := job.Run(context.Background())
	assert.Equal(t, nil, err)
	for _, f := range execution.Files() {
		_, err := os.Stat(f + ".sha256")
		assert.Equal(t, nil, err)
		rel, _ := filepath.Rel(cfg.Paths.DataDirectory, f)
		_, err = os.Stat(filepath.Join(target, rel))
		assert.Equal(t, nil, err)
		_, err = os.Stat(filepath.Join(target, rel) + ".sha256")
		assert.Equal(t, nil, err)
	}
}
