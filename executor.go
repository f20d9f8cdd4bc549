package tpchgen

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gizmodata/tpch-datagen/file"
	"github.com/pkg/errors"
)

// unit stages reported in ExecutionError
const (
	StageWorkspace = "workspace"
	StageOpen      = "open"
	StageGenerate  = "generate"
	StageExport    = "export"
	StageCleanup   = "cleanup"
	StagePanic     = "panic"
)

// Executor runs one work unit to completion
type Executor interface {
	Execute(ctx context.Context, unit WorkUnit, spec ScaleSpec, location *OutputLocation) ([]string, error)
}

// NewExecutor returns an executor running units on engine with scratch workspaces under workDir
func NewExecutor(engine Engine, workDir string) Executor {
	return &chunkExecutor{
		engine:  engine,
		workDir: workDir,
		fs:      &file.LocalFileSystem{},
	}
}

type chunkExecutor struct {
	engine  Engine
	workDir string
	fs      *file.LocalFileSystem
}

// Execute generates the unit in a private workspace and exports every table of the unit.
// The workspace is removed on every exit path. Errors are *UnitError.
func (e *chunkExecutor) Execute(ctx context.Context, unit WorkUnit, spec ScaleSpec, location *OutputLocation) (files []string, err error) {
	start := time.Now()
	stage := StageWorkspace
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in unit executing, unit:%v, stage:%v, err:%v", unit.Name(), stage, r)
			err = NewExecutionError(unit, stage, errors.Errorf("panic: %v", r))
		}
	}()

	if err = e.fs.MkdirAll(e.workDir); err != nil {
		return nil, NewExecutionError(unit, StageWorkspace, err)
	}
	workspace, err := os.MkdirTemp(e.workDir, fmt.Sprintf("tpchgen-%s-", unit.Name()))
	if err != nil {
		return nil, NewExecutionError(unit, StageWorkspace, err)
	}
	logger.Debug(ctx, "workspace acquired, unit:%v, workspace:%v", unit.Name(), workspace)
	defer func() {
		if rmErr := e.fs.RemoveAll(workspace); rmErr != nil {
			logger.Error(ctx, "remove workspace failed, unit:%v, workspace:%v, err:%v", unit.Name(), workspace, rmErr)
			if err == nil {
				err = NewExecutionError(unit, StageCleanup, rmErr)
			}
		}
	}()

	stage = StageOpen
	session, err := e.engine.Open(ctx, workspace, spec.EngineThreads)
	if err != nil {
		return nil, NewExecutionError(unit, StageOpen, err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn(ctx, "close engine session failed, unit:%v, err:%v", unit.Name(), closeErr)
		}
	}()

	stage = StageGenerate
	err = session.Generate(ctx, GenerateRequest{
		ScaleFactor: unit.ScaleFactor,
		TotalUnits:  unit.Total,
		UnitOrdinal: unit.Ordinal,
	})
	if err != nil {
		return nil, NewExecutionError(unit, StageGenerate, err)
	}

	for _, table := range unit.Tables {
		stage = fmt.Sprintf("%s:%s", StageExport, table)
		pattern, ferr := (&FilePath{NamePattern: FileNamePattern}).Format(map[string]interface{}{
			"table":   table,
			"ordinal": unit.Ordinal,
		})
		if ferr != nil {
			return files, NewExecutionError(unit, stage, ferr)
		}
		dir := location.TableDir(table)
		if err = e.fs.MkdirAll(dir); err != nil {
			return files, NewExecutionError(unit, stage, err)
		}
		written, xerr := session.Export(ctx, ExportRequest{
			Table:           table,
			Dir:             dir,
			Compression:     spec.Compression,
			FileSizeBytes:   spec.FileSizeBytes,
			PerThreadOutput: unit.PerThreadOutput,
			FileNamePattern: pattern,
		})
		files = append(files, written...)
		if xerr != nil {
			return files, NewExecutionError(unit, stage, xerr)
		}
	}
	logger.Info(ctx, "unit finished, unit:%v, files:%v, Elapsed time: %.4f seconds", unit.Name(), len(files), time.Since(start).Seconds())
	return files, nil
}
