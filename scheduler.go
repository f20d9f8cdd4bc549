package tpchgen

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/gizmodata/tpch-datagen/status"
	"github.com/pkg/errors"
)

// scheduler runs the units of one job execution; it is not shared between jobs
type scheduler struct {
	execution  *JobExecution
	spec       ScaleSpec
	location   *OutputLocation
	executor   Executor
	listeners  []UnitListener
	repository Repository
}

// Run executes units on a pool of poolSize workers. A unit starts only when a worker is free.
// After the first failure no further unit is started; units already running are drained.
func (s *scheduler) Run(ctx context.Context, units []WorkUnit, poolSize int) *JobOutcome {
	agg := newFailureAggregator()
	executions := make([]*UnitExecution, 0, len(units))
	for _, unit := range units {
		ue := newUnitExecution(s.execution, unit)
		s.execution.AddUnitExecution(ue)
		executions = append(executions, ue)
	}

	pool, err := newTaskPool(poolSize)
	if err != nil {
		agg.Interrupt(NewBatchError(ErrCodeGeneral, "create worker pool, size:%v", poolSize, err))
		s.abandonAll(ctx, agg, executions)
		return agg.Outcome(executions)
	}
	defer pool.Release()

	var halted atomic.Bool
	futures := make([]Future, len(executions))
	for i, ue := range executions {
		if halted.Load() {
			break
		}
		if err := ctx.Err(); err != nil {
			logger.Warn(ctx, "job cancelled, stop dispatching units, err:%v", err)
			agg.Interrupt(err)
			break
		}
		ue := ue
		logger.Debug(ctx, "dispatch unit, unit:%v, running:%v", ue.Unit.Name(), pool.Running())
		futures[i] = pool.Submit(ctx, func() (interface{}, error) {
			if halted.Load() {
				return ue, nil
			}
			err := s.runUnit(ctx, ue)
			if err != nil {
				halted.Store(true)
				agg.Fail(ctx, err)
				return ue, err
			}
			return ue, nil
		})
	}

	for i, fu := range futures {
		ue := executions[i]
		if fu == nil {
			s.abandon(ctx, agg, ue)
			continue
		}
		val, err := fu.Get()
		switch {
		case err != nil && val == nil:
			// refused by the pool or panicked outside runUnit, not aggregated yet
			uerr := asUnitError(ue.Unit, err)
			ue.finish(ue.Files, uerr)
			agg.Fail(ctx, uerr)
			halted.Store(true)
			s.save(ctx, ue)
		case ue.UnitStatus == status.STARTING:
			s.abandon(ctx, agg, ue)
		}
	}
	return agg.Outcome(executions)
}

// RunUnit executes a single unit on the calling goroutine
func (s *scheduler) RunUnit(ctx context.Context, unit WorkUnit) *JobOutcome {
	agg := newFailureAggregator()
	ue := newUnitExecution(s.execution, unit)
	s.execution.AddUnitExecution(ue)
	if err := ctx.Err(); err != nil {
		agg.Interrupt(err)
		s.abandon(ctx, agg, ue)
		return agg.Outcome([]*UnitExecution{ue})
	}
	if err := s.runUnit(ctx, ue); err != nil {
		agg.Fail(ctx, err)
	}
	return agg.Outcome([]*UnitExecution{ue})
}

// Abandon records units that will never run
func (s *scheduler) Abandon(ctx context.Context, units []WorkUnit) *JobOutcome {
	agg := newFailureAggregator()
	executions := make([]*UnitExecution, 0, len(units))
	for _, unit := range units {
		ue := newUnitExecution(s.execution, unit)
		s.execution.AddUnitExecution(ue)
		executions = append(executions, ue)
	}
	s.abandonAll(ctx, agg, executions)
	return agg.Outcome(executions)
}

// runUnit never panics: a panic anywhere after the unit started, listeners included, fails the unit
func (s *scheduler) runUnit(ctx context.Context, ue *UnitExecution) (err *UnitError) {
	ue.start()
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in unit execution, unit:%v, err:%v, stack:%v", ue.Unit.Name(), r, string(debug.Stack()))
			if err == nil {
				err = NewExecutionError(ue.Unit, StagePanic, NewBatchError(ErrCodeGeneral, "panic in unit execution: %v", r))
			}
			ue.finish(ue.Files, err)
			s.save(ctx, ue)
		}
	}()
	s.save(ctx, ue)
	logger.Info(ctx, "start unit, unit:%v", ue.Unit)

	for _, l := range s.listeners {
		if lerr := l.BeforeUnit(ctx, ue); lerr != nil {
			err = NewExecutionError(ue.Unit, "listener", lerr)
			break
		}
	}
	var files []string
	if err == nil {
		var xerr error
		files, xerr = s.executor.Execute(ctx, ue.Unit, s.spec, s.location)
		if xerr != nil {
			err = asUnitError(ue.Unit, xerr)
		}
	}
	if err != nil {
		ue.finish(files, err)
	} else {
		ue.finish(files, nil)
	}
	for _, l := range s.listeners {
		if lerr := l.AfterUnit(ctx, ue); lerr != nil {
			logger.Warn(ctx, "unit listener failed, unit:%v, err:%v", ue.Unit.Name(), lerr)
		}
	}
	s.save(ctx, ue)
	return err
}

func (s *scheduler) abandonAll(ctx context.Context, agg *failureAggregator, executions []*UnitExecution) {
	for _, ue := range executions {
		s.abandon(ctx, agg, ue)
	}
}

func (s *scheduler) abandon(ctx context.Context, agg *failureAggregator, ue *UnitExecution) {
	ue.abandon()
	agg.Abandon(ue.Unit)
	s.save(ctx, ue)
	logger.Info(ctx, "unit not dispatched, unit:%v", ue.Unit.Name())
}

func (s *scheduler) save(ctx context.Context, ue *UnitExecution) {
	if s.repository == nil {
		return
	}
	if err := s.repository.SaveUnitExecution(ctx, ue); err != nil {
		logger.Warn(ctx, "save unit execution failed, unit:%v, err:%v", ue.Unit.Name(), err)
	}
}

func asUnitError(unit WorkUnit, err error) *UnitError {
	var uerr *UnitError
	if errors.As(err, &uerr) {
		return uerr
	}
	return NewExecutionError(unit, "execute", err)
}
