package tpchgen

import (
	"context"
	"sort"
	"sync"

	"github.com/gizmodata/tpch-datagen/status"
)

// JobOutcome is the terminal result of running a set of units
type JobOutcome struct {
	Status    status.BatchStatus
	Units     []*UnitExecution
	failures  []*UnitError
	abandoned []WorkUnit
	cause     error
}

// Failures lists every unit failure, ordered by unit kind and ordinal
func (o *JobOutcome) Failures() []*UnitError {
	return o.failures
}

// Abandoned lists the units that were never started
func (o *JobOutcome) Abandoned() []WorkUnit {
	return o.abandoned
}

// Err is nil when the outcome is COMPLETED, otherwise a *JobError summarizing every failure
func (o *JobOutcome) Err() error {
	if o.Status == status.COMPLETED {
		return nil
	}
	jobErr := newJobError(o.failures, o.abandoned)
	if len(o.failures) == 0 && o.cause != nil {
		jobErr.err = o.cause
	}
	return jobErr
}

// Merge folds other into a new outcome; o's units come first
func (o *JobOutcome) Merge(other *JobOutcome) *JobOutcome {
	merged := &JobOutcome{
		Status:    o.Status.And(other.Status),
		Units:     append(append([]*UnitExecution{}, o.Units...), other.Units...),
		failures:  append(append([]*UnitError{}, o.failures...), other.failures...),
		abandoned: append(append([]WorkUnit{}, o.abandoned...), other.abandoned...),
		cause:     o.cause,
	}
	if merged.cause == nil {
		merged.cause = other.cause
	}
	return merged
}

// failureAggregator collects unit failures from concurrent workers
type failureAggregator struct {
	lock      sync.Mutex
	failures  []*UnitError
	abandoned []WorkUnit
	cause     error
}

func newFailureAggregator() *failureAggregator {
	return &failureAggregator{}
}

// Fail records a failure and logs it right away
func (a *failureAggregator) Fail(ctx context.Context, err *UnitError) {
	logger.Error(ctx, "unit failed, unit:%v, stage:%v, err:%+v", err.Unit.Name(), err.Stage, err)
	a.lock.Lock()
	defer a.lock.Unlock()
	a.failures = append(a.failures, err)
}

func (a *failureAggregator) Abandon(unit WorkUnit) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.abandoned = append(a.abandoned, unit)
}

// Interrupt records why dispatch stopped when no unit failed, e.g. cancellation
func (a *failureAggregator) Interrupt(err error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.cause == nil {
		a.cause = err
	}
}

func (a *failureAggregator) Outcome(units []*UnitExecution) *JobOutcome {
	a.lock.Lock()
	defer a.lock.Unlock()

	failures := append([]*UnitError{}, a.failures...)
	sort.SliceStable(failures, func(i, j int) bool {
		return unitLess(failures[i].Unit, failures[j].Unit)
	})
	abandoned := append([]WorkUnit{}, a.abandoned...)
	sort.SliceStable(abandoned, func(i, j int) bool {
		return unitLess(abandoned[i], abandoned[j])
	})

	st := status.COMPLETED
	for _, ue := range units {
		st = st.And(ue.UnitStatus)
	}
	if len(failures) > 0 || len(abandoned) > 0 || a.cause != nil {
		st = st.And(status.FAILED)
	}
	return &JobOutcome{
		Status:    st,
		Units:     units,
		failures:  failures,
		abandoned: abandoned,
		cause:     a.cause,
	}
}

// reference units sort before fact units
func unitLess(a, b WorkUnit) bool {
	if a.Kind != b.Kind {
		return a.Kind == ReferenceUnit
	}
	return a.Ordinal < b.Ordinal
}
