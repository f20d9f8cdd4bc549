package tpchgen

import (
	"context"
)

//JobListener job listener
type JobListener interface {
	//BeforeJob execute before job start, an error aborts the job
	BeforeJob(ctx context.Context, execution *JobExecution) error
	//AfterJob execute after job end either normally or abnormally
	AfterJob(ctx context.Context, execution *JobExecution) error
}

//UnitListener unit listener; called from worker goroutines so implementations must be safe for concurrent use
type UnitListener interface {
	//BeforeUnit execute before the unit starts, an error fails the unit
	BeforeUnit(ctx context.Context, execution *UnitExecution) error
	//AfterUnit execute after the unit ends either normally or abnormally
	AfterUnit(ctx context.Context, execution *UnitExecution) error
}
