package tpchgen

import (
	"time"

	"github.com/gizmodata/tpch-datagen/status"
	"github.com/gizmodata/tpch-datagen/util"
	"github.com/google/uuid"
)

type JobExecution struct {
	JobExecutionId string
	JobName        string
	JobKey         string
	Config         Config
	JobStatus      status.BatchStatus
	Location       *OutputLocation
	UnitExecutions []*UnitExecution
	CreateTime     time.Time
	StartTime      time.Time
	EndTime        time.Time
	FailError      error
}

func newJobExecution(name string, cfg Config) *JobExecution {
	key, _ := util.Fingerprint(cfg.Scale)
	return &JobExecution{
		JobExecutionId: uuid.NewString(),
		JobName:        name,
		JobKey:         key,
		Config:         cfg,
		JobStatus:      status.STARTING,
		CreateTime:     time.Now(),
	}
}

func (e *JobExecution) AddUnitExecution(execution *UnitExecution) {
	e.UnitExecutions = append(e.UnitExecutions, execution)
}

// Files lists the files written by every completed unit
func (e *JobExecution) Files() []string {
	var files []string
	for _, ue := range e.UnitExecutions {
		files = append(files, ue.Files...)
	}
	return files
}

func (e *JobExecution) start() {
	e.StartTime = time.Now()
	e.JobStatus = status.STARTED
}

func (e *JobExecution) finish(st status.BatchStatus, err error) {
	e.JobStatus = st
	e.FailError = err
	e.EndTime = time.Now()
}

// Elapsed is the run time of the job, up to now while it runs
func (e *JobExecution) Elapsed() time.Duration {
	if e.StartTime.IsZero() {
		return 0
	}
	if e.EndTime.IsZero() {
		return time.Since(e.StartTime)
	}
	return e.EndTime.Sub(e.StartTime)
}

// UnitExecution is owned by the worker running the unit until the unit's future resolves
type UnitExecution struct {
	UnitExecutionId string
	Unit            WorkUnit
	UnitStatus      status.BatchStatus
	JobExecution    *JobExecution
	Files           []string
	CreateTime      time.Time
	StartTime       time.Time
	EndTime         time.Time
	FailError       error
}

func newUnitExecution(job *JobExecution, unit WorkUnit) *UnitExecution {
	return &UnitExecution{
		UnitExecutionId: uuid.NewString(),
		Unit:            unit,
		UnitStatus:      status.STARTING,
		JobExecution:    job,
		CreateTime:      time.Now(),
	}
}

func (execution *UnitExecution) start() {
	execution.StartTime = time.Now()
	execution.UnitStatus = status.STARTED
}

func (execution *UnitExecution) finish(files []string, err error) {
	execution.Files = files
	if err != nil {
		execution.UnitStatus = status.FAILED
		execution.FailError = err
	} else {
		execution.UnitStatus = status.COMPLETED
	}
	execution.EndTime = time.Now()
}

// abandon marks a unit that was never started because the job halted
func (execution *UnitExecution) abandon() {
	execution.UnitStatus = status.ABANDONED
	execution.EndTime = time.Now()
}

func (execution *UnitExecution) Elapsed() time.Duration {
	if execution.StartTime.IsZero() || execution.EndTime.IsZero() {
		return 0
	}
	return execution.EndTime.Sub(execution.StartTime)
}
