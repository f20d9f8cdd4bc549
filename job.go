package tpchgen

import (
	"context"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/gizmodata/tpch-datagen/status"
)

//Job a TPC-H datagen job
type Job interface {
	Name() string
	// Run generates the configured dataset and returns the execution record; the error is nil only
	// when every unit completed and the post-run steps succeeded.
	Run(ctx context.Context) (*JobExecution, error)
}

type datagenJob struct {
	name          string
	cfg           Config
	engine        Engine
	partitioner   Partitioner
	executor      Executor
	jobListeners  []JobListener
	unitListeners []UnitListener
	repository    Repository
	publisher     Publisher
}

func (job *datagenJob) Name() string {
	return job.name
}

func (job *datagenJob) Run(ctx context.Context) (execution *JobExecution, err error) {
	cfg := job.cfg
	execution = newJobExecution(job.name, cfg)
	if err = Normalize(&cfg); err == nil {
		err = Validate(&cfg)
	}
	if err != nil {
		logger.Error(ctx, "invalid job config, jobName:%v, err:%v", job.name, err)
		execution.finish(status.FAILED, err)
		return execution, err
	}
	execution.Config = cfg

	location, err := Prepare(ctx, cfg.Paths.DataDirectory, cfg.Scale.ScaleFactor, cfg.Paths.Overwrite)
	if err != nil {
		logger.Error(ctx, "prepare output location failed, jobName:%v, err:%v", job.name, err)
		execution.finish(status.FAILED, err)
		return execution, err
	}
	execution.Location = location

	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in job executing, jobName:%v, jobExecutionId:%v, err:%v, stack:%v", job.name, execution.JobExecutionId, er, string(debug.Stack()))
			err = NewBatchError(ErrCodeGeneral, "panic in job execution: %v", er)
			execution.finish(status.FAILED, err)
		}
		job.save(ctx, execution)
	}()

	logger.Info(ctx, "start running job, jobName:%v, jobExecutionId:%v, location:%v, sf:%v, chunks:%v, processes:%v, engineThreads:%v",
		job.name, execution.JobExecutionId, location.Path, FormatScaleFactor(cfg.Scale.ScaleFactor), cfg.Scale.Chunks, cfg.Scale.Processes, cfg.Scale.EngineThreads)
	for _, listener := range job.jobListeners {
		if err = listener.BeforeJob(ctx, execution); err != nil {
			logger.Error(ctx, "job listener execute err, jobName:%v, jobExecutionId:%v, listener:%v, err:%v", job.name, execution.JobExecutionId, reflect.TypeOf(listener).String(), err)
			execution.finish(status.FAILED, err)
			return execution, err
		}
	}
	execution.start()
	job.save(ctx, execution)

	outcome := job.generate(ctx, execution)
	err = outcome.Err()
	if err == nil {
		err = job.postProcess(ctx, execution)
	}
	jobStatus := outcome.Status
	if err != nil {
		jobStatus = status.FAILED
	}
	execution.finish(jobStatus, err)

	for _, listener := range job.jobListeners {
		if lerr := listener.AfterJob(ctx, execution); lerr != nil {
			logger.Error(ctx, "job listener execute err, jobName:%v, jobExecutionId:%v, listener:%v, err:%v", job.name, execution.JobExecutionId, reflect.TypeOf(listener).String(), lerr)
			if err == nil {
				err = lerr
				execution.finish(status.FAILED, err)
			}
		}
	}
	logger.Info(ctx, "finish job execution, jobName:%v, jobExecutionId:%v, jobStatus:%v, Elapsed time: %.4f seconds", job.name, execution.JobExecutionId, execution.JobStatus, execution.Elapsed().Seconds())
	return execution, err
}

// generate runs the reference unit inline, then the fact units on the worker pool
func (job *datagenJob) generate(ctx context.Context, execution *JobExecution) *JobOutcome {
	cfg := execution.Config
	sched := &scheduler{
		execution:  execution,
		spec:       cfg.Scale,
		location:   execution.Location,
		executor:   job.executor,
		listeners:  job.unitListeners,
		repository: job.repository,
	}
	reference, facts := job.partitioner.Plan(cfg.Scale)

	start := time.Now()
	logger.Info(ctx, "generating reference tables, tables:%v, sf:%v", reference.Tables, FormatScaleFactor(reference.ScaleFactor))
	outcome := sched.RunUnit(ctx, reference)
	logger.Info(ctx, "reference tables done, status:%v, Elapsed time: %.4f seconds", outcome.Status, time.Since(start).Seconds())
	if outcome.Status != status.COMPLETED {
		return outcome.Merge(sched.Abandon(ctx, facts))
	}

	start = time.Now()
	logger.Info(ctx, "generating fact tables, units:%v, poolSize:%v", len(facts), cfg.Scale.Processes)
	factOutcome := sched.Run(ctx, facts, cfg.Scale.Processes)
	logger.Info(ctx, "fact tables done, status:%v, failed:%v, notDispatched:%v, Elapsed time: %.4f seconds",
		factOutcome.Status, len(factOutcome.Failures()), len(factOutcome.Abandoned()), time.Since(start).Seconds())
	return outcome.Merge(factOutcome)
}

// postProcess writes checksums and publishes the location after a successful run
func (job *datagenJob) postProcess(ctx context.Context, execution *JobExecution) error {
	if alg := execution.Config.Publish.Checksum; alg != "" {
		if err := checksumFiles(ctx, alg, execution.Files()); err != nil {
			return err
		}
	}
	if job.publisher != nil {
		if err := job.publisher.Publish(ctx, execution.Location); err != nil {
			return err
		}
	}
	return nil
}

func (job *datagenJob) save(ctx context.Context, execution *JobExecution) {
	if job.repository == nil {
		return
	}
	if err := job.repository.SaveJobExecution(ctx, execution); err != nil {
		logger.Warn(ctx, "save job execution failed, jobName:%v, jobExecutionId:%v, err:%v", job.name, execution.JobExecutionId, err)
	}
}
