package tpchgen

import (
	"fmt"
)

type jobBuilder struct {
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

//NewJob new instance of job builder; the config is copied
func NewJob(name string, cfg Config) *jobBuilder {
	if name == "" {
		panic("job name must not be empty")
	}
	return &jobBuilder{
		name: name,
		cfg:  cfg,
	}
}

func (builder *jobBuilder) Engine(engine Engine) *jobBuilder {
	builder.engine = engine
	return builder
}

func (builder *jobBuilder) Partitioner(partitioner Partitioner) *jobBuilder {
	builder.partitioner = partitioner
	return builder
}

// Executor replaces the chunk executor built from the engine
func (builder *jobBuilder) Executor(executor Executor) *jobBuilder {
	builder.executor = executor
	return builder
}

func (builder *jobBuilder) Repository(repository Repository) *jobBuilder {
	builder.repository = repository
	return builder
}

func (builder *jobBuilder) Publisher(publisher Publisher) *jobBuilder {
	builder.publisher = publisher
	return builder
}

//Listener registers job and unit listeners; a value implementing both is registered as both
func (builder *jobBuilder) Listener(listener ...interface{}) *jobBuilder {
	for _, l := range listener {
		matched := false
		if jl, ok := l.(JobListener); ok {
			builder.jobListeners = append(builder.jobListeners, jl)
			matched = true
		}
		if ul, ok := l.(UnitListener); ok {
			builder.unitListeners = append(builder.unitListeners, ul)
			matched = true
		}
		if !matched {
			panic(fmt.Sprintf("not supported listener:%+v for job:%v", l, builder.name))
		}
	}
	return builder
}

func (builder *jobBuilder) Build() Job {
	executor := builder.executor
	if executor == nil {
		if builder.engine == nil {
			panic(fmt.Sprintf("job:%v needs an engine or an executor", builder.name))
		}
		executor = NewExecutor(builder.engine, builder.cfg.Paths.WorkDirectory)
	}
	partitioner := builder.partitioner
	if partitioner == nil {
		partitioner = NewPartitioner()
	}
	repository := builder.repository
	if repository == nil {
		repository = &nopRepository{}
	}
	return &datagenJob{
		name:          builder.name,
		cfg:           builder.cfg,
		engine:        builder.engine,
		partitioner:   partitioner,
		executor:      executor,
		jobListeners:  builder.jobListeners,
		unitListeners: builder.unitListeners,
		repository:    repository,
		publisher:     builder.publisher,
	}
}
