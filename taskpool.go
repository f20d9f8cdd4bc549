package tpchgen

import (
	"context"
	"fmt"

	"github.com/gizmodata/tpch-datagen/internal/logs"
	"github.com/panjf2000/ants/v2"
)

// taskPool runs at most size tasks at once, Submit blocks while every worker is busy
type taskPool struct {
	pool *ants.Pool
}

func newTaskPool(size int) (*taskPool, error) {
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(false),
		ants.WithLogger(&logs.AntsLogger{Logger: logger}),
	)
	if err != nil {
		return nil, err
	}
	return &taskPool{
		pool: pool,
	}, nil
}

// Future get result in future
type Future interface {
	Get() (interface{}, error)
}

type futureResult struct {
	val interface{}
	err error
}

type futureImpl struct {
	ch <-chan futureResult
}

func (f *futureImpl) Get() (interface{}, error) {
	r := <-f.ch
	return r.val, r.err
}

func (pool *taskPool) Submit(ctx context.Context, task func() (interface{}, error)) Future {
	result := make(chan futureResult, 1)
	err := pool.pool.Submit(func() {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(ctx, "task panic, err:%v", err)
				result <- futureResult{err: fmt.Errorf("panic:%v", err)}
			}
		}()
		val, err := task()
		result <- futureResult{val: val, err: err}
	})
	if err != nil {
		result <- futureResult{err: err}
	}
	return &futureImpl{
		ch: result,
	}
}

// Running is the number of tasks executing right now
func (pool *taskPool) Running() int {
	return pool.pool.Running()
}

func (pool *taskPool) Release() {
	pool.pool.Release()
}
