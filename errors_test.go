package tpchgen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
)

func TestBatchErr_Format(t *testing.T) {
	batchErr := NewBatchError(ErrCodeGeneral, "new error")
	assert.Equal(t, "new error", fmt.Sprintf("%v", batchErr))
	assert.Equal(t, ErrCodeGeneral, batchErr.Code())
	assert.NotEqual(t, 0, len(batchErr.StackTrace()))
	detail := fmt.Sprintf("%+v", batchErr)
	assert.T(t, strings.HasPrefix(detail, "[general] new error"), detail)
	assert.T(t, strings.Contains(detail, "TestBatchErr_Format"), detail)

	err := fmt.Errorf("some error raised from db")
	batchErr2 := NewBatchError(ErrCodeDbFail, "wrap error", err)
	assert.Equal(t, "wrap error: some error raised from db", batchErr2.Error())
	assert.Equal(t, "wrap error", batchErr2.Message())
	assert.Equal(t, err, errors.Cause(batchErr2))
	assert.T(t, strings.Contains(fmt.Sprintf("%+v", batchErr2), "caused by: some error raised from db"))

	batchErr3 := NewBatchError(ErrCodeDbFail, "wrap error:%v, table:%v", "x", "orders", err)
	assert.Equal(t, "wrap error:x, table:orders", batchErr3.Message())
	assert.T(t, errors.Is(batchErr3, err))

	batchErr4 := NewBatchError(ErrCodeGeneral, "100%% done")
	assert.Equal(t, "100%% done", batchErr4.Message())
}

func TestIsCode(t *testing.T) {
	err := NewBatchError(ErrCodeLocationExists, "exists")
	assert.T(t, IsCode(err, ErrCodeLocationExists))
	assert.T(t, !IsCode(err, ErrCodeConfig))
	assert.T(t, IsCode(errors.Wrap(err, "outer"), ErrCodeLocationExists))
	assert.T(t, !IsCode(fmt.Errorf("plain"), ErrCodeGeneral))
	assert.T(t, !IsCode(nil, ErrCodeGeneral))
}

func TestExecutionError(t *testing.T) {
	unit := WorkUnit{Kind: FactUnit, Ordinal: 3, Total: 10, ScaleFactor: 1}
	cause := errors.New("disk full")
	uerr := NewExecutionError(unit, "export:lineitem", cause)
	assert.Equal(t, ErrCodeExecution, uerr.Code())
	assert.Equal(t, "unit fact-3 failed at export:lineitem: disk full", uerr.Error())
	assert.Equal(t, 3, uerr.Unit.Ordinal)
	assert.T(t, errors.Is(uerr, cause))

	var be BatchError
	assert.T(t, errors.As(error(uerr), &be))
	assert.Equal(t, ErrCodeExecution, be.Code())
}

func TestJobError(t *testing.T) {
	u1 := WorkUnit{Kind: FactUnit, Ordinal: 1, Total: 4}
	u2 := WorkUnit{Kind: FactUnit, Ordinal: 2, Total: 4}
	f1 := NewExecutionError(u1, StageGenerate, errors.New("a"))
	f2 := NewExecutionError(u2, StageGenerate, errors.New("b"))
	jobErr := newJobError([]*UnitError{f1, f2}, []WorkUnit{{Kind: FactUnit, Ordinal: 3, Total: 4}})
	assert.Equal(t, ErrCodeJobFailed, jobErr.Code())
	assert.Equal(t, "job failed, 2 unit(s) failed: [fact-1, fact-2], 1 unit(s) not dispatched", jobErr.Message())
	assert.T(t, IsCode(jobErr, ErrCodeJobFailed))

	var uerr *UnitError
	assert.T(t, errors.As(error(jobErr), &uerr))
	assert.Equal(t, 1, uerr.Unit.Ordinal)
}
