package tpchgen

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// BatchError error raised by the datagen job, identified by a code
type BatchError interface {
	Code() string
	Message() string
	Error() string
	StackTrace() errors.StackTrace
}

type batchErr struct {
	code  string
	msg   string
	err   error
	stack errors.StackTrace
}

func (err *batchErr) Code() string {
	return err.code
}

func (err *batchErr) Message() string {
	return err.msg
}

func (err *batchErr) Error() string {
	if err.err != nil {
		return fmt.Sprintf("%v: %v", err.msg, err.err)
	}
	return err.msg
}

func (err *batchErr) Unwrap() error {
	return err.err
}

func (err *batchErr) Cause() error {
	return err.err
}

func (err *batchErr) StackTrace() errors.StackTrace {
	return err.stack
}

func (err *batchErr) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			io.WriteString(s, fmt.Sprintf("[%v] %v", err.code, err.msg))
			if err.err != nil {
				fmt.Fprintf(s, "\ncaused by: %+v", err.err)
			}
			err.stack.Format(s, verb)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, err.Error())
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	}
}

// NewBatchError creates a BatchError; msg is formatted with args, a trailing error arg
// not consumed by msg is kept as the cause.
func NewBatchError(code string, msg string, args ...interface{}) BatchError {
	return newBatchErr(code, msg, args...)
}

func newBatchErr(code string, msg string, args ...interface{}) *batchErr {
	var cause error
	if len(args) > 0 {
		if e, ok := args[len(args)-1].(error); ok {
			cause = e
			if countVerbs(msg) < len(args) {
				args = args[:len(args)-1]
			}
		}
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &batchErr{
		code:  code,
		msg:   msg,
		err:   cause,
		stack: errors.WithStack(errStackMarker).(stackTracer).StackTrace()[1:],
	}
}

var errStackMarker = errors.New("stack")

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func countVerbs(format string) int {
	return strings.Count(format, "%") - 2*strings.Count(format, "%%")
}

const (
	ErrCodeConfig         = "config"
	ErrCodeLocationExists = "location_exists"
	ErrCodeExecution      = "execution"
	ErrCodeJobFailed      = "job_failed"
	ErrCodeDbFail         = "db_fail"
	ErrCodeGeneral        = "general"
)

// IsCode reports whether err, or any error it wraps, is a BatchError with the given code
func IsCode(err error, code string) bool {
	var be BatchError
	if errors.As(err, &be) {
		return be.Code() == code
	}
	return false
}

// UnitError reports the failure of a single unit; it carries the unit identity
type UnitError struct {
	*batchErr
	Unit  WorkUnit
	Stage string
}

// NewExecutionError wraps err as the failure of unit during stage (workspace, open, generate, export:<table>)
func NewExecutionError(unit WorkUnit, stage string, err error) *UnitError {
	return &UnitError{
		batchErr: newBatchErr(ErrCodeExecution, "unit %v failed at %v", unit.Name(), stage, err),
		Unit:     unit,
		Stage:    stage,
	}
}

// JobError is the aggregate failure of a job, it lists every unit failure observed
type JobError struct {
	*batchErr
	Failures  []*UnitError
	Abandoned []WorkUnit
}

func newJobError(failures []*UnitError, abandoned []WorkUnit) *JobError {
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, f.Unit.Name())
	}
	msg := fmt.Sprintf("job failed, %d unit(s) failed: [%s]", len(failures), strings.Join(names, ", "))
	if len(abandoned) > 0 {
		msg = fmt.Sprintf("%s, %d unit(s) not dispatched", msg, len(abandoned))
	}
	var cause error
	if len(failures) > 0 {
		cause = failures[0]
	}
	be := newBatchErr(ErrCodeJobFailed, msg)
	be.err = cause
	return &JobError{
		batchErr:  be,
		Failures:  failures,
		Abandoned: abandoned,
	}
}
