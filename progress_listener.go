package tpchgen

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gizmodata/tpch-datagen/status"
	"github.com/schollz/progressbar/v3"
)

// ProgressListener draws a progress bar advancing once per finished unit
type ProgressListener struct {
	writer io.Writer
	lock   sync.Mutex
	bar    *progressbar.ProgressBar
	failed int
}

func NewProgressListener(w io.Writer) *ProgressListener {
	return &ProgressListener{writer: w}
}

func (l *ProgressListener) BeforeJob(ctx context.Context, execution *JobExecution) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	total := execution.Config.Scale.Chunks + 1
	l.failed = 0
	l.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(l.writer),
		progressbar.OptionSetDescription(fmt.Sprintf("sf=%s", FormatScaleFactor(execution.Config.Scale.ScaleFactor))),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
	return nil
}

func (l *ProgressListener) AfterJob(ctx context.Context, execution *JobExecution) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.bar == nil {
		return nil
	}
	defer func() { l.bar = nil }()
	if execution.JobStatus == status.COMPLETED {
		return l.bar.Finish()
	}
	return l.bar.Exit()
}

func (l *ProgressListener) BeforeUnit(ctx context.Context, execution *UnitExecution) error {
	return nil
}

func (l *ProgressListener) AfterUnit(ctx context.Context, execution *UnitExecution) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.bar == nil {
		return nil
	}
	if execution.UnitStatus == status.FAILED {
		l.failed++
		l.bar.Describe(fmt.Sprintf("sf=%s, %d failed", FormatScaleFactor(execution.Unit.ScaleFactor), l.failed))
	}
	return l.bar.Add(1)
}
