package tpchgen

import (
	"context"

	"github.com/gizmodata/tpch-datagen/status"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsListener collects unit metrics and writes them in text exposition format to a
// node-exporter textfile once the job ends.
type MetricsListener struct {
	path         string
	registry     *prometheus.Registry
	unitsTotal   *prometheus.CounterVec
	unitDuration *prometheus.HistogramVec
	filesTotal   *prometheus.CounterVec
	jobDuration  prometheus.Gauge
	jobSuccess   prometheus.Gauge
}

func NewMetricsListener(path string) *MetricsListener {
	l := &MetricsListener{
		path:     path,
		registry: prometheus.NewRegistry(),
		unitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tpchgen",
			Name:      "units_total",
			Help:      "Work units finished, by kind and status.",
		}, []string{"kind", "status"}),
		unitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tpchgen",
			Name:      "unit_duration_seconds",
			Help:      "Run time of work units.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"kind"}),
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tpchgen",
			Name:      "files_written_total",
			Help:      "Files exported, by unit kind.",
		}, []string{"kind"}),
		jobDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tpchgen",
			Name:      "job_duration_seconds",
			Help:      "Run time of the last job.",
		}),
		jobSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tpchgen",
			Name:      "job_success",
			Help:      "1 if the last job completed, 0 otherwise.",
		}),
	}
	l.registry.MustRegister(l.unitsTotal, l.unitDuration, l.filesTotal, l.jobDuration, l.jobSuccess)
	return l
}

// Registry exposes the collected metrics
func (l *MetricsListener) Registry() *prometheus.Registry {
	return l.registry
}

func (l *MetricsListener) BeforeJob(ctx context.Context, execution *JobExecution) error {
	return nil
}

func (l *MetricsListener) AfterJob(ctx context.Context, execution *JobExecution) error {
	l.jobDuration.Set(execution.Elapsed().Seconds())
	if execution.JobStatus == status.COMPLETED {
		l.jobSuccess.Set(1)
	} else {
		l.jobSuccess.Set(0)
	}
	for _, ue := range execution.UnitExecutions {
		if ue.UnitStatus == status.ABANDONED {
			l.unitsTotal.WithLabelValues(string(ue.Unit.Kind), string(ue.UnitStatus)).Inc()
		}
	}
	if l.path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(l.path, l.registry); err != nil {
		return NewBatchError(ErrCodeGeneral, "write metrics file:%v", l.path, err)
	}
	logger.Info(ctx, "metrics written, path:%v", l.path)
	return nil
}

func (l *MetricsListener) BeforeUnit(ctx context.Context, execution *UnitExecution) error {
	return nil
}

func (l *MetricsListener) AfterUnit(ctx context.Context, execution *UnitExecution) error {
	kind := string(execution.Unit.Kind)
	l.unitsTotal.WithLabelValues(kind, string(execution.UnitStatus)).Inc()
	l.unitDuration.WithLabelValues(kind).Observe(execution.Elapsed().Seconds())
	l.filesTotal.WithLabelValues(kind).Add(float64(len(execution.Files)))
	return nil
}
