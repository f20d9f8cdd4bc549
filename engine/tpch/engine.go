package tpch

import (
	"context"
	"os"
	"time"

	tpchgen "github.com/gizmodata/tpch-datagen"
	"github.com/gizmodata/tpch-datagen/internal/logs"
	"github.com/pkg/errors"
)

const (
	DefaultRowGroupRows = 122880
	DefaultBatchSize    = 50000
)

// Engine generates TPC-H data into an embedded sqlite database inside the unit workspace and
// exports it to parquet.
type Engine struct {
	rowGroupRows int
	batchSize    int
	logger       logs.Logger
}

type Option func(*Engine)

// WithRowGroupRows sets the number of rows per parquet row group
func WithRowGroupRows(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.rowGroupRows = n
		}
	}
}

// WithBatchSize sets how many rows are inserted per transaction
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithLogger(l logs.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rowGroupRows: DefaultRowGroupRows,
		batchSize:    DefaultBatchSize,
		logger:       logs.NewLogger(os.Stdout, logs.Info),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ tpchgen.Engine = (*Engine)(nil)

func (e *Engine) Open(ctx context.Context, workspace string, threads int) (tpchgen.Session, error) {
	if threads < 1 {
		threads = 1
	}
	st, err := openStore(ctx, workspace, threads)
	if err != nil {
		return nil, err
	}
	return &session{engine: e, store: st, threads: threads}, nil
}

type session struct {
	engine    *Engine
	store     *store
	threads   int
	generated bool
}

func (s *session) Generate(ctx context.Context, req tpchgen.GenerateRequest) error {
	if req.ScaleFactor <= 0 {
		return errors.Errorf("scale factor must be greater than 0, got %v", req.ScaleFactor)
	}
	if req.TotalUnits < 1 || req.UnitOrdinal < 0 || req.UnitOrdinal >= req.TotalUnits {
		return errors.Errorf("invalid slice %v of %v", req.UnitOrdinal, req.TotalUnits)
	}
	if s.generated {
		return errors.New("session already generated its data")
	}
	s.generated = true

	start := time.Now()
	counts, err := s.store.load(ctx, s.engine.batchSize, func(emit func(t *table, row []interface{}) error) error {
		return generateSlice(req.ScaleFactor, req.UnitOrdinal, req.TotalUnits, emit)
	})
	if err != nil {
		return errors.Wrapf(err, "generate sf=%v step=%v/%v", req.ScaleFactor, req.UnitOrdinal, req.TotalUnits)
	}
	s.engine.logger.Debug(ctx, "generated sf=%v step=%v/%v, rows:%v, Elapsed time: %.4f seconds",
		req.ScaleFactor, req.UnitOrdinal, req.TotalUnits, counts, time.Since(start).Seconds())
	return nil
}

func (s *session) Close() error {
	return errors.Wrap(s.store.Close(), "close store")
}
