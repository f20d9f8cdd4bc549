package tpchgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// fakeEngine writes one small file per export and can be told to fail or stall
type fakeEngine struct {
	delay        time.Duration
	failOrdinals map[int]bool
	failOpen     bool
	failExport   string
	// a failing Generate waits until this many sessions were opened
	failAfterOpened int32

	opened  int32
	closed  int32
	running int32
	peak    int32

	lock       sync.Mutex
	workspaces []string
	generated  []GenerateRequest
}

func (e *fakeEngine) Open(ctx context.Context, workspace string, threads int) (Session, error) {
	if _, err := os.Stat(workspace); err != nil {
		return nil, errors.Wrap(err, "workspace missing")
	}
	e.lock.Lock()
	e.workspaces = append(e.workspaces, workspace)
	e.lock.Unlock()
	if e.failOpen {
		return nil, errors.New("engine unavailable")
	}
	atomic.AddInt32(&e.opened, 1)
	n := atomic.AddInt32(&e.running, 1)
	for {
		p := atomic.LoadInt32(&e.peak)
		if n <= p || atomic.CompareAndSwapInt32(&e.peak, p, n) {
			break
		}
	}
	return &fakeSession{engine: e, workspace: workspace}, nil
}

func (e *fakeEngine) factGenerated() []int {
	e.lock.Lock()
	defer e.lock.Unlock()
	var ordinals []int
	for _, req := range e.generated {
		if req.ScaleFactor != ReferenceScaleFactor {
			ordinals = append(ordinals, req.UnitOrdinal)
		}
	}
	return ordinals
}

type fakeSession struct {
	engine    *fakeEngine
	workspace string
	req       GenerateRequest
}

func (s *fakeSession) Generate(ctx context.Context, req GenerateRequest) error {
	e := s.engine
	s.req = req
	e.lock.Lock()
	e.generated = append(e.generated, req)
	e.lock.Unlock()
	if err := os.WriteFile(filepath.Join(s.workspace, "scratch.db"), []byte("rows"), 0o644); err != nil {
		return err
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if req.ScaleFactor != ReferenceScaleFactor && e.failOrdinals[req.UnitOrdinal] {
		deadline := time.Now().Add(5 * time.Second)
		for atomic.LoadInt32(&e.opened) < e.failAfterOpened && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		return errors.Errorf("generate failed for step %d", req.UnitOrdinal)
	}
	return nil
}

func (s *fakeSession) Export(ctx context.Context, req ExportRequest) ([]string, error) {
	if req.Table == s.engine.failExport {
		return nil, errors.Errorf("disk full while exporting %v", req.Table)
	}
	name := filepath.Join(req.Dir, req.FileNamePattern+"0.parquet")
	content := fmt.Sprintf("%s sf=%v step=%d/%d %s", req.Table, s.req.ScaleFactor, s.req.UnitOrdinal, s.req.TotalUnits, req.Compression)
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

func (s *fakeSession) Close() error {
	atomic.AddInt32(&s.engine.running, -1)
	atomic.AddInt32(&s.engine.closed, 1)
	return nil
}
