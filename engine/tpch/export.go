package tpch

import (
	"context"
	"math"
	"sort"

	"github.com/apache/arrow-go/v18/parquet"
	tpchgen "github.com/gizmodata/tpch-datagen"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Export writes the table's rows of this session to parquet. With PerThreadOutput the rows are split
// across one writer per engine thread, writer i numbering its files i, i+threads, i+2*threads...
// Writer 0 always leaves at least one file so that every exported table is visible.
func (s *session) Export(ctx context.Context, req tpchgen.ExportRequest) ([]string, error) {
	t, err := lookupTable(req.Table)
	if err != nil {
		return nil, err
	}
	codec, err := compressionCodec(req.Compression)
	if err != nil {
		return nil, err
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithCreatedBy("tpchgen "+tpchgen.Version),
	)
	lo, hi, err := s.store.bounds(ctx, t)
	if err != nil {
		return nil, err
	}

	writers := 1
	if req.PerThreadOutput && s.threads > 1 {
		writers = s.threads
	}
	maxBytes := req.FileSizeBytes
	if maxBytes <= 0 {
		maxBytes = math.MaxInt64
	}

	results := make([][]string, writers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < writers; i++ {
		i := i
		from := lo + (hi-lo)*int64(i)/int64(writers)
		to := lo + (hi-lo)*int64(i+1)/int64(writers)
		next := i
		seq := func() int {
			n := next
			next += writers
			return n
		}
		g.Go(func() error {
			// parquet writers cache column paths in the schema nodes, so every writer builds its own
			node, err := t.parquetSchema()
			if err != nil {
				return err
			}
			w := newRollingWriter(t, node, props, req.Dir, req.FileNamePattern, seq, maxBytes, s.engine.rowGroupRows)
			err = s.store.scan(gctx, t, from, to, w.append)
			files, cerr := w.close(i == 0)
			results[i] = files
			if err != nil {
				return err
			}
			return cerr
		})
	}
	err = g.Wait()

	var files []string
	for _, r := range results {
		files = append(files, r...)
	}
	sort.Strings(files)
	if err != nil {
		return files, errors.Wrapf(err, "export %v", t.name)
	}
	s.engine.logger.Debug(ctx, "exported table:%v, rows:%v, files:%v", t.name, hi-lo, len(files))
	return files, nil
}
