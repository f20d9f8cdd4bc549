package tpch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
	tpchgen "github.com/gizmodata/tpch-datagen"
	"github.com/pkg/errors"
)

func compressionCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case tpchgen.CompressionSnappy:
		return compress.Codecs.Snappy, nil
	case tpchgen.CompressionZstd:
		return compress.Codecs.Zstd, nil
	case tpchgen.CompressionGzip:
		return compress.Codecs.Gzip, nil
	case tpchgen.CompressionNone, "uncompressed", "":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, errors.Errorf("unsupported parquet compression: %q", name)
	}
}

// columnBuffer holds one row group's worth of values of a column
type columnBuffer struct {
	kind   kind
	ints   []int64
	dates  []int32
	floats []float64
	bytes  []parquet.ByteArray
}

func (b *columnBuffer) append(v interface{}) {
	switch b.kind {
	case kindInt64:
		b.ints = append(b.ints, *v.(*int64))
	case kindDate:
		b.dates = append(b.dates, int32(*v.(*int64)))
	case kindFloat64:
		b.floats = append(b.floats, *v.(*float64))
	default:
		b.bytes = append(b.bytes, parquet.ByteArray(*v.(*string)))
	}
}

func (b *columnBuffer) reset() {
	b.ints, b.dates, b.floats, b.bytes = b.ints[:0], b.dates[:0], b.floats[:0], b.bytes[:0]
}

func (b *columnBuffer) write(cw file.ColumnChunkWriter) error {
	var err error
	switch w := cw.(type) {
	case *file.Int64ColumnChunkWriter:
		_, err = w.WriteBatch(b.ints, nil, nil)
	case *file.Int32ColumnChunkWriter:
		_, err = w.WriteBatch(b.dates, nil, nil)
	case *file.Float64ColumnChunkWriter:
		_, err = w.WriteBatch(b.floats, nil, nil)
	case *file.ByteArrayColumnChunkWriter:
		_, err = w.WriteBatch(b.bytes, nil, nil)
	default:
		err = errors.Errorf("unexpected column writer %T", cw)
	}
	return err
}

// countingFile tracks how many bytes reached the file
type countingFile struct {
	f *os.File
	n int64
}

func (c *countingFile) Write(p []byte) (int, error) {
	n, err := c.f.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingFile) Close() error {
	return c.f.Close()
}

// rollingWriter writes rows to <pattern><n>.parquet files in dir, starting a new file once the
// current one holds maxBytes. File numbers come from seq.
type rollingWriter struct {
	t            *table
	node         *schema.GroupNode
	props        *parquet.WriterProperties
	dir          string
	pattern      string
	seq          func() int
	maxBytes     int64
	rowGroupRows int

	buffers []*columnBuffer
	rows    int
	cur     *file.Writer
	sink    *countingFile
	files   []string
}

func newRollingWriter(t *table, node *schema.GroupNode, props *parquet.WriterProperties, dir, pattern string, seq func() int, maxBytes int64, rowGroupRows int) *rollingWriter {
	buffers := make([]*columnBuffer, len(t.columns))
	for i, c := range t.columns {
		buffers[i] = &columnBuffer{kind: c.kind}
	}
	return &rollingWriter{
		t:            t,
		node:         node,
		props:        props,
		dir:          dir,
		pattern:      pattern,
		seq:          seq,
		maxBytes:     maxBytes,
		rowGroupRows: rowGroupRows,
		buffers:      buffers,
	}
}

func (w *rollingWriter) append(dest []interface{}) error {
	for i, b := range w.buffers {
		b.append(dest[i])
	}
	w.rows++
	if w.rows >= w.rowGroupRows {
		return w.flush()
	}
	return nil
}

func (w *rollingWriter) open() error {
	name := filepath.Join(w.dir, fmt.Sprintf("%s%d.parquet", w.pattern, w.seq()))
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create parquet file:%v", name)
	}
	w.sink = &countingFile{f: f}
	w.cur = file.NewParquetWriter(w.sink, w.node, file.WithWriterProps(w.props))
	w.files = append(w.files, name)
	return nil
}

// flush writes the buffered rows as one row group
func (w *rollingWriter) flush() error {
	if w.rows == 0 {
		return nil
	}
	if w.cur == nil {
		if err := w.open(); err != nil {
			return err
		}
	}
	rgw := w.cur.AppendRowGroup()
	for _, b := range w.buffers {
		cw, err := rgw.NextColumn()
		if err != nil {
			return errors.Wrapf(err, "next column of %v", w.t.name)
		}
		err = b.write(cw)
		if cerr := cw.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "write column of %v", w.t.name)
		}
		b.reset()
	}
	if err := rgw.Close(); err != nil {
		return errors.Wrapf(err, "close row group of %v", w.t.name)
	}
	w.rows = 0
	if w.sink.n >= w.maxBytes {
		return w.closeFile()
	}
	return nil
}

func (w *rollingWriter) closeFile() error {
	if w.cur == nil {
		return nil
	}
	err := w.cur.Close()
	w.cur, w.sink = nil, nil
	return errors.Wrapf(err, "close parquet file of %v", w.t.name)
}

// close flushes pending rows and closes the open file. With ensureFile a writer that saw no rows
// still leaves one empty file behind.
func (w *rollingWriter) close(ensureFile bool) ([]string, error) {
	if err := w.flush(); err != nil {
		w.closeFile()
		return w.files, err
	}
	if ensureFile && len(w.files) == 0 {
		if err := w.open(); err != nil {
			return w.files, err
		}
	}
	return w.files, w.closeFile()
}
