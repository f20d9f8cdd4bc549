package tpch

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	tpchgen "github.com/gizmodata/tpch-datagen"
	"github.com/gizmodata/tpch-datagen/internal/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, sf float64, ordinal, total int) map[string][][]interface{} {
	rows := map[string][][]interface{}{}
	err := generateSlice(sf, ordinal, total, func(tb *table, row []interface{}) error {
		rows[tb.name] = append(rows[tb.name], row)
		return nil
	})
	require.NoError(t, err)
	return rows
}

func TestGenerateSlice_Deterministic(t *testing.T) {
	a := collect(t, 0.001, 1, 3)
	b := collect(t, 0.001, 1, 3)
	assert.Equal(t, a, b)
}

func TestGenerateSlice_SlicesConcatenate(t *testing.T) {
	whole := collect(t, 0.001, 0, 1)
	c := cardinalities(0.001)
	assert.Len(t, whole["region"], 5)
	assert.Len(t, whole["nation"], 25)
	assert.Len(t, whole["customer"], int(c.customers))
	assert.Len(t, whole["partsupp"], int(c.parts*suppliersPerPart))
	assert.Len(t, whole["orders"], int(c.orders))

	merged := map[string][][]interface{}{}
	for ordinal := 0; ordinal < 4; ordinal++ {
		for name, rows := range collect(t, 0.001, ordinal, 4) {
			merged[name] = append(merged[name], rows...)
		}
	}
	for _, name := range []string{"supplier", "customer", "part", "partsupp", "orders", "lineitem"} {
		assert.Equal(t, whole[name], merged[name], name)
	}
}

func TestOrderRows_Consistent(t *testing.T) {
	c := cardinalities(1)
	for key := int64(1); key <= 200; key++ {
		order, lines := orderRows(key, c)
		require.True(t, len(lines) >= 1 && len(lines) <= maxLinesPerOrder)
		for i, line := range lines {
			assert.Equal(t, order[0], line[0])
			assert.Equal(t, int64(i+1), line[3])
		}
	}
}

func testEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithLogger(logs.NewLogger(&bytes.Buffer{}, logs.Error))}, opts...)...)
}

func openSession(t *testing.T, e *Engine, threads int, sf float64) tpchgen.Session {
	ctx := context.Background()
	s, err := e.Open(ctx, t.TempDir(), threads)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Generate(ctx, tpchgen.GenerateRequest{ScaleFactor: sf, TotalUnits: 1, UnitOrdinal: 0}))
	return s
}

func parquetRows(t *testing.T, files []string) int64 {
	var total int64
	for _, name := range files {
		r, err := file.OpenParquetFile(name, false)
		require.NoError(t, err, name)
		total += r.NumRows()
		require.NoError(t, r.Close())
	}
	return total
}

func TestSession_Export(t *testing.T) {
	s := openSession(t, testEngine(), 1, 0.001)
	dir := t.TempDir()
	for _, tc := range []struct {
		table string
		rows  int64
	}{
		{"region", 5},
		{"nation", 25},
		{"customer", cardinalities(0.001).customers},
	} {
		files, err := s.Export(context.Background(), tpchgen.ExportRequest{
			Table:           tc.table,
			Dir:             dir,
			Compression:     tpchgen.CompressionZstd,
			FileSizeBytes:   100000000,
			FileNamePattern: tc.table + "_0_",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, tc.table+"_0_0.parquet")}, files)
		assert.Equal(t, tc.rows, parquetRows(t, files))
	}
}

func TestSession_ExportRollsOverFiles(t *testing.T) {
	s := openSession(t, testEngine(WithRowGroupRows(10)), 1, 0.001)
	files, err := s.Export(context.Background(), tpchgen.ExportRequest{
		Table:           "customer",
		Dir:             t.TempDir(),
		Compression:     tpchgen.CompressionSnappy,
		FileSizeBytes:   1,
		FileNamePattern: "customer_3_",
	})
	require.NoError(t, err)
	customers := cardinalities(0.001).customers
	assert.Len(t, files, int((customers+9)/10))
	assert.Equal(t, customers, parquetRows(t, files))
}

func TestSession_ExportPerThread(t *testing.T) {
	s := openSession(t, testEngine(), 8, 0.001)
	dir := t.TempDir()
	files, err := s.Export(context.Background(), tpchgen.ExportRequest{
		Table:           "region",
		Dir:             dir,
		Compression:     tpchgen.CompressionNone,
		FileSizeBytes:   100000000,
		PerThreadOutput: true,
		FileNamePattern: "region_0_",
	})
	require.NoError(t, err)
	assert.Contains(t, files, filepath.Join(dir, "region_0_0.parquet"))
	seen := map[string]bool{}
	for _, f := range files {
		assert.False(t, seen[f], f)
		seen[f] = true
	}
	assert.Equal(t, int64(5), parquetRows(t, files))
}

func TestSession_ExportPerThreadRollsOver(t *testing.T) {
	s := openSession(t, testEngine(WithRowGroupRows(16)), 4, 0.001)
	files, err := s.Export(context.Background(), tpchgen.ExportRequest{
		Table:           "customer",
		Dir:             t.TempDir(),
		Compression:     tpchgen.CompressionGzip,
		FileSizeBytes:   1,
		PerThreadOutput: true,
		FileNamePattern: "customer_1_",
	})
	require.NoError(t, err)
	assert.Greater(t, len(files), 4)
	seen := map[string]bool{}
	for _, f := range files {
		assert.False(t, seen[f], f)
		seen[f] = true
	}
	assert.Equal(t, cardinalities(0.001).customers, parquetRows(t, files))
}

func TestSession_GenerateRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	s, err := testEngine().Open(ctx, t.TempDir(), 1)
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Generate(ctx, tpchgen.GenerateRequest{ScaleFactor: 0, TotalUnits: 1}))
	assert.Error(t, s.Generate(ctx, tpchgen.GenerateRequest{ScaleFactor: 0.001, TotalUnits: 2, UnitOrdinal: 2}))
	require.NoError(t, s.Generate(ctx, tpchgen.GenerateRequest{ScaleFactor: 0.001, TotalUnits: 2, UnitOrdinal: 1}))
	assert.Error(t, s.Generate(ctx, tpchgen.GenerateRequest{ScaleFactor: 0.001, TotalUnits: 2, UnitOrdinal: 1}))

	_, err = s.Export(ctx, tpchgen.ExportRequest{Table: "bogus", Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestCompressionCodec(t *testing.T) {
	for name, want := range map[string]compress.Compression{
		"none":   compress.Codecs.Uncompressed,
		"snappy": compress.Codecs.Snappy,
		"GZIP":   compress.Codecs.Gzip,
		"zstd":   compress.Codecs.Zstd,
	} {
		got, err := compressionCodec(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := compressionCodec("lz4")
	assert.Error(t, err)
}
