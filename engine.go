package tpchgen

import (
	"context"
)

// Engine opens generation sessions; a session lives inside one scratch workspace.
type Engine interface {
	Open(ctx context.Context, workspace string, threads int) (Session, error)
}

// Session generates one unit's data and exports it table by table.
// A session is used by a single goroutine.
type Session interface {
	// Generate materializes slice UnitOrdinal of TotalUnits at ScaleFactor; it is deterministic.
	Generate(ctx context.Context, req GenerateRequest) error
	// Export writes req.Table to files named <FileNamePattern><n>.parquet in req.Dir and returns their paths.
	// Files of the same name are overwritten, other files are not touched.
	Export(ctx context.Context, req ExportRequest) ([]string, error)
	Close() error
}

type GenerateRequest struct {
	ScaleFactor float64
	TotalUnits  int
	UnitOrdinal int
}

type ExportRequest struct {
	Table           string
	Dir             string
	Compression     string
	FileSizeBytes   int64
	PerThreadOutput bool
	FileNamePattern string
}
