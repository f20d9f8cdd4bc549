package tpchgen

import (
	"context"
	"path/filepath"

	"github.com/gizmodata/tpch-datagen/file"
)

// OutputLocation is the directory holding every table of one scale factor.
type OutputLocation struct {
	Root        string
	Path        string
	ScaleFactor float64
}

// TableDir is the directory a table's files are exported to
func (l *OutputLocation) TableDir(table string) string {
	return filepath.Join(l.Path, table)
}

func (l *OutputLocation) String() string {
	return l.Path
}

// LocationPath is the directory of scale factor sf under root
func LocationPath(root string, sf float64) (string, error) {
	fp := &FilePath{NamePattern: LocationPattern}
	rel, err := fp.Format(map[string]interface{}{"sf": sf})
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(rel)), nil
}

// Prepare resolves the output location for sf. An existing location is removed when overwrite is set;
// otherwise Prepare fails with ErrCodeLocationExists and leaves the location untouched.
// On success the location exists and is empty.
func Prepare(ctx context.Context, root string, sf float64, overwrite bool) (*OutputLocation, error) {
	path, err := LocationPath(root, sf)
	if err != nil {
		return nil, NewBatchError(ErrCodeGeneral, "resolve output location", err)
	}
	lfs := &file.LocalFileSystem{}
	exists, err := lfs.Exists(path)
	if err != nil {
		return nil, NewBatchError(ErrCodeGeneral, "check output location:%v", path, err)
	}
	if exists {
		if !overwrite {
			return nil, NewBatchError(ErrCodeLocationExists, "output location %v already exists, use --overwrite to replace it", path)
		}
		logger.Warn(ctx, "output location exists and overwrite is set, removing it, path:%v", path)
		if err = lfs.RemoveAll(path); err != nil {
			return nil, NewBatchError(ErrCodeGeneral, "remove output location:%v", path, err)
		}
	}
	if err = lfs.MkdirAll(path); err != nil {
		return nil, NewBatchError(ErrCodeGeneral, "create output location:%v", path, err)
	}
	return &OutputLocation{Root: root, Path: path, ScaleFactor: sf}, nil
}
