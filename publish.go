package tpchgen

import (
	"context"
	"io"
	"path"
	"path/filepath"

	"github.com/gizmodata/tpch-datagen/file"
)

// Publisher copies a finished output location somewhere else
type Publisher interface {
	Publish(ctx context.Context, location *OutputLocation) error
}

// NewPublisher copies output locations into toDir on the given storage, keeping the tpch/sf=<sf> layout
func NewPublisher(to file.FileStorage, toDir string) Publisher {
	return &filePublisher{
		from:  &file.LocalFileSystem{},
		to:    to,
		toDir: toDir,
	}
}

type filePublisher struct {
	from  *file.LocalFileSystem
	to    file.FileStorage
	toDir string
}

func (p *filePublisher) Publish(ctx context.Context, location *OutputLocation) error {
	files, err := p.from.Files(location.Path)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "list output location:%v", location.Path, err)
	}
	rel, err := filepath.Rel(location.Root, location.Path)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "resolve output location:%v", location.Path, err)
	}
	base := path.Join(filepath.ToSlash(p.toDir), filepath.ToSlash(rel))
	created := map[string]bool{}
	for _, f := range files {
		toFileName := path.Join(base, f)
		dir := path.Dir(toFileName)
		if !created[dir] {
			if err = p.to.MkdirAll(dir); err != nil {
				return NewBatchError(ErrCodeGeneral, "create dir:%v on %v", dir, p.to, err)
			}
			created[dir] = true
		}
		if err = p.copy(ctx, filepath.Join(location.Path, filepath.FromSlash(f)), toFileName); err != nil {
			return err
		}
	}
	logger.Info(ctx, "output published, location:%v, to:%v%v, files:%v", location.Path, p.to, base, len(files))
	return nil
}

func (p *filePublisher) copy(ctx context.Context, fromFileName, toFileName string) error {
	//open from-file
	reader, err := p.from.Open(fromFileName)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "open from file:%v", fromFileName, err)
	}
	//create to-file
	writer, err := p.to.Create(toFileName)
	if err != nil {
		if er := reader.Close(); er != nil {
			logger.Error(ctx, "close file reader failed, file:%v, err:%v", fromFileName, er)
		}
		return NewBatchError(ErrCodeGeneral, "open to file:%v", toFileName, err)
	}

	_, err = io.Copy(writer, reader)

	if er := reader.Close(); er != nil {
		logger.Error(ctx, "close file reader failed, file:%v, err:%v", fromFileName, er)
	}
	if er := writer.Close(); er != nil && err == nil {
		err = er
	}
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "copy file: %v -> %v", fromFileName, toFileName, err)
	}
	return nil
}

// checksumFiles writes a digest sidecar next to every file
func checksumFiles(ctx context.Context, alg string, files []string) error {
	ch := file.GetChecksumer(alg)
	if ch == nil {
		return NewBatchError(ErrCodeConfig, "unsupported checksum:%v", alg)
	}
	lfs := &file.LocalFileSystem{}
	for _, f := range files {
		if err := ch.Checksum(lfs, f); err != nil {
			return NewBatchError(ErrCodeGeneral, "checksum file:%v", f, err)
		}
	}
	logger.Info(ctx, "checksums written, alg:%v, files:%v", alg, len(files))
	return nil
}
