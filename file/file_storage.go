package file

import (
	"io"
	"io/fs"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

type LocalFileSystem struct {
}

func (lfs *LocalFileSystem) Exists(fileName string) (bool, error) {
	_, err := os.Stat(fileName)
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (lfs *LocalFileSystem) Open(fileName string) (io.ReadCloser, error) {
	return os.Open(fileName)
}

func (lfs *LocalFileSystem) Create(fileName string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return nil, err
	}
	return os.Create(fileName)
}

func (lfs *LocalFileSystem) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// RemoveAll deletes dir and everything below it
func (lfs *LocalFileSystem) RemoveAll(dir string) error {
	return os.RemoveAll(dir)
}

// Files lists the regular files below root, sorted, as paths relative to root
func (lfs *LocalFileSystem) Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (lfs *LocalFileSystem) String() string {
	return "file://"
}

type FTPFileSystem struct {
	Addr        string
	User        string
	Password    string
	ConnTimeout time.Duration
}

func (ffs *FTPFileSystem) connect() (*ftp.ServerConn, error) {
	c, err := ftp.Dial(ffs.Addr, ftp.DialWithTimeout(ffs.ConnTimeout))
	if err != nil {
		return nil, err
	}
	if err = c.Login(ffs.User, ffs.Password); err != nil {
		c.Quit()
		return nil, err
	}
	return c, nil
}

func (ffs *FTPFileSystem) Exists(fileName string) (bool, error) {
	c, err := ffs.connect()
	if err != nil {
		return false, err
	}
	defer c.Quit()

	_, err = c.FileSize(fileName)
	if err == nil {
		return true, nil
	}
	if isUnavailable(err) {
		return false, nil
	}
	return false, err
}

func (ffs *FTPFileSystem) Open(fileName string) (io.ReadCloser, error) {
	c, err := ffs.connect()
	if err != nil {
		return nil, err
	}
	r, err := c.Retr(fileName)
	if err != nil {
		c.Quit()
		return nil, err
	}
	return &ftpReader{Response: r, conn: c}, nil
}

// Create starts an upload; the returned writer must be closed for the upload to complete.
func (ffs *FTPFileSystem) Create(fileName string) (io.WriteCloser, error) {
	c, err := ffs.connect()
	if err != nil {
		return nil, err
	}
	r, w := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := c.Stor(fileName, r)
		r.CloseWithError(err)
		done <- err
	}()
	return &ftpWriter{PipeWriter: w, conn: c, done: done}, nil
}

// MkdirAll creates every missing directory of dir, existing ones are skipped
func (ffs *FTPFileSystem) MkdirAll(dir string) error {
	c, err := ffs.connect()
	if err != nil {
		return err
	}
	defer c.Quit()

	dir = path.Clean(filepath.ToSlash(dir))
	prefix := ""
	if strings.HasPrefix(dir, "/") {
		prefix = "/"
	}
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" || part == "." {
			continue
		}
		prefix = path.Join(prefix, part)
		if err = c.MakeDir(prefix); err != nil && !isUnavailable(err) {
			return errors.Wrapf(err, "make ftp dir:%v", prefix)
		}
	}
	return nil
}

func (ffs *FTPFileSystem) String() string {
	return "ftp://" + ffs.Addr
}

func isUnavailable(err error) bool {
	var e *textproto.Error
	return errors.As(err, &e) && e.Code == ftp.StatusFileUnavailable
}

type ftpReader struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpReader) Close() error {
	err := r.Response.Close()
	if qerr := r.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}

type ftpWriter struct {
	*io.PipeWriter
	conn *ftp.ServerConn
	done chan error
}

func (w *ftpWriter) Close() error {
	w.PipeWriter.Close()
	err := <-w.done
	if qerr := w.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}
