package file

import (
	"io"
)

const (
	MD5    = "MD5"
	SHA1   = "SHA1"
	SHA256 = "SHA256"
	SHA512 = "SHA512"
)

// FileStorage is where generated files are read from or written to
type FileStorage interface {
	Exists(fileName string) (ok bool, err error)
	Open(fileName string) (reader io.ReadCloser, err error)
	Create(fileName string) (writer io.WriteCloser, err error)
	MkdirAll(dir string) error
}

// Checksumer writes and verifies a sidecar file holding the digest of a data file
type Checksumer interface {
	Verify(fs FileStorage, fileName string) (bool, error)
	Checksum(fs FileStorage, fileName string) error
}
