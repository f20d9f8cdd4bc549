package file

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"strings"
)

//MD5Checksumer generate and verify a check file containing the md5 digest of the data file
type MD5Checksumer struct {
}

func (ch *MD5Checksumer) Verify(fs FileStorage, fileName string) (bool, error) {
	return verify(fs, fileName, MD5, md5.New())
}
func (ch *MD5Checksumer) Checksum(fs FileStorage, fileName string) error {
	return checksum(fs, fileName, MD5, md5.New())
}

//SHA1Checksumer generate and verify a check file containing the sha-1 digest of the data file
type SHA1Checksumer struct {
}

func (ch *SHA1Checksumer) Verify(fs FileStorage, fileName string) (bool, error) {
	return verify(fs, fileName, SHA1, sha1.New())
}
func (ch *SHA1Checksumer) Checksum(fs FileStorage, fileName string) error {
	return checksum(fs, fileName, SHA1, sha1.New())
}

//SHA256Checksumer generate and verify a check file containing the sha-256 digest of the data file
type SHA256Checksumer struct {
}

func (ch *SHA256Checksumer) Verify(fs FileStorage, fileName string) (bool, error) {
	return verify(fs, fileName, SHA256, sha256.New())
}
func (ch *SHA256Checksumer) Checksum(fs FileStorage, fileName string) error {
	return checksum(fs, fileName, SHA256, sha256.New())
}

//SHA512Checksumer generate and verify a check file containing the sha-512 digest of the data file
type SHA512Checksumer struct {
}

func (ch *SHA512Checksumer) Verify(fs FileStorage, fileName string) (bool, error) {
	return verify(fs, fileName, SHA512, sha512.New())
}
func (ch *SHA512Checksumer) Checksum(fs FileStorage, fileName string) error {
	return checksum(fs, fileName, SHA512, sha512.New())
}

// CheckFileName is the sidecar written next to fileName for alg
func CheckFileName(fileName, alg string) string {
	return fmt.Sprintf("%s.%s", fileName, strings.ToLower(alg))
}

func verify(fs FileStorage, fileName string, alg string, digest hash.Hash) (bool, error) {
	ok, err := fs.Exists(fileName)
	if err != nil || !ok {
		return false, err
	}
	checkFile := CheckFileName(fileName, alg)
	ok, err = fs.Exists(checkFile)
	if err != nil || !ok {
		return false, err
	}
	//read checksum from check file
	checkReader, err := fs.Open(checkFile)
	if err != nil {
		return false, err
	}
	defer checkReader.Close()
	buf, err := io.ReadAll(checkReader)
	if err != nil {
		return false, err
	}
	hashVal := strings.TrimSpace(string(buf))

	fileHash, err := digestOf(fs, fileName, digest)
	if err != nil {
		return false, err
	}
	return hashVal == fileHash, nil
}

func checksum(fs FileStorage, fileName string, alg string, digest hash.Hash) error {
	fileHash, err := digestOf(fs, fileName, digest)
	if err != nil {
		return err
	}
	// writer checksum to check file
	w, err := fs.Create(CheckFileName(fileName, alg))
	if err != nil {
		return err
	}
	if _, err = w.Write([]byte(fileHash)); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func digestOf(fs FileStorage, fileName string, digest hash.Hash) (string, error) {
	reader, err := fs.Open(fileName)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	if _, err = io.Copy(digest, reader); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", digest.Sum(nil)), nil
}
