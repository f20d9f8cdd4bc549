package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// JsonString renders v as compact json
func JsonString(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Fingerprint is the hex md5 of v's json form. Equal values share a fingerprint, so it identifies
// repeated runs of the same scale parameters.
func Fingerprint(v interface{}) (string, error) {
	js, err := JsonString(v)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(js))
	return hex.EncodeToString(sum[:]), nil
}
