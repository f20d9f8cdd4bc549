package util

import (
	"testing"

	"github.com/bmizerany/assert"
)

type scale struct {
	ScaleFactor float64
	Chunks      int
}

func TestJsonString(t *testing.T) {
	js, err := JsonString(scale{ScaleFactor: 1, Chunks: 4})
	assert.Equal(t, nil, err)
	assert.Equal(t, `{"ScaleFactor":1,"Chunks":4}`, js)
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint(scale{ScaleFactor: 1, Chunks: 4})
	assert.Equal(t, nil, err)
	b, _ := Fingerprint(scale{ScaleFactor: 1, Chunks: 4})
	c, _ := Fingerprint(scale{ScaleFactor: 1, Chunks: 5})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 32, len(a))

	_, err = Fingerprint(func() {})
	assert.NotEqual(t, nil, err)
}
