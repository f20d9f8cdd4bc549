package tpchgen

import (
	"strconv"
	"testing"

	"github.com/bmizerany/assert"
)

func TestFormatScaleFactor(t *testing.T) {
	cases := map[float64]string{
		1:      "1",
		1.5:    "1.5",
		0.01:   "0.01",
		10:     "10",
		100000: "100000",
		0.1:    "0.1",
	}
	for sf, expected := range cases {
		assert.Equal(t, expected, FormatScaleFactor(sf))
	}
}

func TestFormatScaleFactorInjective(t *testing.T) {
	seen := map[string]float64{}
	for _, sf := range []float64{0.01, 0.1, 0.5, 1, 1.5, 1.05, 2, 10, 10.5, 100, 1000, 0.001} {
		s := FormatScaleFactor(sf)
		other, dup := seen[s]
		assert.T(t, !dup, "scale factors", sf, "and", other, "render the same:", s)
		seen[s] = sf
		back, err := strconv.ParseFloat(s, 64)
		assert.Equal(t, nil, err)
		assert.Equal(t, sf, back)
	}
}

func TestFilePath_Format(t *testing.T) {
	fp := &FilePath{NamePattern: LocationPattern}
	p, err := fp.Format(map[string]interface{}{"sf": 1.5})
	assert.Equal(t, nil, err)
	assert.Equal(t, "tpch/sf=1.5", p)

	fp = &FilePath{NamePattern: FileNamePattern}
	p, err = fp.Format(map[string]interface{}{"table": "lineitem", "ordinal": 3})
	assert.Equal(t, nil, err)
	assert.Equal(t, "lineitem_3_", p)

	fp = &FilePath{NamePattern: "{table}_{ordinal,#4}"}
	p, err = fp.Format(map[string]interface{}{"table": "orders", "ordinal": 7})
	assert.Equal(t, nil, err)
	assert.Equal(t, "orders_0007", p)

	_, err = fp.Format(map[string]interface{}{"table": "orders"})
	assert.NotEqual(t, nil, err)

	fp = &FilePath{NamePattern: "{table,yyyy}"}
	_, err = fp.Format(map[string]interface{}{"table": "orders"})
	assert.NotEqual(t, nil, err)
}
