package tpchgen

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// path templates; {param} is replaced by the named value, {param,#n} pads an integer to n digits
const (
	LocationPattern = "tpch/sf={sf}"
	FileNamePattern = "{table}_{ordinal}_"
)

//FilePath an abstract file path
type FilePath struct {
	NamePattern string
}

var paramRegexp = regexp.MustCompile(`\{[^\}]+\}`)

//Format generate a real file path by substituting params into the pattern
func (f *FilePath) Format(params map[string]interface{}) (string, error) {
	var err error
	factPath := paramRegexp.ReplaceAllStringFunc(f.NamePattern, func(s string) string {
		s = s[1 : len(s)-1]
		param, format := s, ""
		if idx := strings.Index(s, ","); idx > 0 {
			param, format = s[0:idx], s[idx+1:]
		}
		val, ok := params[param]
		if !ok {
			if err == nil {
				err = errors.Errorf("can not find param:%v", param)
			}
			return ""
		}
		str, ferr := formatParam(val, format)
		if ferr != nil && err == nil {
			err = ferr
		}
		return str
	})
	if err != nil {
		return "", err
	}
	return factPath, nil
}

func formatParam(val interface{}, format string) (string, error) {
	if format == "" {
		if sf, ok := val.(float64); ok {
			return FormatScaleFactor(sf), nil
		}
		return fmt.Sprintf("%v", val), nil
	}
	if strings.HasPrefix(format, "#") {
		digit, err := strconv.Atoi(format[1:])
		if err != nil {
			return "", errors.Errorf("unsupported format:%v", format)
		}
		switch v := val.(type) {
		case int, int32, int64:
			return fmt.Sprintf("%0*d", digit, v), nil
		}
		return "", errors.Errorf("can not parse to integer:%v", val)
	}
	return "", errors.Errorf("unsupported format:%v", format)
}

// FormatScaleFactor renders sf without loss: integral values have no fraction, others use the
// shortest decimal form that parses back to the same float. Distinct values render distinctly.
func FormatScaleFactor(sf float64) string {
	if sf == math.Trunc(sf) && math.Abs(sf) < 1e15 {
		return strconv.FormatFloat(sf, 'f', 0, 64)
	}
	return strconv.FormatFloat(sf, 'f', -1, 64)
}
