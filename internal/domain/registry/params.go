package registry

import (
	"fmt"
	"math"
	"sort"
)

// Params holds the user supplied parameters of one model. Values decoded
// from JSON or YAML arrive as float64, int or string.
type Params map[string]any

// Float returns the float parameter key, or def when it is absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("param %q: expected a number, got %T", key, v)
	}
}

// Int returns the integer parameter key, or def when it is absent. Whole
// floats are accepted.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("param %q: expected an integer, got %v", key, x)
		}
		return int(x), nil
	default:
		return 0, fmt.Errorf("param %q: expected an integer, got %T", key, v)
	}
}

// Unknown returns the keys of p that are not in known, sorted.
func (p Params) Unknown(known ...string) []string {
	var out []string
	for k := range p {
		found := false
		for _, want := range known {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
