package rpc

import (
	"encoding/json"
	"math"
	"strconv"
)

// Params holds the positional arguments of a call
type Params []any

// Len returns the number of arguments
func (p Params) Len() int {
	return len(p)
}

// Expect fails unless the call carries between min and max arguments
func (p Params) Expect(min, max int) error {
	if len(p) < min || len(p) > max {
		if min == max {
			return InvalidParams("expected %d argument(s), got %d", min, len(p))
		}
		return InvalidParams("expected %d to %d arguments, got %d", min, max, len(p))
	}
	return nil
}

// String returns argument i as a string
func (p Params) String(i int) (string, error) {
	if i >= len(p) {
		return "", InvalidParams("missing argument %d", i)
	}
	s, ok := p[i].(string)
	if !ok {
		return "", InvalidParams("argument %d must be a string", i)
	}
	return s, nil
}

// OptionalString returns argument i, or def when absent or null
func (p Params) OptionalString(i int, def string) (string, error) {
	if i >= len(p) || p[i] == nil {
		return def, nil
	}
	return p.String(i)
}

// Int64 returns argument i as an integer
func (p Params) Int64(i int) (int64, error) {
	if i >= len(p) {
		return 0, InvalidParams("missing argument %d", i)
	}

	switch v := p[i].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, InvalidParams("argument %d must be an integer", i)
		}
		return n, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, InvalidParams("argument %d must be an integer", i)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		// some clients send large numbers as strings
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, InvalidParams("argument %d must be an integer", i)
		}
		return n, nil
	default:
		return 0, InvalidParams("argument %d must be an integer", i)
	}
}

// OptionalInt64 returns argument i, or def when absent or null
func (p Params) OptionalInt64(i int, def int64) (int64, error) {
	if i >= len(p) || p[i] == nil {
		return def, nil
	}
	return p.Int64(i)
}

// Bool returns argument i as a boolean
func (p Params) Bool(i int) (bool, error) {
	if i >= len(p) {
		return false, InvalidParams("missing argument %d", i)
	}
	b, ok := p[i].(bool)
	if !ok {
		return false, InvalidParams("argument %d must be a boolean", i)
	}
	return b, nil
}

// OptionalBool returns argument i, or def when absent or null
func (p Params) OptionalBool(i int, def bool) (bool, error) {
	if i >= len(p) || p[i] == nil {
		return def, nil
	}
	return p.Bool(i)
}
