package profiles

import (
	"encoding/json"
	"fmt"
	"time"
)

// epochMillis converts a numeric epoch-ms value or a calendar date into
// epoch milliseconds. Calendar dates are truncated to whole seconds.
func epochMillis(date any) (int64, error) {
	switch v := date.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, wrongDate(date)
		}
		return int64(f), nil
	case time.Time:
		return v.Unix() * 1000, nil
	case *time.Time:
		if v == nil {
			return 0, wrongDate(date)
		}
		return v.Unix() * 1000, nil
	default:
		return 0, wrongDate(date)
	}
}

func wrongDate(date any) error {
	return fmt.Errorf("%w: wrong date %q, it should be an epoch-ms number or a time.Time", ErrInvalidArgument, fmt.Sprint(date))
}
