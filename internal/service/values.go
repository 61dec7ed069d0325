package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Row values arrive with different Go types depending on the executor: the
// HTTP bridge decodes everything JSON gives it (strings and float64), while
// the direct driver returns native integers and byte slices. The helpers
// below normalize both shapes.

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func asInt64(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
		return n
	default:
		return 0
	}
}

// isTrue reports whether a flag column holds a truthy value. The question
// bank stores booleans as tinyints, which the bridge may render as "1".
func isTrue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val == 1
	case int:
		return val == 1
	case float64:
		return val == 1
	case string:
		return strings.TrimSpace(val) == "1"
	case []byte:
		return strings.TrimSpace(string(val)) == "1"
	default:
		return false
	}
}
