package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ToString renders a scalar payload value as a string.
// Numbers decoded from JSON arrive as float64 and are formatted without a trailing ".0",
// so 1 and "1" render the same way.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
