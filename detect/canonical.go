package detect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// canonicalString renders a JSON-like value in a canonical form: object keys
// sorted, arrays in order, strings quoted. Used as input to the generated-ID
// hash and as the comparison key for uniqueness checks.
func canonicalString(v any) string {
	var sb strings.Builder
	writeCanonical(&sb, v)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		sb.WriteString(strconv.Quote(val))
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case float64:
		sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			writeCanonical(sb, val[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, item)
		}
		sb.WriteByte(']')
	default:
		fmt.Fprintf(sb, "%v", val)
	}
}

// canonicalScalar renders a scalar for embedding in a derived ID such as
// "name-<value>".
func canonicalScalar(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// hash32 is a multiply-by-31 rolling hash with 32-bit overflow wrapping,
// matching the classic string-hash accumulation.
func hash32(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

func encodeBase36(v uint32) string {
	return strconv.FormatUint(uint64(v), 36)
}
