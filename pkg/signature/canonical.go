package signature

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Canonicalize 对参数按key正序排列，格式化为 key=value& 字符串后再整体做一次URL编码。
//
// The second encoding pass is part of the wire format and must be kept for
// compatibility with existing counterparts.
func Canonicalize(payload Payload) string {
	return urlEncode(BuildQuery(payload))
}

// BuildQuery renders payload as a form-encoded query string with keys in
// ascending byte order. Nested maps and slices use bracket notation
// (a[b]=1, a[0]=x); nil values are skipped.
func BuildQuery(payload Payload) string {
	pairs := make([]string, 0, len(payload))
	for _, k := range sortedKeys(payload) {
		pairs = appendPairs(pairs, urlEncode(k), payload[k])
	}
	return strings.Join(pairs, "&")
}

func appendPairs(pairs []string, key string, value any) []string {
	switch v := value.(type) {
	case nil:
		return pairs
	case Payload:
		return appendMap(pairs, key, v)
	case map[string]any:
		return appendMap(pairs, key, v)
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return appendMap(pairs, key, m)
	case []any:
		for i, item := range v {
			pairs = appendPairs(pairs, nestedKey(key, strconv.Itoa(i)), item)
		}
		return pairs
	case []string:
		for i, item := range v {
			pairs = appendPairs(pairs, nestedKey(key, strconv.Itoa(i)), item)
		}
		return pairs
	default:
		return append(pairs, key+"="+urlEncode(scalarString(v)))
	}
}

func appendMap(pairs []string, key string, m map[string]any) []string {
	for _, k := range sortedKeys(m) {
		pairs = appendPairs(pairs, nestedKey(key, k), m[k])
	}
	return pairs
}

func nestedKey(parent, child string) string {
	return parent + "%5B" + urlEncode(child) + "%5D"
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		if s {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(s)
	case int8:
		return strconv.FormatInt(int64(s), 10)
	case int16:
		return strconv.FormatInt(int64(s), 10)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint:
		return strconv.FormatUint(uint64(s), 10)
	case uint8:
		return strconv.FormatUint(uint64(s), 10)
	case uint16:
		return strconv.FormatUint(uint64(s), 10)
	case uint32:
		return strconv.FormatUint(uint64(s), 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// urlEncode matches PHP urlencode: space becomes '+', everything outside
// [A-Za-z0-9_.-] is percent-encoded. url.QueryEscape leaves '~' alone.
func urlEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}
