package azdo

import (
	"encoding/json"
	"strconv"
)

// Document is a backend-owned JSON object returned as decoded. Numbers are
// json.Number so large identifiers survive the round trip unchanged.
type Document = map[string]any

// listOf returns the first non-empty array found under keys, keeping only
// object elements. Backends differ on "value" vs legacy keys.
func listOf(doc Document, keys ...string) []Document {
	for _, k := range keys {
		raw, ok := doc[k].([]any)
		if !ok || len(raw) == 0 {
			continue
		}
		out := make([]Document, 0, len(raw))
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return []Document{}
}

// field walks nested objects: field(doc, "a", "b") == doc["a"]["b"].
func field(doc Document, path ...string) any {
	var cur any = doc
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

// stringField returns field(doc, path...) when it is a string, else "".
func stringField(doc Document, path ...string) string {
	s, _ := field(doc, path...).(string)
	return s
}

// asInt converts the numeric shapes produced by JSON decoding to int.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
