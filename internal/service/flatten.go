package service

import (
	"encoding/json"
	"strconv"

	"github.com/veriport/bgv-api/internal/naming"
)

// annexureKey is the reserved payload key whose subtree is partitioned into
// per-service annexure buckets instead of the main tracker record.
const annexureKey = "annexure"

// FlattenCaseFields partitions a nested update payload into a flat map of
// main tracker fields and per-table annexure buckets. The object graph is
// walked depth first; outside the reserved "annexure" subtree every scalar
// leaf merges into the main map, inside it scalar leaves merge into a bucket
// named after their immediate parent key. Scalars sitting directly under the
// "annexure" key have no parent bucket and fall back to the main map.
func FlattenCaseFields(fields map[string]interface{}) (map[string]string, map[string]map[string]string) {
	main := make(map[string]string)
	annexures := make(map[string]map[string]string)

	var walk func(node map[string]interface{}, inAnnexure bool, bucket string)
	walk = func(node map[string]interface{}, inAnnexure bool, bucket string) {
		for key, value := range node {
			child, isObject := value.(map[string]interface{})
			switch {
			case !inAnnexure && key == annexureKey && isObject:
				walk(child, true, "")
			case isObject && inAnnexure:
				walk(child, true, key)
			case isObject:
				walk(child, false, "")
			default:
				scalar, ok := coerceScalar(value)
				if !ok {
					continue
				}
				column := naming.Normalize(key)
				if column == "" {
					continue
				}
				if inAnnexure && bucket != "" {
					table := naming.Normalize(bucket)
					if table == "" {
						continue
					}
					if annexures[table] == nil {
						annexures[table] = make(map[string]string)
					}
					annexures[table][column] = scalar
				} else {
					main[column] = scalar
				}
			}
		}
	}
	walk(fields, false, "")

	return main, annexures
}

// coerceScalar renders a JSON leaf as the text stored in a lazily-added
// column. Arrays keep their JSON encoding; explicit nulls are dropped.
func coerceScalar(value interface{}) (string, bool) {
	switch t := value.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	}
}
