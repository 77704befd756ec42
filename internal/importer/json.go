package importer

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// wrapperKeys are the plural properties accepted as the record array of a
// wrapped JSON object, e.g. {"containers": [...]}.
var wrapperKeys = []string{"containers", "items", "records", "apps", "agents", "workflows"}

// ParseJSON parses a JSON payload into source records. The payload may be
// a single object, an array of objects, or an object whose plural
// property (e.g. "containers") holds the array.
func ParseJSON(payload []byte, origin SourceOrigin) ([]ImportSourceRecord, error) {
	var raw interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, &MalformedInputError{Format: "json", Reason: err.Error()}
	}

	switch v := raw.(type) {
	case []interface{}:
		return objectsToRecords(v, origin), nil
	case map[string]interface{}:
		for _, key := range wrapperKeys {
			if arr, ok := v[key].([]interface{}); ok {
				return objectsToRecords(arr, origin), nil
			}
		}
		// A bare object is a single record.
		return objectsToRecords([]interface{}{v}, origin), nil
	default:
		return nil, &MalformedInputError{Format: "json", Reason: fmt.Sprintf("expected object or array, got %T", raw)}
	}
}

// ParseJSONL parses newline-delimited JSON. A line that fails to parse is
// dropped and logged; it is not fatal to the whole import.
func ParseJSONL(payload []byte, origin SourceOrigin) ([]ImportSourceRecord, error) {
	lines := strings.Split(string(payload), "\n")
	records := make([]ImportSourceRecord, 0, len(lines))
	parsedAny := false

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			log.Printf("import: dropping unparseable JSONL line %d: %v", i+1, err)
			continue
		}
		parsedAny = true
		records = append(records, ImportSourceRecord{
			Fields: flattenObject(obj),
			Origin: origin,
			Index:  i + 1,
		})
	}

	if !parsedAny {
		return nil, &MalformedInputError{Format: "jsonl", Reason: "no parseable lines"}
	}
	return records, nil
}

func objectsToRecords(arr []interface{}, origin SourceOrigin) []ImportSourceRecord {
	records := make([]ImportSourceRecord, 0, len(arr))
	for i, el := range arr {
		obj, ok := el.(map[string]interface{})
		if !ok {
			log.Printf("import: dropping non-object JSON element %d (%T)", i+1, el)
			continue
		}
		records = append(records, ImportSourceRecord{
			Fields: flattenObject(obj),
			Origin: origin,
			Index:  i + 1,
		})
	}
	return records
}

// flattenObject lowers keys and stringifies scalar values. String arrays
// (tags) are joined with commas; nested objects are ignored.
func flattenObject(obj map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		key := strings.ToLower(strings.TrimSpace(k))
		switch val := v.(type) {
		case string:
			fields[key] = val
		case float64:
			fields[key] = strings.TrimSuffix(fmt.Sprintf("%f", val), ".000000")
		case bool:
			fields[key] = fmt.Sprintf("%t", val)
		case []interface{}:
			var parts []string
			for _, el := range val {
				if s, ok := el.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				fields[key] = strings.Join(parts, ",")
			}
		}
	}
	return fields
}
