package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// extractJSON strips markdown code fences some models wrap around JSON output.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// decodeObject parses raw as a JSON object. Payloads that fail to parse are
// passed through jsonrepair once; the second return reports whether that happened.
func decodeObject(raw string) (map[string]json.RawMessage, bool, error) {
	text := extractJSON(raw)
	if text == "" {
		return nil, false, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	var obj map[string]json.RawMessage
	err := json.Unmarshal([]byte(text), &obj)
	if err == nil && obj != nil {
		return obj, false, nil
	}

	fixed, repairErr := jsonrepair.JSONRepair(text)
	if repairErr != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	obj = nil
	if err := json.Unmarshal([]byte(fixed), &obj); err != nil || obj == nil {
		return nil, false, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}
	slog.Debug("repaired LLM JSON", "raw_len", len(text), "fixed_len", len(fixed))
	return obj, true, nil
}

// requireField decodes obj[name] into dst and fails if the key is absent or mistyped.
func requireField(obj map[string]json.RawMessage, name string, dst any) error {
	raw, ok := obj[name]
	if !ok {
		return fmt.Errorf("%w: missing %q", ErrMalformedResponse, name)
	}
	if string(raw) == "null" {
		return fmt.Errorf("%w: %q is null", ErrMalformedResponse, name)
	}
	return decodeField(raw, name, dst)
}

// nullableField is like requireField but accepts an explicit null.
func nullableField(obj map[string]json.RawMessage, name string, dst any) error {
	raw, ok := obj[name]
	if !ok {
		return fmt.Errorf("%w: missing %q", ErrMalformedResponse, name)
	}
	if string(raw) == "null" {
		return nil
	}
	return decodeField(raw, name, dst)
}

// optionalField decodes obj[name] into dst when present. Absent keys and null
// leave dst untouched.
func optionalField(obj map[string]json.RawMessage, name string, dst any) error {
	raw, ok := obj[name]
	if !ok || string(raw) == "null" {
		return nil
	}
	return decodeField(raw, name, dst)
}

func decodeField(raw json.RawMessage, name string, dst any) error {
	if score, ok := dst.(*int); ok {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrMalformedResponse, name)
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("%w: %q is not an integer", ErrMalformedResponse, name)
		}
		*score = int(f)
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrMalformedResponse, name, err)
	}
	return nil
}
