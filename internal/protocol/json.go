package protocol

import (
	"encoding/json"
	"fmt"
)

// UnserializeVariable decodes the JSON document carried in a variable, item or signal field.
// An empty string is an unset value and decodes to nil without error.
func UnserializeVariable(serialized string) (any, error) {
	if serialized == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(serialized), &v); err != nil {
		return nil, fmt.Errorf("unserialize %q: %w", serialized, err)
	}
	return v, nil
}

// SerializeVariable encodes v as the JSON document carried in a string field.
func SerializeVariable(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
