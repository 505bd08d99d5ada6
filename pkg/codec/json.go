// Package codec implements the JSON payload helpers generated types call
// from their UnmarshalJSON methods. Required properties are checked for
// presence before decoding so a payload missing one fails loudly instead of
// decoding to a zero value.
package codec

import (
	"encoding/json"
	"fmt"
)

// UnmarshalRequired decodes data into v after verifying every key in
// required is present in the payload. Optional properties may be absent;
// required ones may not, and an explicit null does not count as present
// enough to carry a value but is accepted by this check (the field decodes
// to its zero value, matching encoding/json semantics).
func UnmarshalRequired(data []byte, v any, required ...string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	for _, key := range required {
		if _, ok := raw[key]; !ok {
			return fmt.Errorf("decode payload: missing required property %q", key)
		}
	}
	return json.Unmarshal(data, v)
}
