package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// encodeValues serializes a property's values to the JSON array stored in
// properties.value. Each element is the Text form of one value held as
// bytes, so JSON writes it as base64 and strings that are not valid UTF-8
// come back unchanged.
func encodeValues(values []types.Value) (string, error) {
	texts := make([][]byte, len(values))
	for i, v := range values {
		s, err := v.Text()
		if err != nil {
			return "", err
		}
		texts[i] = []byte(s)
	}
	raw, err := json.Marshal(texts)
	if err != nil {
		return "", fmt.Errorf("encoding values: %w", err)
	}
	return string(raw), nil
}

// decodeValues is the inverse of encodeValues for a column of type typ.
func decodeValues(typ types.PropertyType, raw string) ([]types.Value, error) {
	var texts [][]byte
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return nil, fmt.Errorf("decoding values: %w", err)
	}
	out := make([]types.Value, len(texts))
	for i, text := range texts {
		v, err := types.ParseValue(typ, string(text))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// checkValues returns the common type of values. An empty list is typed as
// string.
func checkValues(values []types.Value) (types.PropertyType, error) {
	if len(values) == 0 {
		return types.TypeString, nil
	}
	typ := values[0].Type()
	if typ == types.TypeUndefined {
		return 0, fmt.Errorf("%w: undefined value", types.ErrInvalidValueType)
	}
	for _, v := range values[1:] {
		if v.Type() != typ {
			return 0, fmt.Errorf("%w: mixed value types %s and %s", types.ErrTypeMismatch, typ, v.Type())
		}
	}
	return typ, nil
}
