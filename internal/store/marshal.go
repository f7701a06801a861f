package store

import (
	"fmt"

	"github.com/roach88/jokebox/internal/ir"
)

// marshalInitial converts a starting sequence to canonical JSON TEXT.
func marshalInitial(initial ir.IRArray) (string, error) {
	if initial == nil {
		initial = ir.IRArray{}
	}
	data, err := ir.MarshalCanonical(initial)
	if err != nil {
		return "", fmt.Errorf("marshal initial: %w", err)
	}
	return string(data), nil
}

// unmarshalInitial parses canonical JSON TEXT back to an IRArray.
// Integers go through json.Number, so scores keep full int64 precision.
func unmarshalInitial(data string) (ir.IRArray, error) {
	if data == "" || data == "[]" {
		return ir.IRArray{}, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal initial: %w", err)
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("unmarshal initial: expected array, got %T", v)
	}
	return arr, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
