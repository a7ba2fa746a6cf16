package tools

import "fmt"

// floatValue reads a numeric argument, reporting whether it was present.
// JSON numbers decode as float64; integers are accepted too.
func floatValue(args map[string]any, key string) (float64, bool) {
	raw, ok := args[key]
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// floatSlice reads a numeric array argument, reporting whether it was
// present and well-formed.
func floatSlice(args map[string]any, key string) ([]float64, bool) {
	raw, ok := args[key]
	if !ok {
		return nil, false
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	values := make([]float64, 0, len(list))

	for _, entry := range list {
		switch v := entry.(type) {
		case float64:
			values = append(values, v)
		case int:
			values = append(values, float64(v))
		default:
			return nil, false
		}
	}

	return values, true
}

// stringSlice reads a string array argument.
func stringSlice(args map[string]any, key string) ([]string, bool) {
	raw, ok := args[key]
	if !ok {
		return nil, false
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	values := make([]string, 0, len(list))

	for _, entry := range list {
		s, ok := entry.(string)
		if !ok {
			return nil, false
		}

		values = append(values, s)
	}

	return values, true
}

// validateColor checks an RGB or RGBA component list with each channel in
// the 0.0-1.0 range.
func validateColor(color []float64) error {
	if len(color) != 3 && len(color) != 4 {
		return fmt.Errorf("color must have 3 (RGB) or 4 (RGBA) components, but got %d", len(color))
	}

	for idx, value := range color {
		if value < 0.0 || value > 1.0 {
			return fmt.Errorf("color %c value must be in the range 0.0-1.0, but got %v", "RGBA"[idx], value)
		}
	}

	return nil
}
