package script

import (
	"fmt"
	"sort"
)

// Output is the result of a transforming script.
type Output struct {
	// Content replaces the section text when set.
	Content *string

	// Metadata holds values to add to the document.
	Metadata map[string][]string
}

// Bool interprets a script result as a filter decision.
func Bool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("script must return a boolean, got %T", v)
	}
	return b, nil
}

// ParseOutput interprets a transforming script result. A string replaces
// the content. A map may hold "content" (string) and "metadata" (map of
// string or string list).
func ParseOutput(v any) (Output, error) {
	switch val := v.(type) {
	case string:
		return Output{Content: &val}, nil
	case map[string]any:
		var out Output
		if c, ok := val["content"]; ok {
			s, ok := c.(string)
			if !ok {
				return Output{}, fmt.Errorf("script content must be a string, got %T", c)
			}
			out.Content = &s
		}
		if m, ok := val["metadata"]; ok {
			meta, err := metadataValues(m)
			if err != nil {
				return Output{}, err
			}
			out.Metadata = meta
		}
		return out, nil
	}
	return Output{}, fmt.Errorf("script must return a string or a map, got %T", v)
}

// Keys returns the metadata keys of the output, sorted.
func (o Output) Keys() []string {
	keys := make([]string, 0, len(o.Metadata))
	for k := range o.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func metadataValues(v any) (map[string][]string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("script metadata must be a map, got %T", v)
	}

	out := make(map[string][]string, len(m))
	for key, raw := range m {
		switch val := raw.(type) {
		case string:
			out[key] = []string{val}
		case []any:
			for _, item := range val {
				out[key] = append(out[key], fmt.Sprint(item))
			}
		default:
			out[key] = []string{fmt.Sprint(val)}
		}
	}
	return out, nil
}
