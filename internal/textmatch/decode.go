package textmatch

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// StringToMatcherHookFunc lets configuration write a bare string where a
// Matcher is expected. The string becomes a basic pattern.
func StringToMatcherHookFunc() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(Matcher{})
	return func(from, to reflect.Type, data any) (any, error) {
		if to != target || from.Kind() != reflect.String {
			return data, nil
		}
		return Matcher{Pattern: data.(string)}, nil
	}
}
