package filter

import (
	"errors"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/textmatch"
)

var errPatternRequired = errors.New("pattern is required")

// compile compiles m, attributing errors to the handler parameter.
func compile(handler, param string, m textmatch.Matcher) (*textmatch.Compiled, error) {
	c, err := m.Compile()
	if err != nil {
		var ce *domain.ConfigurationError
		if errors.As(err, &ce) {
			return nil, &domain.ConfigurationError{Handler: handler, Param: param + "." + ce.Param, Err: ce.Err}
		}
		return nil, &domain.ConfigurationError{Handler: handler, Param: param, Err: err}
	}
	return c, nil
}
