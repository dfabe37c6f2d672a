package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/textsection"
)

func TestCommon_WithDefaults(t *testing.T) {
	c := Common{}.WithDefaults("replace")
	assert.Equal(t, "replace", c.Name)
	assert.Equal(t, domain.Include, c.OnMatch)
	assert.Equal(t, textsection.DefaultMaxReadSize, c.MaxReadSize)

	c = Common{Name: "mine", MaxReadSize: 12}.WithDefaults("replace")
	assert.Equal(t, "mine", c.Name)
	assert.Equal(t, 12, c.MaxReadSize)
}

func TestCommon_Validate(t *testing.T) {
	tests := []struct {
		name    string
		common  Common
		wantErr bool
	}{
		{"zero uses default", Common{}, false},
		{"positive", Common{MaxReadSize: 1}, false},
		{"negative", Common{MaxReadSize: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.common.Validate("text")
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "text", cfgErr.Handler)
			assert.Equal(t, "max_read_size", cfgErr.Param)
		})
	}
}
