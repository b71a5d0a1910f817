package formula_gpt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli5y/eli5y/internal/config"
)

func TestFromAppConfig_OverridesDefaults(t *testing.T) {
	mc := FromAppConfig(config.LLMConfig{
		APIKey:     "sk-live",
		Model:      "gpt-4o",
		Timeout:    10 * time.Second,
		MaxRetries: 5,
	})

	assert.Equal(t, "sk-live", mc.APIKey)
	assert.Equal(t, "gpt-4o", mc.Model)
	assert.Equal(t, 10*time.Second, mc.Timeout)
	assert.Equal(t, 5, mc.Retry.MaxRetries)
	// Unset fields keep defaults.
	assert.Equal(t, "https://api.openai.com/v1", mc.BaseURL)
	assert.Equal(t, 2048, mc.MaxTokens)
}

func TestModelConfig_Validate(t *testing.T) {
	require.NoError(t, NewModelConfig().Validate())

	bad := NewModelConfig()
	bad.Temperature = 3.0
	assert.Error(t, bad.Validate())

	bad = NewModelConfig()
	bad.BaseURL = ""
	assert.Error(t, bad.Validate())
}
