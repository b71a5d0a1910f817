package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, DefaultParseCacheTTL, cfg.Cache.ParseTTL)
	assert.Equal(t, DefaultLLMModel, cfg.LLM.Model)
	assert.Equal(t, DefaultOCRMinConfidence, cfg.OCR.MinConfidence)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9090
	cfg.LLM.Timeout = 5 * time.Second
	cfg.OCR.MinConfidence = 0.9
	ApplyDefaults(cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 0.9, cfg.OCR.MinConfidence)
}

func TestApplyDefaults_NilConfigIsANoOp(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
