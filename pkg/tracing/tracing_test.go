package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/pkg/logger"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(config.Config{}, logger.NewNop(), "academic-api")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_EnabledRequiresEndpoint(t *testing.T) {
	var cfg config.Config
	cfg.Jaeger.Enabled = true
	_, err := Setup(cfg, logger.NewNop(), "academic-api")
	assert.ErrorContains(t, err, "otlp_endpoint")
}
