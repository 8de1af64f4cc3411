package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/pkg/logger"
)

func TestNewAcademicRepository_Memory(t *testing.T) {
	var cfg config.Config
	cfg.DB.Driver = DriverMemory

	repo, closeFn, err := NewAcademicRepository(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, repo)
}

func TestNewAcademicRepository_UnknownDriver(t *testing.T) {
	var cfg config.Config
	cfg.DB.Driver = "sqlite"

	_, _, err := NewAcademicRepository(context.Background(), cfg, logger.NewNop())
	assert.ErrorContains(t, err, `unsupported db.driver "sqlite"`)
}
