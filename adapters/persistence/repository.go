package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// NewAcademicRepository opens the store selected by db.driver. The returned
// close function releases its connections.
func NewAcademicRepository(ctx context.Context, cfg config.Config, log logger.Logger) (academic.Repository, func(), error) {
	log.Info("Opening academic store", zap.String("driver", cfg.DB.Driver))

	switch cfg.DB.Driver {
	case DriverPostgres, "":
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresAcademicRepo(pool, log), pool.Close, nil

	case DriverMongo:
		client, err := NewMongoClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("Failed to disconnect MongoDB", err)
			}
		}
		repo, err := NewMongoAcademicRepo(ctx, client.Database(cfg.DB.MongoDatabase), log)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil

	case DriverMemory:
		return NewMemoryAcademicRepo(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported db.driver %q", cfg.DB.Driver)
	}
}
