package infra

import (
	"context"

	"github.com/cinevault/cinevault/config"
	"github.com/cinevault/cinevault/infra/produce"
)

type Infra struct {
	Redis     *RedisClient
	Postgres  *PostgresClient
	Logger    *LoggerClient
	RabbitMQ  *RabbitMQClient
	Minio     *MinioClient
	Thumbnail *ThumbnailClient
	Produce   *produce.Produce
}

var infraInstance *Infra

func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis service")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres service")
	}

	logger := InitLoggerClient(cfg.EnvConfig)
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ service")
	}

	minio := InitMinioClient(cfg.EnvConfig)
	if minio == nil {
		panic("Failed to initialize MinIO service")
	}

	thumbnail := InitThumbnailClient()
	if thumbnail == nil {
		panic("Failed to initialize Thumbnail service")
	}

	produceService := produce.InitProduce(rabbitMQ.Channel)
	if produceService == nil {
		panic("Failed to initialize Produce service")
	}

	infraInstance = &Infra{
		Redis:     redis,
		Postgres:  postgres,
		Logger:    logger,
		RabbitMQ:  rabbitMQ,
		Minio:     minio,
		Thumbnail: thumbnail,
		Produce:   produceService,
	}

	return infraInstance
}

// Shutdown releases the long-lived clients: thumbnail temp files,
// the RabbitMQ connection and the telemetry pipeline. Call on exit.
func (i *Infra) Shutdown(ctx context.Context) {
	if i.Thumbnail != nil {
		_ = i.Thumbnail.Cleanup()
	}
	if i.RabbitMQ != nil {
		i.RabbitMQ.Close()
	}
	if i.Logger != nil {
		_ = i.Logger.Shutdown(ctx)
	}
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
