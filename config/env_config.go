package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	JWT struct {
		SecretKey string
		Expire    int
	}
	CORS struct {
		AllowDomains string
	}
	Redis struct {
		Password string
		Database int
		Host     string
		Port     string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Minio struct {
		Endpoint     string
		RootUser     string
		RootPassword string
		Bucket       string
		UseSSL       bool
	}
	Upload struct {
		MaxFileSize int64 // bytes, default 2 GiB
		URLExpire   int   // seconds a resolved download URL stays valid
	}
	Telemetry struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode string
	}
	HTTPPort string
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = os.Getenv("PG_HOST")
	if config.Postgres.Host == "" {
		config.Postgres.Host = "localhost"
	}
	config.Postgres.Database = os.Getenv("PG_DB")
	if config.Postgres.Database == "" {
		config.Postgres.Database = "cinevault"
	}
	config.Postgres.Username = os.Getenv("PG_USER")
	if config.Postgres.Username == "" {
		config.Postgres.Username = "cinevault"
	}
	config.Postgres.Password = os.Getenv("PG_PASSWORD")
	config.Postgres.Port = os.Getenv("PG_PORT")
	if config.Postgres.Port == "" {
		config.Postgres.Port = "5432"
	}

	// JWT
	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	if val := os.Getenv("JWT_EXPIRE"); val != "" {
		fmt.Sscanf(val, "%d", &config.JWT.Expire)
	} else {
		config.JWT.Expire = 3600 * 24 * 7
	}

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")

	// Redis
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.Host = os.Getenv("REDIS_HOST")
	if config.Redis.Host == "" {
		config.Redis.Host = "localhost"
	}
	config.Redis.Port = os.Getenv("REDIS_PORT")
	if config.Redis.Port == "" {
		config.Redis.Port = "6379"
	}

	// RabbitMQ
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	if config.RabbitMQ.Host == "" {
		config.RabbitMQ.Host = "localhost"
	}
	config.RabbitMQ.Port = os.Getenv("RABBITMQ_PORT")
	if config.RabbitMQ.Port == "" {
		config.RabbitMQ.Port = "5672"
	}
	config.RabbitMQ.Username = os.Getenv("RABBITMQ_USER")
	if config.RabbitMQ.Username == "" {
		config.RabbitMQ.Username = "guest"
	}
	config.RabbitMQ.Password = os.Getenv("RABBITMQ_PASSWORD")
	if config.RabbitMQ.Password == "" {
		config.RabbitMQ.Password = "guest"
	}

	// MinIO
	config.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
	config.Minio.RootUser = os.Getenv("MINIO_ROOT_USER")
	config.Minio.RootPassword = os.Getenv("MINIO_ROOT_PASSWORD")
	config.Minio.Bucket = os.Getenv("MINIO_BUCKET")
	if config.Minio.Bucket == "" {
		config.Minio.Bucket = "cinevault-movies"
	}
	config.Minio.UseSSL, _ = strconv.ParseBool(os.Getenv("MINIO_USE_SSL"))

	// Upload limits
	if sizeStr := os.Getenv("MAX_UPLOAD_SIZE"); sizeStr != "" {
		if size, err := strconv.ParseInt(sizeStr, 10, 64); err == nil {
			config.Upload.MaxFileSize = size
		}
	}
	if config.Upload.MaxFileSize == 0 {
		config.Upload.MaxFileSize = 2 * 1024 * 1024 * 1024 // 2 GiB
	}
	if expireStr := os.Getenv("DOWNLOAD_URL_EXPIRE"); expireStr != "" {
		if expire, err := strconv.Atoi(expireStr); err == nil {
			config.Upload.URLExpire = expire
		}
	}
	if config.Upload.URLExpire == 0 {
		config.Upload.URLExpire = 3600 * 24
	}

	// OpenTelemetry
	otlpEndpoint := os.Getenv("OTLP_ENDPOINT")
	// Remove protocol for the OTLP client to avoid duplicate protocols
	if strings.HasPrefix(otlpEndpoint, "https://") {
		config.Telemetry.OTLPEndpoint = strings.TrimPrefix(otlpEndpoint, "https://")
	} else if strings.HasPrefix(otlpEndpoint, "http://") {
		config.Telemetry.OTLPEndpoint = strings.TrimPrefix(otlpEndpoint, "http://")
	} else {
		config.Telemetry.OTLPEndpoint = otlpEndpoint
	}
	config.Telemetry.ServiceName = os.Getenv("SERVICE_NAME")
	if config.Telemetry.ServiceName == "" {
		config.Telemetry.ServiceName = "cinevault-service"
	}

	config.Environment.Mode = os.Getenv("DEPLOY_ENV")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}

	config.HTTPPort = os.Getenv("HTTP_PORT")
	if config.HTTPPort == "" {
		config.HTTPPort = "8080"
	}

	return &config
}
