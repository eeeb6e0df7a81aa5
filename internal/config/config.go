package config

import (
	"context"
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env  string `envconfig:"APP_ENV" default:"dev"`
	Port int    `envconfig:"PORT" default:"5000"`

	// empty DBURL runs against the in-memory store
	DBURL      string `envconfig:"DATABASE_URL"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"5"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"1h"`

	BcryptCost int `envconfig:"BCRYPT_COST" default:"10"`

	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"disk"`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey    string `envconfig:"S3_SECRET_KEY"`
	S3Bucket       string `envconfig:"S3_BUCKET"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	AuthRateLimit  int           `envconfig:"AUTH_RATE_LIMIT" default:"20"`
	AuthRateWindow time.Duration `envconfig:"AUTH_RATE_WINDOW" default:"1m"`

	OTLPEndpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPSampleRatio float64 `envconfig:"OTEL_TRACES_SAMPLER_ARG" default:"1"`

	SeedEmail    string `envconfig:"SEED_USER_EMAIL"`
	SeedPassword string `envconfig:"SEED_USER_PASSWORD"`
	SeedUsername string `envconfig:"SEED_USER_NAME" default:"admin"`
}

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")
	ErrStorageDriver    = errors.New("STORAGE_DRIVER must be disk or minio")
)

// Load reads the environment. The signing secret has no default.
func Load() (Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	switch c.StorageDriver {
	case "disk", "minio":
	default:
		return ErrStorageDriver
	}

	return nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
