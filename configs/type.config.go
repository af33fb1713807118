package config

import (
	"context"
	"mobile-banking-core/internal/common/enum"
	"mobile-banking-core/internal/pkg/backend"
	database "mobile-banking-core/internal/pkg/db"
	"mobile-banking-core/internal/pkg/rabbitmq"
	"mobile-banking-core/internal/pkg/redis"
	s3aws "mobile-banking-core/internal/pkg/storage/s3"
	"sync"
	"time"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	AppEnv       enum.EnvEnum `env:"APP_ENV" envDefault:"development"`
	AppPort      int          `env:"APP_PORT" envDefault:"8080"`
	AppJWTSecret string       `env:"APP_JWT_SECRET" envDefault:""`

	BackendBaseURL    string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:9000/api"`
	BackendTimeoutSec int    `env:"BACKEND_TIMEOUT_SEC" envDefault:"30"`
	BackendProxyURL   string `env:"BACKEND_PROXY_URL" envDefault:""`
	BackendToken      string `env:"BACKEND_TOKEN" envDefault:""`

	KycPollInterval     time.Duration `env:"KYC_POLL_INTERVAL" envDefault:"3s"`
	PaymentPollInitial  time.Duration `env:"PAYMENT_POLL_INITIAL" envDefault:"1s"`
	PaymentPollMax      time.Duration `env:"PAYMENT_POLL_MAX" envDefault:"10s"`
	PaymentPollTotal    time.Duration `env:"PAYMENT_POLL_TOTAL" envDefault:"120s"`
	DefaultCurrency     string        `env:"DEFAULT_CURRENCY" envDefault:"LKR"`
	IdempotencyKeyTTL   time.Duration `env:"IDEMPOTENCY_KEY_TTL" envDefault:"24h"`
	UploadWorkerPoolCap int           `env:"UPLOAD_WORKER_POOL_CAP" envDefault:"16"`

	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisUser     string `env:"REDIS_USER" envDefault:"default"`
	RedisPass     string `env:"REDIS_PASS" envDefault:""`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RabbitEnabled bool   `env:"RABBIT_ENABLED" envDefault:"true"`
	RabbitHost    string `env:"RABBIT_HOST" envDefault:"localhost"`
	RabbitPort    int    `env:"RABBIT_PORT" envDefault:"5672"`
	RabbitUser    string `env:"RABBIT_USER" envDefault:"guest"`
	RabbitPass    string `env:"RABBIT_PASS" envDefault:"guest"`
	DBEnabled     bool   `env:"DB_ENABLED" envDefault:"true"`
	DBHost        string `env:"DB_HOST" envDefault:"localhost"`
	DBPort        int    `env:"DB_PORT" envDefault:"5432"`
	DBUser        string `env:"DB_USER" envDefault:"postgres"`
	DBPass        string `env:"DB_PASS" envDefault:""`
	DBName        string `env:"DB_NAME" envDefault:"postgres"`
	DBDriver      string `env:"DB_DRIVER" envDefault:"postgres"`
	DBSSLMode     string `env:"DB_SSL_MODE" envDefault:"disable"`

	// History reads go through the gorm query cache
	DBCache    bool          `env:"DB_CACHE" envDefault:"true"`
	DBCacheTTL time.Duration `env:"DB_CACHE_TTL" envDefault:"5m"`

	// Capture archive, disabled while AWS_BUCKET_NAME is empty
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSBucketName      string `env:"AWS_BUCKET_NAME" envDefault:""`
}

// SetupServerDto contains dependencies for server setup. Infrastructure
// fields are nil when the component is disabled or unreachable.
type SetupServerDto struct {
	Ctx     context.Context
	Cancel  context.CancelFunc
	Wg      *sync.WaitGroup
	Env     *Config
	Db      *database.Database
	Rds     *redis.Client
	Rb      *rabbitmq.ConnectionManager
	S3      s3aws.Is3
	Backend *backend.Client
}
