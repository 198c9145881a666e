package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string        `yaml:"env" env-required:"true" env-default:"production"`
	Storage       Storage       `yaml:"storage"`
	PGSQL         PQSQL         `yaml:"pgsql"`
	SQLite        SQLite        `yaml:"sqlite"`
	Redis         Redis         `yaml:"redis"`
	MinIO         MinIO         `yaml:"minio"`
	Media         Media         `yaml:"media"`
	HTTPServer    HTTPServer    `yaml:"http_server" env-required:"true"`
	JWTSecret     string        `yaml:"jwt_secret" env-required:"true" env-default:"super_secret_key"`
	Notifications Notifications `yaml:"notifications"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	Retention     Retention     `yaml:"retention"`
	Admin         Admin         `yaml:"admin"`
}

type HTTPServer struct {
	Address string `yaml:"address" env-required:"true" env-default:"localhost:8080"`
}

// Storage selects the notification store backend: "postgres" or "sqlite"
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type PQSQL struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-default:"postgres"`
	Password string `yaml:"password" env-default:"password"`
	DBName   string `yaml:"dbname" env-default:"album_notify"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type SQLite struct {
	Path string `yaml:"path" env-default:"album_notify.db"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `yaml:"bucket_name" env-default:"album-media"`
	UseSSL          bool   `yaml:"use_ssl" env-default:"false"`
}

type Media struct {
	MaxFileSize      int64    `yaml:"max_file_size" env-default:"104857600"`
	PresignedURLTTL  int      `yaml:"presigned_url_ttl" env-default:"900"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env-default:"image/jpeg,image/png,image/heic,image/gif,video/mp4,video/quicktime"`
	// ConfirmedKeyTTL is how long a confirmed object key is remembered to reject replays.
	ConfirmedKeyTTL time.Duration `yaml:"confirmed_key_ttl" env-default:"168h"`
}

// Notifications configures the batching engine
type Notifications struct {
	// DebounceWindow is the silence required before a batch is flushed.
	DebounceWindow   time.Duration `yaml:"debounce_window" env:"NOTIFY_DEBOUNCE_WINDOW" env-default:"15s"`
	SweepInterval    time.Duration `yaml:"sweep_interval" env-default:"1s"`
	IdentityCacheTTL time.Duration `yaml:"identity_cache_ttl" env-default:"5m"`
	// FlushOnShutdown flushes pending batches at process exit instead of dropping them.
	FlushOnShutdown bool `yaml:"flush_on_shutdown" env-default:"false"`
}

type RateLimit struct {
	UploadsPerMinute int64 `yaml:"uploads_per_minute" env-default:"120"`
}

// Admin lists the users allowed on the /admin routes; empty means nobody
type Admin struct {
	UserIDs []string `yaml:"user_ids" env:"ADMIN_USER_IDS"`
}

type Retention struct {
	ReadTTL  time.Duration `yaml:"read_ttl" env-default:"720h"`
	Interval time.Duration `yaml:"interval" env-default:"1h"`
}

// Load reads the config file at path, applying env overrides and defaults
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist at path: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.Notifications.DebounceWindow <= 0 {
		return nil, fmt.Errorf("notifications.debounce_window must be positive, got %s", cfg.Notifications.DebounceWindow)
	}
	if cfg.Notifications.SweepInterval <= 0 {
		return nil, fmt.Errorf("notifications.sweep_interval must be positive, got %s", cfg.Notifications.SweepInterval)
	}

	switch cfg.Storage.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
