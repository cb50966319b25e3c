package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int `validate:"min=1,max=65535"`
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	HandlerTimeoutSec int
	CORSOrigins       []string `mapstructure:"cors_origins"`
}

type AdminHTTP struct {
	Host string
	Port int `validate:"min=1,max=65535"`
}

type App struct {
	Name  string `validate:"required"`
	Env   string `validate:"oneof=local dev test prod"`
	HTTP  HTTP
	Admin AdminHTTP
}

type LogFile struct {
	Enable     bool
	Filename   string `validate:"required_if=Enable true"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool
}

type Log struct {
	Level string `validate:"oneof=debug info warn error"`
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string `validate:"required,min=16"`
	Issuer            string `validate:"required"`
	AccessTokenTTLMin int    `validate:"min=1"`
}

type Redis struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	FeaturedTTLSec int    `mapstructure:"featured_ttl_sec"`
}

type DB struct {
	Driver             string `validate:"oneof=postgres mysql"`
	DSN                string `validate:"required"`
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type MinIO struct {
	Endpoint  string
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string
	Region    string
	UseSSL    bool `mapstructure:"use_ssl"`
}

type Media struct {
	Driver         string   `validate:"oneof=local minio"`
	Root           string   `validate:"required_if=Driver local"`
	PublicPrefix   string   `mapstructure:"public_prefix" validate:"required,startswith=/"`
	MaxFileMB      int      `mapstructure:"max_file_mb" validate:"min=1"`
	AllowedExt     []string `mapstructure:"allowed_ext" validate:"min=1"`
	OrphanGraceMin int      `mapstructure:"orphan_grace_min" validate:"min=1"`
	MinIO          MinIO
}

type Listing struct {
	Durations       []int `validate:"min=1,dive,min=1"`
	MaxImages       int   `mapstructure:"max_images" validate:"min=1"`
	FeaturedDefault int   `mapstructure:"featured_default" validate:"min=1"`
	FeaturedMax     int   `mapstructure:"featured_max" validate:"gtefield=FeaturedDefault,max=10"`
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Media   Media
	Listing Listing
}

func (r Redis) FeaturedTTL() time.Duration { return time.Duration(r.FeaturedTTLSec) * time.Second }

func (m Media) OrphanGrace() time.Duration { return time.Duration(m.OrphanGraceMin) * time.Minute }

func (m Media) MaxFileBytes() int64 { return int64(m.MaxFileMB) << 20 }

// Load reads the config or exits the process.
func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

// Read resolves path (CONFIG_PATH, then ./configs/config.local.yaml), overlays
// APP_* env vars and validates the result. A missing file is not an error.
func Read(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		log.Printf("config file %s not found, using defaults and env", path)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	if c.Media.Driver == "minio" && (c.Media.MinIO.Endpoint == "" || c.Media.MinIO.Bucket == "") {
		return nil, errors.New("invalid: media.minio endpoint and bucket are required for the minio driver")
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "luxauction-api")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 30)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.handlertimeoutsec", 20)
	v.SetDefault("app.http.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.max_age_days", 14)

	// keys without a real default still need registering so APP_* env vars reach Unmarshal
	for _, k := range []string{
		"jwt.secret", "db.dsn", "db.username", "db.password", "redis.addr", "redis.password",
		"media.minio.endpoint", "media.minio.access_key", "media.minio.secret_key", "media.minio.region",
	} {
		v.SetDefault(k, "")
	}
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.compress", true)
	v.SetDefault("media.minio.use_ssl", false)

	v.SetDefault("jwt.issuer", "luxauction")
	v.SetDefault("jwt.accesstokenttlmin", 120)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.featured_ttl_sec", 15)

	v.SetDefault("media.driver", "local")
	v.SetDefault("media.root", "./wwwroot/uploads")
	v.SetDefault("media.public_prefix", "/uploads")
	v.SetDefault("media.max_file_mb", 5)
	v.SetDefault("media.allowed_ext", []string{".jpg", ".jpeg", ".png", ".webp", ".gif"})
	v.SetDefault("media.orphan_grace_min", 60)
	v.SetDefault("media.minio.bucket", "listing-media")

	v.SetDefault("listing.durations", []int{1, 3, 7, 14})
	v.SetDefault("listing.max_images", 5)
	v.SetDefault("listing.featured_default", 3)
	v.SetDefault("listing.featured_max", 10)
}
