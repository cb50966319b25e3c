package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	drv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"luxauction-api/internal/domain"
)

var ErrUnsupportedDriver = errors.New("unsupported db driver")

const slowQuery = 200 * time.Millisecond

type Opts struct {
	Driver             string // postgres / mysql
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string // silent / error / warn / info
}

// NewGorm opens the pool and returns a session that skips the implicit
// per-write transaction. SQL logging goes through l.
func NewGorm(o Opts, l *zap.Logger) (*gorm.DB, error) {
	if l == nil {
		l = zap.NewNop()
	}
	dial, err := dialector(o, l)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dial, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zapWriter{l.Named("sql").Sugar()}, logger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  gormLevel(o.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)

	return db.Session(&gorm.Session{PrepareStmt: true, SkipDefaultTransaction: true}), nil
}

func dialector(o Opts, l *zap.Logger) (gorm.Dialector, error) {
	switch o.Driver {
	case "postgres":
		return postgres.Open(o.DSN), nil
	case "mysql":
		dsn, err := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		if err != nil {
			return nil, err
		}
		l.Debug("mysql dsn", zap.String("dsn", maskDSN(dsn)))
		return mysql.Open(dsn), nil
	default:
		return nil, ErrUnsupportedDriver
	}
}

func gormLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

type zapWriter struct{ s *zap.SugaredLogger }

func (w zapWriter) Printf(format string, args ...interface{}) { w.s.Infof(format, args...) }

// Migrate creates or updates the users and listings tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}, &domain.Listing{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping checks the pool behind db, for health probes.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// normalizeMySQLDSN accepts the driver's native form or a mysql:// (also
// jdbc:mysql://) URL and returns a native DSN with parseTime on and utf8mb4
// as the default charset. Explicit user/pass win over anything in the DSN.
func normalizeMySQLDSN(input, user, pass string) (string, error) {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if in == "" {
		return "", errors.New("mysql dsn is empty")
	}

	var cfg *drv.Config
	if strings.HasPrefix(in, "mysql://") {
		u, err := url.Parse(in)
		if err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		cfg = drv.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Passwd, _ = u.User.Password()
		}
		q := u.Query()
		if v := q.Get("user"); v != "" {
			cfg.User = v
		}
		if v := q.Get("password"); v != "" {
			cfg.Passwd = v
		}
		if v := q.Get("serverTimezone"); v != "" {
			if loc, err := time.LoadLocation(v); err == nil {
				cfg.Loc = loc
			}
		}
		if v := strings.ToLower(q.Get("useSSL")); v != "" {
			cfg.TLSConfig = map[string]string{"true": "true", "1": "true", "skip-verify": "skip-verify", "preferred": "preferred"}[v]
			if cfg.TLSConfig == "" {
				cfg.TLSConfig = "false"
			}
		}
		cfg.Params = map[string]string{"charset": "utf8mb4"}
		if v := q.Get("characterEncoding"); v != "" {
			cfg.Params["charset"] = v
		}
		if v := q.Get("charset"); v != "" {
			cfg.Params["charset"] = v
		}
	} else {
		var err error
		if cfg, err = drv.ParseDSN(in); err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
	}

	cfg.ParseTime = true
	if user != "" {
		cfg.User = user
	}
	if pass != "" {
		cfg.Passwd = pass
	}
	return cfg.FormatDSN(), nil
}

func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at <= 0 {
		return dsn
	}
	if colon := strings.Index(dsn[:at], ":"); colon > 0 {
		return dsn[:colon+1] + "****" + dsn[at:]
	}
	return dsn
}
