package database

import (
	"testing"

	drv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass string
		wantUser, wantPass   string
		wantAddr, wantDB     string
		wantTLS              string
	}{
		{name: "native", in: "root:pw@tcp(db:3306)/lux", wantUser: "root", wantPass: "pw", wantAddr: "db:3306", wantDB: "lux"},
		{name: "url form", in: "mysql://root:pw@db:3306/lux", wantUser: "root", wantPass: "pw", wantAddr: "db:3306", wantDB: "lux"},
		{name: "jdbc with overrides", in: "jdbc:mysql://db:3306/lux?useSSL=false", user: "app", pass: "secret",
			wantUser: "app", wantPass: "secret", wantAddr: "db:3306", wantDB: "lux", wantTLS: "false"},
		{name: "query credentials", in: "mysql://db:3306/lux?user=u&password=p", wantUser: "u", wantPass: "p", wantAddr: "db:3306", wantDB: "lux"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := normalizeMySQLDSN(tc.in, tc.user, tc.pass)
			require.NoError(t, err)
			cfg, err := drv.ParseDSN(dsn)
			require.NoError(t, err)
			assert.Equal(t, tc.wantUser, cfg.User)
			assert.Equal(t, tc.wantPass, cfg.Passwd)
			assert.Equal(t, tc.wantAddr, cfg.Addr)
			assert.Equal(t, tc.wantDB, cfg.DBName)
			assert.True(t, cfg.ParseTime)
			if tc.wantTLS != "" {
				assert.Equal(t, tc.wantTLS, cfg.TLSConfig)
			}
		})
	}

	_, err := normalizeMySQLDSN("  ", "", "")
	assert.Error(t, err)
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db:3306)/lux", maskDSN("root:pw@tcp(db:3306)/lux"))
	assert.Equal(t, "tcp(db)/lux", maskDSN("tcp(db)/lux"))
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLevel("silent"))
	assert.Equal(t, logger.Info, gormLevel("info"))
	assert.Equal(t, logger.Warn, gormLevel("bogus"))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "sqlite"}, zap.NewNop())
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}
