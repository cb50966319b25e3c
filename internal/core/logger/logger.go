package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type FileRotate struct {
	Enable     bool
	Filename   string // e.g. logs/app.log
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Options struct {
	Level       string // debug / info / warn / error
	JSON        bool
	AddCaller   bool
	Development bool
	Rotate      FileRotate
	Service     string // added to every entry as "svc" when set
}

// Build tees stdout and the optional rotating file. JSON output is sampled;
// console output is not, so local debugging sees every line.
func Build(opt Options) (*zap.Logger, func()) {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if err := lvl.UnmarshalText([]byte(opt.Level)); err != nil {
		lvl.SetLevel(zapcore.InfoLevel)
	}
	enc := encoder(opt.JSON)

	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)}
	if opt.Rotate.Enable {
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(rotator(opt.Rotate)), lvl))
	}
	core := zapcore.NewTee(cores...)
	if opt.JSON {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if opt.AddCaller {
		opts = append(opts, zap.AddCaller())
	}
	if opt.Development {
		opts = append(opts, zap.Development())
	}
	if opt.Service != "" {
		opts = append(opts, zap.Fields(zap.String("svc", opt.Service)))
	}
	l := zap.New(core, opts...)
	return l, func() { _ = l.Sync() }
}

func encoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// rotator never reports Sync errors; lumberjack flushes on every write.
func rotator(r FileRotate) zapcore.WriteSyncer {
	return rotWriter{&lumberjack.Logger{
		Filename:   r.Filename,
		MaxSize:    max(1, r.MaxSizeMB),
		MaxBackups: max(0, r.MaxBackups),
		MaxAge:     max(0, r.MaxAgeDays),
		Compress:   r.Compress,
	}}
}

type rotWriter struct{ *lumberjack.Logger }

func (w rotWriter) Sync() error { return nil }

// RedirectStdLog sends output of the standard library logger to l at level.
func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, level)
	if err != nil {
		return func() {}
	}
	return undo
}
