package media

import (
	"errors"

	"go.uber.org/zap"
)

var ErrUnsupportedDriver = errors.New("unsupported media driver")

type Opts struct {
	Driver    string // local / minio
	Root      string
	Prefix    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Open builds the store selected by o.Driver. It does not touch the backend;
// callers run Prepare when they need it.
func Open(o Opts, l *zap.Logger) (Store, error) {
	switch o.Driver {
	case "", "local":
		return NewLocal(o.Root, o.Prefix, l), nil
	case "minio":
		return NewMinIO(o, l)
	default:
		return nil, ErrUnsupportedDriver
	}
}
