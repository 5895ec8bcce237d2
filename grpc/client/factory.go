package client

import (
	"google.golang.org/grpc"

	grpccfg "github.com/kbukum/crashstream/grpc"
	"github.com/kbukum/crashstream/logger"
)

// ConnectionFactory creates a fresh connection per transfer. The caller owns
// the returned connection and must close it.
type ConnectionFactory interface {
	NewConn() (*grpc.ClientConn, error)
}

// ConnectionFactoryFunc adapts a function to ConnectionFactory.
type ConnectionFactoryFunc func() (*grpc.ClientConn, error)

// NewConn calls f.
func (f ConnectionFactoryFunc) NewConn() (*grpc.ClientConn, error) { return f() }

// DefaultConnectionFactory creates connections from a Config.
type DefaultConnectionFactory struct {
	cfg  grpccfg.Config
	log  *logger.Logger
	opts []grpc.DialOption
}

// NewDefaultConnectionFactory creates a factory that builds connections using
// the provided config and logger. Extra dial options are applied to every
// connection.
func NewDefaultConnectionFactory(cfg grpccfg.Config, log *logger.Logger, opts ...grpc.DialOption) *DefaultConnectionFactory {
	return &DefaultConnectionFactory{cfg: cfg, log: log, opts: opts}
}

// NewConn creates a new gRPC client connection.
func (f *DefaultConnectionFactory) NewConn() (*grpc.ClientConn, error) {
	return NewClient(f.cfg, f.log, f.opts...)
}

// Target returns the dial target connections are created for.
func (f *DefaultConnectionFactory) Target() string {
	cfg := f.cfg
	cfg.ApplyDefaults()
	return cfg.Address()
}
