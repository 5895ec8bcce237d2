package grpc

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// KeepaliveConfig holds keepalive settings for gRPC connections.
type KeepaliveConfig struct {
	// Time is the interval between keepalive pings.
	Time time.Duration `yaml:"time" mapstructure:"time"`
	// Timeout is the time to wait for a keepalive ping ack before closing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// PermitWithoutStream allows keepalive pings when there are no active RPCs.
	PermitWithoutStream bool `yaml:"permit_without_stream" mapstructure:"permit_without_stream"`
}

// TLSConfig holds TLS settings for the connection. A zero value means
// plaintext.
type TLSConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// CAFile verifies the server certificate. System roots are used when empty.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// CertFile and KeyFile enable mutual TLS when both are set.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
	// ServerName overrides the name used for certificate verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// Build creates a *tls.Config. It returns nil when TLS is disabled.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if c == nil || !c.Enabled {
		return nil, nil
	}
	cfg := &tls.Config{
		InsecureSkipVerify: c.InsecureSkipVerify, //nolint:gosec // opt-in for test clusters
		ServerName:         c.ServerName,
		MinVersion:         tls.VersionTLS12,
	}
	if c.CAFile != "" {
		ca, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("grpc: read tls ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("grpc: tls ca_file %s contains no certificates", c.CAFile)
		}
		cfg.RootCAs = pool
	}
	if c.CertFile != "" && c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("grpc: load tls client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// Config holds configuration for the collection service connection.
type Config struct {
	// Name identifies the remote service in logs and errors.
	Name string `yaml:"name" mapstructure:"name"`
	// Host is the gRPC server hostname.
	Host string `yaml:"host" mapstructure:"host"`
	// Port is the gRPC server port.
	Port int `yaml:"port" mapstructure:"port"`
	// Target is a full dial target (e.g. "dns:///collector:50051"). When set
	// it takes precedence over Host and Port.
	Target string `yaml:"target" mapstructure:"target"`
	// MaxRecvMsgSize is the maximum message size the client can receive (bytes).
	MaxRecvMsgSize int `yaml:"max_recv_msg_size" mapstructure:"max_recv_msg_size"`
	// MaxSendMsgSize is the maximum message size the client can send (bytes).
	MaxSendMsgSize int `yaml:"max_send_msg_size" mapstructure:"max_send_msg_size"`
	// Keepalive holds keepalive configuration.
	Keepalive KeepaliveConfig `yaml:"keepalive" mapstructure:"keepalive"`
	// TLS holds TLS configuration.
	TLS TLSConfig `yaml:"tls" mapstructure:"tls"`
	// ConnectTimeout bounds stream establishment only. Zero waits forever.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

const (
	defaultName             = "collection-service"
	defaultHost             = "localhost"
	defaultPort             = 50051
	defaultMaxRecvMsgSize   = 4 * 1024 * 1024 // 4 MB
	defaultMaxSendMsgSize   = 4 * 1024 * 1024 // 4 MB
	defaultKeepaliveTime    = 30 * time.Second
	defaultKeepaliveTimeout = 10 * time.Second
)

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.MaxRecvMsgSize == 0 {
		c.MaxRecvMsgSize = defaultMaxRecvMsgSize
	}
	if c.MaxSendMsgSize == 0 {
		c.MaxSendMsgSize = defaultMaxSendMsgSize
	}
	if c.Keepalive.Time == 0 {
		c.Keepalive.Time = defaultKeepaliveTime
	}
	if c.Keepalive.Timeout == 0 {
		c.Keepalive.Timeout = defaultKeepaliveTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Target == "" {
		if c.Host == "" {
			return fmt.Errorf("grpc: host must not be empty")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("grpc: port must be between 1 and 65535, got %d", c.Port)
		}
	}
	if c.MaxRecvMsgSize <= 0 {
		return fmt.Errorf("grpc: max_recv_msg_size must be positive, got %d", c.MaxRecvMsgSize)
	}
	if c.MaxSendMsgSize <= 0 {
		return fmt.Errorf("grpc: max_send_msg_size must be positive, got %d", c.MaxSendMsgSize)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("grpc: connect_timeout must not be negative, got %s", c.ConnectTimeout)
	}
	if c.TLS.Enabled && (c.TLS.CertFile != "") != (c.TLS.KeyFile != "") {
		return fmt.Errorf("grpc: tls cert_file and key_file must be provided together")
	}
	return nil
}

// Address returns the dial target.
func (c *Config) Address() string {
	if c.Target != "" {
		return c.Target
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
