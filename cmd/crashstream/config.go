package main

import (
	"strings"
	"unicode/utf8"

	"github.com/kbukum/crashstream/config"
	"github.com/kbukum/crashstream/grpc"
	"github.com/kbukum/crashstream/observability"
	"github.com/kbukum/crashstream/source"
	"github.com/kbukum/crashstream/validation"
	"github.com/kbukum/crashstream/version"
)

const serviceName = "crashstream"

// Config is the full crashstream configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	GRPC                 grpc.Config          `yaml:"grpc" mapstructure:"grpc"`
	Ingest               IngestConfig         `yaml:"ingest" mapstructure:"ingest"`
	Telemetry            observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// IngestConfig selects and describes the source file.
type IngestConfig struct {
	// Source is the path of the CSV file to transfer.
	Source string `yaml:"source" mapstructure:"source"`
	// Comma is the field delimiter; "\t" and "tab" select a tab.
	Comma      string `yaml:"comma" mapstructure:"comma"`
	LazyQuotes bool   `yaml:"lazy_quotes" mapstructure:"lazy_quotes"`
	Encoding   string `yaml:"encoding" mapstructure:"encoding"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.GRPC.ApplyDefaults()
	c.Ingest.ApplyDefaults()

	c.Telemetry.ApplyDefaults()
	c.Telemetry.ServiceName = c.Name
	c.Telemetry.ServiceVersion = c.Version
	c.Telemetry.Environment = c.Environment
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.GRPC.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// ApplyDefaults fills the delimiter and encoding.
func (c *IngestConfig) ApplyDefaults() {
	if c.Comma == "" {
		c.Comma = ","
	}
	if c.Encoding == "" {
		c.Encoding = source.EncodingUTF8
	}
}

// Validate checks the source settings.
func (c *IngestConfig) Validate() error {
	comma := c.comma()
	return validation.New().
		Required("ingest.source", c.Source).
		Custom(comma != utf8.RuneError && comma != '"' && comma != '\r' && comma != '\n',
			"ingest.comma", "must be a single character other than a quote or line break").
		Custom(validEncoding(c.Encoding),
			"ingest.encoding", "must be one of: "+strings.Join(source.Encodings, ", ")).
		Err()
}

// Options converts the section into reader options.
func (c *IngestConfig) Options() source.Options {
	return source.Options{
		Comma:      c.comma(),
		LazyQuotes: c.LazyQuotes,
		Encoding:   c.Encoding,
	}
}

func (c *IngestConfig) comma() rune {
	switch c.Comma {
	case `\t`, "tab":
		return '\t'
	}
	r, size := utf8.DecodeRuneInString(c.Comma)
	if size == 0 || size != len(c.Comma) {
		return utf8.RuneError
	}
	return r
}

func validEncoding(enc string) bool {
	_, ok := source.CanonicalEncoding(enc)
	return ok
}
