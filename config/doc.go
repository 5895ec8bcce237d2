// Package config loads crashstream configuration.
//
// It uses Viper to read a YAML file and binds environment variables (plus an
// optional .env file loaded through godotenv) on top of it. Each section of
// the configuration exposes ApplyDefaults and Validate.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("crashstream", &cfg)
//
// Environment variables override file values using underscore-separated
// paths (e.g., GRPC_HOST, INGEST_SOURCE).
package config
