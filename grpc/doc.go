// Package grpc holds connection settings for the collection service and maps
// gRPC failures onto crashstream errors.
//
// # Client
//
// The grpc/client sub-package dials connections from a Config and opens
// streams with an optional establishment timeout:
//
//	conn, err := client.NewClient(cfg, log)
//
// # Interceptors
//
// The grpc/interceptor sub-package logs stream lifecycles with structured
// fields.
package grpc
