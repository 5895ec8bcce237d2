// Package component defines the lifecycle interface for infrastructure the
// ingestor depends on, and a Registry that starts components in order and
// stops them in reverse.
package component
