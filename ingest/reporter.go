package ingest

import (
	"fmt"
	"sync"

	"github.com/kbukum/crashstream/logger"
)

// RowError describes one rejected source row.
type RowError struct {
	// Line is the 1-based line on which the row starts.
	Line int
	// Field is the column that failed to decode.
	Field string
	// Value is the raw text of that column.
	Value string
	Cause error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: invalid value %q for %s", e.Line, e.Value, e.Field)
}

func (e RowError) Unwrap() error { return e.Cause }

// Reporter receives a diagnostic for every rejected row. Calls happen on the
// transfer's goroutine, in source order.
type Reporter interface {
	RowRejected(RowError)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(RowError)

// RowRejected calls f.
func (f ReporterFunc) RowRejected(e RowError) { f(e) }

// LogReporter logs each rejected row at warn level.
type LogReporter struct {
	log *logger.Logger
}

// NewLogReporter creates a reporter writing to log.
func NewLogReporter(log *logger.Logger) *LogReporter {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogReporter{log: log}
}

// RowRejected implements Reporter.
func (r *LogReporter) RowRejected(e RowError) {
	r.log.Warn(fmt.Sprintf("Invalid value %q for %s. Skipping row.", e.Value, e.Field), logger.Fields(
		logger.FieldLine, e.Line,
		logger.FieldField, e.Field,
		logger.FieldValue, e.Value,
	))
}

// Collector keeps rejected rows in memory.
type Collector struct {
	mu   sync.Mutex
	rows []RowError
}

// RowRejected implements Reporter.
func (c *Collector) RowRejected(e RowError) {
	c.mu.Lock()
	c.rows = append(c.rows, e)
	c.mu.Unlock()
}

// Rows returns the collected diagnostics in the order they were reported.
func (c *Collector) Rows() []RowError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RowError(nil), c.rows...)
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// MultiReporter fans a diagnostic out to several reporters. Nil entries are skipped.
type MultiReporter []Reporter

// RowRejected implements Reporter.
func (m MultiReporter) RowRejected(e RowError) {
	for _, r := range m {
		if r != nil {
			r.RowRejected(e)
		}
	}
}
