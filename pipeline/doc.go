// Package pipeline provides composable, pull-based data pipeline operators.
//
// Pipelines are lazy. No work happens until Drain pulls values. Each stage
// pulls from the previous stage on demand, so a slow sink slows the source
// and only one value is in flight at a time.
//
// # Operators
//
//   - FilterMap: transform each value, dropping rejected ones
//   - Tap: side-effect without altering the value (logging, metrics, counting)
//
// # Usage
//
//	rows := pipeline.From[source.Entry](reader)
//	counted := pipeline.Tap(rows, countRow)
//	records := pipeline.FilterMap(counted, decodeOrReport)
//	err := pipeline.Drain(records, send).Run(ctx)
package pipeline
