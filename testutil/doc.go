// Package testutil provides test infrastructure for the ingestor: an
// in-memory collection service, CSV fixture builders, and lifecycle helpers
// that tie components to a test's cleanup.
//
// # Quick Start
//
//	func TestTransfer(t *testing.T) {
//	    collector := testutil.NewCollector()
//	    testutil.T(t).Setup(collector)
//
//	    path := testutil.WriteCSV(t, testutil.ValidRow("1"), testutil.ValidRow("2"))
//	    ing := ingest.New(collector.Factory(logger.NewNop()), ingest.Options{})
//	    res, err := ing.Stream(ctx, path)
//	    // collector.Records() now holds both rows in order
//	}
//
// The Collector serves mini2.EntryPointService over a bufconn listener, so
// tests exercise the real client dialing and streaming code without opening
// a network port.
package testutil
