// Package ingest streams a collision source file to the collection service.
//
// One call to Ingestor.Stream is one transfer: the source is opened and its
// header checked, a Session is opened on a fresh connection, rows are pulled
// one at a time through the decoder, and every decoded record is sent on a
// single client-streaming StreamCollisions call. The transfer ends when the
// service acknowledges the closed stream.
//
// Rows that fail to decode are dropped and reported through a Reporter; they
// never fail the transfer. Source and transport failures do, and are returned
// as *errors.AppError together with the Result accumulated so far.
//
// Delivery is best-effort. Result.RecordsSent counts records handed to the
// transport, not records the service has committed.
//
//	ing := ingest.New(factory, ingest.Options{Logger: log})
//	res, err := ing.Stream(ctx, "collisions.csv")
package ingest
