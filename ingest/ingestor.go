package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/crashstream/collision"
	"github.com/kbukum/crashstream/errors"
	grpccfg "github.com/kbukum/crashstream/grpc"
	"github.com/kbukum/crashstream/grpc/client"
	"github.com/kbukum/crashstream/logger"
	"github.com/kbukum/crashstream/observability"
	"github.com/kbukum/crashstream/pipeline"
	"github.com/kbukum/crashstream/source"
)

const defaultService = "collection-service"

// Transfer outcomes used in logs, spans and metrics.
const (
	StatusAcknowledged = "acknowledged"
	StatusFailed       = "failed"
)

// Options configures an Ingestor. Every field is optional.
type Options struct {
	// Source controls how source files are parsed.
	Source source.Options
	// ConnectTimeout bounds stream establishment. Zero waits as long as the
	// caller's context allows.
	ConnectTimeout time.Duration
	// Service names the collection service in errors and logs.
	Service string
	// Target is the dial target, recorded on spans and logs.
	Target string
	// Reporter receives rejected-row diagnostics. Defaults to a LogReporter.
	Reporter Reporter
	// Metrics records transfer instruments. Nil records nothing.
	Metrics *observability.TransferMetrics
	Logger  *logger.Logger
}

// Result summarizes one transfer. It is returned on success and on failure.
type Result struct {
	TransferID string
	Source     string
	// RowsRead counts data rows pulled from the source.
	RowsRead int
	// RecordsSent counts records handed to the transport. It is final once
	// Stream returns.
	RecordsSent int
	// RowsDropped counts rows rejected by the decoder.
	RowsDropped int
	// Acknowledged is true once the service has answered the closed stream.
	Acknowledged bool
	Duration     time.Duration
}

// Status returns StatusAcknowledged or StatusFailed.
func (r *Result) Status() string {
	if r.Acknowledged {
		return StatusAcknowledged
	}
	return StatusFailed
}

// Ingestor streams source files to the collection service. Each call to
// Stream uses its own connection and file handle, so one Ingestor may run
// several transfers concurrently.
type Ingestor struct {
	factory client.ConnectionFactory
	opts    Options
	log     *logger.Logger
}

// New creates an Ingestor that obtains connections from factory.
func New(factory client.ConnectionFactory, opts Options) *Ingestor {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Service == "" {
		opts.Service = defaultService
	}
	log := opts.Logger.WithComponent("ingest")
	if opts.Reporter == nil {
		opts.Reporter = NewLogReporter(log)
	}
	if opts.Target == "" {
		if t, ok := factory.(interface{ Target() string }); ok {
			opts.Target = t.Target()
		}
	}
	return &Ingestor{factory: factory, opts: opts, log: log}
}

// Stream transfers the source at path and waits for the acknowledgement.
//
// The source is opened and its header checked before any connection is
// made, so SOURCE_NOT_FOUND and INVALID_HEADER leave the service untouched.
// Rejected rows are reported and skipped. Any source or transport failure
// aborts the transfer; records already sent stay sent. The returned error is
// an AppError carrying the transfer id and the number of records sent.
func (in *Ingestor) Stream(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	res := &Result{TransferID: uuid.NewString(), Source: path}
	log := in.log.WithFields(logger.Fields(
		logger.FieldTransferID, res.TransferID,
		logger.FieldSource, path,
	))

	ctx, span := observability.StartSpan(ctx, observability.SpanTransfer, trace.WithAttributes(
		observability.AttrTransferID.String(res.TransferID),
		observability.AttrSource.String(path),
		observability.AttrTarget.String(in.opts.Target),
	))
	defer span.End()

	err := in.transfer(ctx, path, res, log)
	res.Duration = time.Since(start)

	span.SetAttributes(
		observability.AttrRowsRead.Int(res.RowsRead),
		observability.AttrRecordsSent.Int(res.RecordsSent),
		observability.AttrRowsDropped.Int(res.RowsDropped),
		observability.AttrStatus.String(res.Status()),
	)
	in.opts.Metrics.RecordTransfer(ctx, res.Status(), res.Duration)

	fields := logger.Fields(
		logger.FieldRowsRead, res.RowsRead,
		logger.FieldRecordsSent, res.RecordsSent,
		logger.FieldRowsDropped, res.RowsDropped,
		logger.FieldDuration, res.Duration.Milliseconds(),
	)
	if err != nil {
		appErr := errors.Wrap(err).
			WithDetail(logger.FieldTransferID, res.TransferID).
			WithDetail(logger.FieldRecordsSent, res.RecordsSent)
		observability.SetSpanError(ctx, appErr)
		span.SetStatus(codes.Error, appErr.Error())
		fields[logger.FieldStatus] = string(appErr.Code)
		log.Debug("Transfer failed", logger.MergeWithError(fields, appErr))
		return res, appErr
	}
	span.SetStatus(codes.Ok, "")
	log.Info("Transfer acknowledged", fields)
	return res, nil
}

func (in *Ingestor) transfer(ctx context.Context, path string, res *Result, log *logger.Logger) error {
	reader, err := source.Open(path, in.opts.Source)
	if err != nil {
		return err
	}
	defer reader.Close()

	sess, err := OpenSession(ctx, in.factory, in.opts.ConnectTimeout, in.opts.Service)
	if err != nil {
		return err
	}
	defer sess.Close()
	defer func() { res.RecordsSent = sess.Sent() }()
	log.Debug("Stream opened", logger.Fields(logger.FieldTarget, in.opts.Target))

	rows := pipeline.Tap(pipeline.From[source.Entry](reader), func(ctx context.Context, _ source.Entry) error {
		res.RowsRead++
		in.opts.Metrics.RecordRead(ctx)
		return nil
	})
	records := pipeline.FilterMap(rows, func(ctx context.Context, e source.Entry) (collision.Record, bool, error) {
		rec, err := collision.Decode(e.Row)
		if err != nil {
			in.reject(ctx, res, e.Line, err)
			return collision.Record{}, false, nil
		}
		return rec, true, nil
	})

	err = pipeline.Drain(records, func(ctx context.Context, rec collision.Record) error {
		if err := sess.Send(rec); err != nil {
			return err
		}
		in.opts.Metrics.RecordSent(ctx)
		return nil
	}).Run(ctx)
	if err != nil {
		return grpccfg.FromGRPC(err, in.opts.Service)
	}

	if err := sess.CloseAndRecv(); err != nil {
		return err
	}
	res.Acknowledged = true
	return nil
}

func (in *Ingestor) reject(ctx context.Context, res *Result, line int, err error) {
	field, value, ok := collision.InvalidField(err)
	if !ok {
		field = "unknown"
	}
	res.RowsDropped++
	in.opts.Metrics.RecordDropped(ctx, field)
	in.opts.Reporter.RowRejected(RowError{Line: line, Field: field, Value: value, Cause: err})
}
