package ingest_test

import (
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	"github.com/kbukum/crashstream/collision"
	"github.com/kbukum/crashstream/errors"
	"github.com/kbukum/crashstream/grpc/client"
	"github.com/kbukum/crashstream/ingest"
	"github.com/kbukum/crashstream/logger"
	"github.com/kbukum/crashstream/observability"
	"github.com/kbukum/crashstream/testutil"
)

func startCollector(t *testing.T, opts ...testutil.CollectorOption) *testutil.Collector {
	t.Helper()
	c := testutil.NewCollector(opts...)
	testutil.T(t).Setup(c)
	return c
}

func newIngestor(c *testutil.Collector, opts ingest.Options) *ingest.Ingestor {
	return ingest.New(c.Factory(logger.NewNop()), opts)
}

func TestStream_SingleRow(t *testing.T) {
	c := startCollector(t)
	path := testutil.WriteCSV(t, testutil.ValidRow("4455765"))

	res, err := newIngestor(c, ingest.Options{}).Stream(context.Background(), path)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	want := []collision.Record{testutil.ValidRecord("4455765")}
	if diff := cmp.Diff(want, c.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if !res.Acknowledged || res.RowsRead != 1 || res.RecordsSent != 1 || res.RowsDropped != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.TransferID == "" || res.Source != path {
		t.Errorf("result identity = %q, %q", res.TransferID, res.Source)
	}
	if c.Acks() != 1 {
		t.Errorf("acks = %d, want 1", c.Acks())
	}
}

func TestStream_EmptyCounterSendsNothingButAcknowledges(t *testing.T) {
	c := startCollector(t)
	path := testutil.WriteCSV(t, testutil.RowWith("1", collision.ColPersonsKilled, ""))
	diags := &ingest.Collector{}

	res, err := newIngestor(c, ingest.Options{Reporter: diags}).Stream(context.Background(), path)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if got := len(c.Records()); got != 0 {
		t.Errorf("records = %d, want 0", got)
	}
	if c.Streams() != 1 || c.Acks() != 1 {
		t.Errorf("streams = %d, acks = %d, want 1 and 1", c.Streams(), c.Acks())
	}
	if !res.Acknowledged || res.RowsRead != 1 || res.RowsDropped != 1 || res.RecordsSent != 0 {
		t.Errorf("result = %+v", res)
	}

	rows := diags.Rows()
	if len(rows) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(rows))
	}
	if rows[0].Field != collision.ColPersonsKilled || rows[0].Value != "" || rows[0].Line != 2 {
		t.Errorf("diagnostic = %+v", rows[0])
	}
	if !errors.HasCode(rows[0].Cause, errors.ErrCodeRowDecode) {
		t.Errorf("diagnostic cause = %v", rows[0].Cause)
	}
}

func TestStream_SourceNotFound(t *testing.T) {
	c := startCollector(t)

	res, err := newIngestor(c, ingest.Options{}).Stream(context.Background(), "/nonexistent/collisions.csv")
	if !errors.HasCode(err, errors.ErrCodeSourceNotFound) {
		t.Fatalf("Stream() error = %v, want SOURCE_NOT_FOUND", err)
	}
	if res == nil || res.Acknowledged || res.RecordsSent != 0 {
		t.Errorf("result = %+v", res)
	}
	if c.Streams() != 0 {
		t.Errorf("streams = %d, want no connection activity", c.Streams())
	}
}

func TestStream_InvalidHeader(t *testing.T) {
	c := startCollector(t)
	path := testutil.WriteFile(t, "CRASH DATE,BOROUGH\n09/11/2021,BROOKLYN\n")

	_, err := newIngestor(c, ingest.Options{}).Stream(context.Background(), path)
	if !errors.HasCode(err, errors.ErrCodeInvalidHeader) {
		t.Fatalf("Stream() error = %v, want INVALID_HEADER", err)
	}
	if c.Streams() != 0 {
		t.Errorf("streams = %d, want 0", c.Streams())
	}
}

func TestStream_ThousandRowsThreeMalformed(t *testing.T) {
	c := startCollector(t)

	bad := map[int][]string{
		10:  testutil.RowWith("id-10", collision.ColLatitude, "north"),
		500: testutil.RowWith("id-500", collision.ColPersonsInjured, "-1"),
		999: testutil.RowWith("id-999", collision.ColCyclistKilled, "two"),
	}
	rows := make([][]string, 0, 1000)
	var want []collision.Record
	for i := 0; i < 1000; i++ {
		if row, ok := bad[i]; ok {
			rows = append(rows, row)
			continue
		}
		id := fmt.Sprintf("id-%d", i)
		rows = append(rows, testutil.ValidRow(id))
		want = append(want, testutil.ValidRecord(id))
	}
	path := testutil.WriteCSV(t, rows...)
	diags := &ingest.Collector{}

	res, err := newIngestor(c, ingest.Options{Reporter: diags}).Stream(context.Background(), path)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if diff := cmp.Diff(want, c.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if res.RowsRead != 1000 || res.RecordsSent != 997 || res.RowsDropped != 3 || !res.Acknowledged {
		t.Errorf("result = %+v", res)
	}
	if c.Acks() != 1 {
		t.Errorf("acks = %d, want 1", c.Acks())
	}

	type diag struct {
		Line         int
		Field, Value string
	}
	var got []diag
	for _, d := range diags.Rows() {
		got = append(got, diag{d.Line, d.Field, d.Value})
	}
	wantDiags := []diag{
		{12, collision.ColLatitude, "north"},
		{502, collision.ColPersonsInjured, "-1"},
		{1001, collision.ColCyclistKilled, "two"},
	}
	if diff := cmp.Diff(wantDiags, got); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_MidStreamFailure(t *testing.T) {
	c := startCollector(t, testutil.FailAfter(2, codes.Unavailable))
	path := testutil.WriteCSV(t,
		testutil.ValidRow("1"), testutil.ValidRow("2"), testutil.ValidRow("3"),
		testutil.ValidRow("4"), testutil.ValidRow("5"),
	)

	res, err := newIngestor(c, ingest.Options{}).Stream(context.Background(), path)
	if !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
		t.Fatalf("Stream() error = %v, want SERVICE_UNAVAILABLE", err)
	}
	if res.Acknowledged {
		t.Error("failed transfer must not be acknowledged")
	}
	if res.RecordsSent < 2 || res.RecordsSent > 5 {
		t.Errorf("RecordsSent = %d, want between 2 and 5", res.RecordsSent)
	}
	if got := len(c.Records()); got != 2 {
		t.Errorf("collector stored %d records, want 2", got)
	}
	if c.Acks() != 0 {
		t.Errorf("acks = %d, want 0", c.Acks())
	}
}

func TestStream_MidStreamSourceError(t *testing.T) {
	c := startCollector(t)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(collision.Columns)
	_ = w.Write(testutil.ValidRow("1"))
	_ = w.Write(testutil.ValidRow("2"))
	w.Flush()
	buf.WriteString("09/11/2021,2:39,BROOK\"LYN\n")
	_ = w.Write(testutil.ValidRow("4"))
	w.Flush()
	path := testutil.WriteFile(t, buf.String())

	res, err := newIngestor(c, ingest.Options{}).Stream(context.Background(), path)
	if !errors.HasCode(err, errors.ErrCodeSourceRead) {
		t.Fatalf("Stream() error = %v, want SOURCE_READ_FAILED", err)
	}
	if res.Acknowledged {
		t.Error("aborted transfer must not be acknowledged")
	}
	if res.RowsRead != 2 || res.RecordsSent != 2 {
		t.Errorf("result = %+v, want 2 rows read and sent", res)
	}
	if got := len(c.Records()); got > 2 {
		t.Errorf("collector stored %d records, want at most 2", got)
	}
	if c.Acks() != 0 {
		t.Errorf("acks = %d, want 0", c.Acks())
	}

	appErr, _ := errors.AsAppError(err)
	if appErr.Details["line"] != 4 {
		t.Errorf("line detail = %v, want 4", appErr.Details["line"])
	}
	if appErr.Details[logger.FieldTransferID] != res.TransferID {
		t.Errorf("transfer id detail = %v, want %s", appErr.Details[logger.FieldTransferID], res.TransferID)
	}
	if appErr.Details[logger.FieldRecordsSent] != 2 {
		t.Errorf("records sent detail = %v, want 2", appErr.Details[logger.FieldRecordsSent])
	}
}

func TestStream_Canceled(t *testing.T) {
	received := make(chan struct{})
	var once sync.Once
	c := startCollector(t, testutil.WithReceiveHook(func(ctx context.Context, _ int, _ collision.Record) error {
		once.Do(func() { close(received) })
		<-ctx.Done()
		return ctx.Err()
	}))
	path := testutil.WriteCSV(t, testutil.ValidRow("1"), testutil.ValidRow("2"), testutil.ValidRow("3"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-received
		cancel()
	}()

	res, err := newIngestor(c, ingest.Options{}).Stream(ctx, path)
	if !errors.HasCode(err, errors.ErrCodeCanceled) {
		t.Fatalf("Stream() error = %v, want CANCELED", err)
	}
	if res.Acknowledged {
		t.Error("canceled transfer must not be acknowledged")
	}
}

func TestStream_ConnectionFactoryError(t *testing.T) {
	path := testutil.WriteCSV(t, testutil.ValidRow("1"))
	factory := client.ConnectionFactoryFunc(func() (*grpc.ClientConn, error) {
		return nil, stderrors.New("dial refused")
	})

	res, err := ingest.New(factory, ingest.Options{Service: "collector"}).Stream(context.Background(), path)
	if !errors.HasCode(err, errors.ErrCodeConnectionFailed) {
		t.Fatalf("Stream() error = %v, want CONNECTION_FAILED", err)
	}
	if res.RowsRead != 0 {
		t.Errorf("RowsRead = %d, want 0", res.RowsRead)
	}
}

func TestStream_ServiceDown(t *testing.T) {
	c := testutil.NewCollector()
	path := testutil.WriteCSV(t, testutil.ValidRow("1"))

	_, err := newIngestor(c, ingest.Options{ConnectTimeout: 2 * time.Second}).Stream(context.Background(), path)
	if err == nil {
		t.Fatal("Stream() should fail when the service is not running")
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeConnectionFailed, errors.ErrCodeServiceUnavailable, errors.ErrCodeTimeout:
	default:
		t.Errorf("Stream() error code = %s (%v)", errors.CodeOf(err), err)
	}
}

func TestStream_SequentialTransfersAreIsolated(t *testing.T) {
	c := startCollector(t)
	ing := newIngestor(c, ingest.Options{})

	first, err := ing.Stream(context.Background(), testutil.WriteCSV(t, testutil.ValidRow("a")))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ing.Stream(context.Background(), testutil.WriteCSV(t, testutil.ValidRow("b"), testutil.ValidRow("c")))
	if err != nil {
		t.Fatal(err)
	}

	if first.TransferID == second.TransferID {
		t.Error("transfers should have distinct ids")
	}
	if c.Streams() != 2 || c.Acks() != 2 || len(c.Records()) != 3 {
		t.Errorf("streams = %d, acks = %d, records = %d", c.Streams(), c.Acks(), len(c.Records()))
	}
}

func TestStream_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewTransferMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	c := startCollector(t)
	path := testutil.WriteCSV(t,
		testutil.ValidRow("1"),
		testutil.RowWith("2", collision.ColLongitude, "west"),
		testutil.ValidRow("3"),
	)
	if _, err := newIngestor(c, ingest.Options{Metrics: metrics}).Stream(context.Background(), path); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	sums := map[string]int64{}
	var droppedField string
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			data, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range data.DataPoints {
				sums[md.Name] += dp.Value
				if md.Name == "crashstream.rows.dropped" {
					v, _ := dp.Attributes.Value(observability.AttrField)
					droppedField = v.AsString()
				}
			}
		}
	}

	want := map[string]int64{
		"crashstream.rows.read":    3,
		"crashstream.records.sent": 2,
		"crashstream.rows.dropped": 1,
		"crashstream.transfers":    1,
	}
	if diff := cmp.Diff(want, sums); diff != "" {
		t.Errorf("metric sums mismatch (-want +got):\n%s", diff)
	}
	if droppedField != collision.ColLongitude {
		t.Errorf("dropped field attribute = %q", droppedField)
	}
}

func TestStream_Span(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	c := startCollector(t)
	path := testutil.WriteCSV(t, testutil.ValidRow("1"), testutil.ValidRow("2"))
	res, err := newIngestor(c, ingest.Options{}).Stream(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	var span sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == observability.SpanTransfer {
			span = s
		}
	}
	if span == nil {
		t.Fatal("transfer span not recorded")
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs[observability.AttrTransferID].AsString(); got != res.TransferID {
		t.Errorf("transfer.id = %q, want %q", got, res.TransferID)
	}
	if got := attrs[observability.AttrRecordsSent].AsInt64(); got != 2 {
		t.Errorf("transfer.records_sent = %d, want 2", got)
	}
	if got := attrs[observability.AttrStatus].AsString(); got != ingest.StatusAcknowledged {
		t.Errorf("transfer.status = %q", got)
	}
	if got := attrs[observability.AttrTarget].AsString(); got != "passthrough:///bufnet" {
		t.Errorf("transfer.target = %q", got)
	}
}
