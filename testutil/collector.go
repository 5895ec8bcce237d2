package testutil

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/kbukum/crashstream/collision"
	"github.com/kbukum/crashstream/component"
	grpccfg "github.com/kbukum/crashstream/grpc"
	"github.com/kbukum/crashstream/grpc/client"
	"github.com/kbukum/crashstream/logger"
)

const bufSize = 1 << 20

// ReceiveHook runs for every received record before it is stored. n is the
// 1-based position of the record within its stream. A non-nil error aborts
// the stream with that error and the record is not stored.
type ReceiveHook func(ctx context.Context, n int, rec collision.Record) error

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithReceiveHook installs a hook called for every received record.
func WithReceiveHook(h ReceiveHook) CollectorOption {
	return func(c *Collector) { c.hook = h }
}

// FailAfter aborts each stream with code once n records have been stored.
func FailAfter(n int, code codes.Code) CollectorOption {
	return WithReceiveHook(func(_ context.Context, i int, _ collision.Record) error {
		if i > n {
			return status.Errorf(code, "collector: failing after %d records", n)
		}
		return nil
	})
}

// Collector is an in-memory mini2.EntryPointService. It records every
// CollisionData it receives and answers each completed stream with Empty.
type Collector struct {
	hook ReceiveHook

	mu      sync.Mutex
	records []collision.Record
	streams int
	acks    int
	lis     *bufconn.Listener
	srv     *grpc.Server
	serveCh chan error
}

var _ component.Component = (*Collector)(nil)

// NewCollector creates a stopped Collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements component.Component.
func (c *Collector) Name() string { return "collector" }

// Start begins serving on a fresh in-memory listener.
func (c *Collector) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.srv != nil {
		return errors.New("collector: already started")
	}

	c.lis = bufconn.Listen(bufSize)
	c.srv = grpc.NewServer()
	c.srv.RegisterService(c.serviceDesc(), c)
	c.serveCh = make(chan error, 1)

	srv, lis, ch := c.srv, c.lis, c.serveCh
	go func() { ch <- srv.Serve(lis) }()
	return nil
}

// Stop shuts the server down and closes open streams.
func (c *Collector) Stop(_ context.Context) error {
	c.mu.Lock()
	srv, ch := c.srv, c.serveCh
	c.srv, c.serveCh = nil, nil
	c.mu.Unlock()
	if srv == nil {
		return nil
	}

	srv.Stop()
	if err := <-ch; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Health implements component.Component.
func (c *Collector) Health(_ context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.srv == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset forgets every received record and stream.
func (c *Collector) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.streams = 0
	c.acks = 0
	return nil
}

// Records returns the received records in arrival order.
func (c *Collector) Records() []collision.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]collision.Record(nil), c.records...)
}

// Streams returns how many streams have been opened.
func (c *Collector) Streams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams
}

// Acks returns how many streams were completed and acknowledged.
func (c *Collector) Acks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acks
}

// DialOption routes connections to the in-memory listener.
func (c *Collector) DialOption() grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		c.mu.Lock()
		lis := c.lis
		c.mu.Unlock()
		if lis == nil {
			return nil, errors.New("collector: not started")
		}
		return lis.DialContext(ctx)
	})
}

// Config returns a connection config addressing the collector.
func (c *Collector) Config() grpccfg.Config {
	return grpccfg.Config{Name: c.Name(), Target: "passthrough:///bufnet"}
}

// Factory returns a connection factory that dials the collector through the
// regular client setup.
func (c *Collector) Factory(log *logger.Logger) *client.DefaultConnectionFactory {
	return client.NewDefaultConnectionFactory(c.Config(), log, c.DialOption())
}

func (c *Collector) serviceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: collision.ServiceName,
		HandlerType: (*interface{})(nil),
		Streams: []grpc.StreamDesc{{
			StreamName:    collision.MethodName,
			Handler:       c.streamCollisions,
			ClientStreams: true,
		}},
		Metadata: "mini2.proto",
	}
}

func (c *Collector) streamCollisions(_ any, stream grpc.ServerStream) error {
	c.mu.Lock()
	c.streams++
	c.mu.Unlock()

	for n := 1; ; n++ {
		msg := collision.NewMessage()
		err := stream.RecvMsg(msg)
		if err == io.EOF {
			c.mu.Lock()
			c.acks++
			c.mu.Unlock()
			return stream.SendMsg(&emptypb.Empty{})
		}
		if err != nil {
			return err
		}

		rec, err := collision.FromMessage(msg)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		if c.hook != nil {
			if err := c.hook(stream.Context(), n, rec); err != nil {
				return err
			}
		}

		c.mu.Lock()
		c.records = append(c.records, rec)
		c.mu.Unlock()
	}
}
