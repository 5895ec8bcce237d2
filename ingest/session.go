package ingest

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/kbukum/crashstream/collision"
	"github.com/kbukum/crashstream/errors"
	grpccfg "github.com/kbukum/crashstream/grpc"
	"github.com/kbukum/crashstream/grpc/client"
)

var streamDesc = &grpc.StreamDesc{
	StreamName:    collision.MethodName,
	ClientStreams: true,
}

type collisionStream = grpc.ClientStreamingClient[dynamicpb.Message, emptypb.Empty]

// Session is one open StreamCollisions call together with the connection
// that carries it. A Session is owned by a single transfer and is not safe
// for concurrent use.
type Session struct {
	service string
	conn    *grpc.ClientConn
	stream  collisionStream
	cancel  context.CancelFunc
	sent    int
	closed  bool
}

// OpenSession creates a connection from factory and opens the client stream.
// connectTimeout bounds stream establishment only; zero waits as long as ctx
// allows. service names the remote side in errors.
func OpenSession(ctx context.Context, factory client.ConnectionFactory, connectTimeout time.Duration, service string) (*Session, error) {
	conn, err := factory.NewConn()
	if err != nil {
		return nil, errors.ConnectionFailed(service).WithCause(err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := client.OpenStreamWithTimeout(streamCtx, connectTimeout, func(ctx context.Context) (collisionStream, error) {
		cs, err := conn.NewStream(ctx, streamDesc, collision.FullMethodName)
		if err != nil {
			return nil, err
		}
		return &grpc.GenericClientStream[dynamicpb.Message, emptypb.Empty]{ClientStream: cs}, nil
	})
	if err != nil {
		cancel()
		_ = conn.Close()
		return nil, grpccfg.FromGRPC(err, service)
	}

	return &Session{service: service, conn: conn, stream: stream, cancel: cancel}, nil
}

// Send writes one record to the stream. A stream already terminated by the
// service reports the service's status rather than io.EOF.
func (s *Session) Send(rec collision.Record) error {
	if err := s.stream.Send(collision.Message(rec)); err != nil {
		if stderrors.Is(err, io.EOF) {
			if _, rerr := s.stream.CloseAndRecv(); rerr != nil {
				err = rerr
			} else {
				err = io.ErrUnexpectedEOF
			}
		}
		return grpccfg.FromGRPC(err, s.service)
	}
	s.sent++
	return nil
}

// CloseAndRecv signals end of input and waits for the acknowledgement.
func (s *Session) CloseAndRecv() error {
	if _, err := s.stream.CloseAndRecv(); err != nil {
		return grpccfg.FromGRPC(err, s.service)
	}
	return nil
}

// Sent returns how many records were handed to the transport.
func (s *Session) Sent() int { return s.sent }

// Close cancels the call if it is still open and closes the connection.
// It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	return s.conn.Close()
}
