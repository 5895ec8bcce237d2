package interceptor

import (
	"context"
	"errors"
	"io"
	"path"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/kbukum/crashstream/logger"
)

// StreamClientLoggingInterceptor returns a stream client interceptor that logs
// stream establishment and, for client-streaming calls, the number of
// messages sent and the final outcome once the response is received.
func StreamClientLoggingInterceptor(log *logger.Logger) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		start := time.Now()
		service := path.Dir(method)[1:]
		methodName := path.Base(method)

		log.Debug("gRPC stream started", map[string]interface{}{
			"service":        service,
			"method":         methodName,
			"target":         cc.Target(),
			"client_streams": desc.ClientStreams,
			"server_streams": desc.ServerStreams,
		})

		stream, err := streamer(ctx, desc, cc, method, opts...)
		if err != nil {
			st := status.Convert(err)
			log.Error("gRPC stream failed", map[string]interface{}{
				"service":     service,
				"method":      methodName,
				"target":      cc.Target(),
				"duration_ms": time.Since(start).Milliseconds(),
				"status":      st.Code().String(),
				"error":       st.Message(),
			})
			return nil, err
		}

		return &loggingStream{
			ClientStream: stream,
			log:          log,
			service:      service,
			method:       methodName,
			start:        start,
		}, nil
	}
}

// loggingStream counts sent messages and logs once when the stream ends.
type loggingStream struct {
	grpc.ClientStream
	log     *logger.Logger
	service string
	method  string
	start   time.Time

	sent int64
	once sync.Once
}

func (s *loggingStream) SendMsg(m any) error {
	err := s.ClientStream.SendMsg(m)
	if err == nil {
		s.sent++
	}
	return err
}

func (s *loggingStream) RecvMsg(m any) error {
	err := s.ClientStream.RecvMsg(m)
	s.finish(err)
	return err
}

func (s *loggingStream) finish(err error) {
	s.once.Do(func() {
		fields := map[string]interface{}{
			"service":       s.service,
			"method":        s.method,
			"duration_ms":   time.Since(s.start).Milliseconds(),
			"messages_sent": s.sent,
		}
		if err != nil && !errors.Is(err, io.EOF) {
			st := status.Convert(err)
			fields["status"] = st.Code().String()
			fields["error"] = st.Message()
			s.log.Error("gRPC stream failed", fields)
			return
		}
		fields["status"] = "OK"
		s.log.Debug("gRPC stream completed", fields)
	})
}
