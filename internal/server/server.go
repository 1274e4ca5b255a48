package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Brownie44l1/fileserver/internal/request"
	"github.com/Brownie44l1/fileserver/internal/response"
)

// ErrServerClosed is returned by Serve after Close or Shutdown.
var ErrServerClosed = errors.New("server closed")

// Config controls the listener, the worker pool and the request pipeline.
type Config struct {
	Host    string
	Port    int
	Backlog int // pending connections; exact on linux

	// MaxWorkers caps concurrent connections. Zero means one goroutine per
	// connection with no cap. QueueSize is how many accepted connections may
	// wait for a worker before the accept loop blocks.
	MaxWorkers int
	QueueSize  int

	ReadBufferSize int
	ReadTimeout    time.Duration // 0 = wait forever
	WriteTimeout   time.Duration // 0 = wait forever

	ServerName       string
	DefaultDocument  string
	NormalizeUnicode bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            9000,
		Backlog:         5,
		MaxWorkers:      64,
		QueueSize:       128,
		ReadBufferSize:  1024,
		ServerName:      response.DefaultServerName,
		DefaultDocument: request.DefaultDocument,
	}
}

// Addr returns host:port
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type Server struct {
	cfg        Config
	handler    Handler
	middleware []Middleware
	parser     request.Parser
	builder    response.Builder
	metrics    *Metrics

	Logger Logger

	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool
	nextID   atomic.Uint64
	serving  sync.WaitGroup
	conns    sync.WaitGroup
}

func New(cfg Config, handler Handler) *Server {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultConfig().ReadBufferSize
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = DefaultConfig().Backlog
	}

	return &Server{
		cfg:     cfg,
		handler: handler,
		parser: request.Parser{
			DefaultDocument:  cfg.DefaultDocument,
			NormalizeUnicode: cfg.NormalizeUnicode,
		},
		builder: response.Builder{ServerName: cfg.ServerName},
		metrics: NewMetrics(),
		Logger:  NewDefaultLogger(),
	}
}

// Use adds middleware around the handler. The first added runs outermost.
// Must be called before Serve.
func (s *Server) Use(mws ...Middleware) {
	s.middleware = append(s.middleware, mws...)
}

// Builder returns the response builder the server uses for its own responses.
func (s *Server) Builder() response.Builder {
	return s.builder
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) Stats() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Listen binds the configured IPv4 address.
func (s *Server) Listen() (net.Listener, error) {
	return listen(s.cfg)
}

// ListenAndServe binds the configured address and serves until closed.
func (s *Server) ListenAndServe() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Close. It always returns a non-nil
// error; after Close or Shutdown it is ErrServerClosed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.serving.Add(1)
	s.mu.Unlock()
	defer s.serving.Done()

	h := chain(s.handler, s.middleware)

	var queue chan net.Conn
	if s.cfg.MaxWorkers > 0 {
		queue = make(chan net.Conn, s.cfg.QueueSize)
		for i := 0; i < s.cfg.MaxWorkers; i++ {
			go s.worker(queue, h)
		}
		// workers finish whatever is still queued, then exit
		defer close(queue)
	}

	s.Logger.Info("server listening",
		Field{"addr", ln.Addr().String()},
		Field{"workers", s.cfg.MaxWorkers},
		Field{"queue", s.cfg.QueueSize},
	)

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > time.Second {
				delay = time.Second
			}
			s.Logger.Warn("accept failed", Field{"error", err}, Field{"retry_in", delay})
			time.Sleep(delay)
			continue
		}
		delay = 0

		s.conns.Add(1)
		s.dispatch(conn, queue, h)
	}
}

func (s *Server) dispatch(conn net.Conn, queue chan net.Conn, h Handler) {
	if queue == nil {
		go s.serveConn(conn, h)
		return
	}

	s.metrics.QueueDepth.Add(1)
	select {
	case queue <- conn:
	default:
		s.metrics.QueueSaturated.Add(1)
		s.Logger.Warn("worker queue full, accept loop waiting",
			Field{"workers", s.cfg.MaxWorkers},
			Field{"queue", s.cfg.QueueSize},
			Field{"active", s.metrics.ActiveConnections.Load()},
		)
		queue <- conn
	}
}

func (s *Server) worker(queue <-chan net.Conn, h Handler) {
	for conn := range queue {
		s.metrics.QueueDepth.Add(-1)
		s.serveConn(conn, h)
	}
}

// Close stops accepting and closes the listener. Connections already
// accepted are still answered.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed.Store(true)
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Shutdown closes the server and waits for in-flight connections until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.serving.Wait()
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
