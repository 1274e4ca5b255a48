package server

import (
	"bytes"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/Brownie44l1/fileserver/internal/fserr"
	"github.com/Brownie44l1/fileserver/internal/response"
)

// How long to drain unread request bytes after the response is written.
// Closing with unread data makes the kernel send RST, which can destroy a
// response the client has not read yet.
const (
	lingerTimeout = 200 * time.Millisecond
	lingerMax     = 64 << 10
)

// serveConn answers exactly one request on conn and closes it.
func (s *Server) serveConn(conn net.Conn, h Handler) {
	defer s.conns.Done()

	s.metrics.ActiveConnections.Add(1)
	defer s.metrics.ActiveConnections.Add(-1)

	c := NewContext(s.nextID.Add(1), conn.RemoteAddr().String())
	s.Logger.Debug("connection accepted",
		Field{"client", c.RemoteAddr},
		Field{"request_id", c.RequestID()},
	)

	res := s.process(conn, c, h)

	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := res.WriteTo(conn); err != nil {
		s.Logger.Warn("write response",
			Field{"error", err},
			Field{"request_id", c.RequestID()},
			Field{"client", c.RemoteAddr},
		)
	}

	s.metrics.RecordRequest(int(res.StatusCode), c.Elapsed())
	closeConn(conn)
}

// process runs read, parse and handler. It never returns nil and never
// panics: any fault becomes a 500.
func (s *Server) process(conn net.Conn, c *Context, h Handler) (res *response.Response) {
	defer func() {
		if err := recover(); err != nil {
			s.metrics.PanicsRecovered.Add(1)
			s.Logger.Error("panic in connection pipeline",
				Field{"error", err},
				Field{"stack", string(debug.Stack())},
				Field{"request_id", c.RequestID()},
			)
			res = s.builder.Error(response.StatusInternalServerError)
		}
	}()

	buf := GetBuffer(s.cfg.ReadBufferSize)
	defer PutBuffer(buf)

	n, err := s.readRequestLine(conn, buf)
	if n == 0 {
		s.Logger.Debug("no request data",
			Field{"error", err},
			Field{"request_id", c.RequestID()},
			Field{"client", c.RemoteAddr},
		)
		return s.builder.Error(fserr.MalformedRequest.Status())
	}

	req, err := s.parser.Parse(buf[:n])
	if err != nil {
		return s.errorResponse(c, err)
	}
	c.Request = req

	res = h.ServeRequest(c)
	if res == nil {
		s.Logger.Error("handler returned no response",
			Field{"path", c.Path()},
			Field{"request_id", c.RequestID()},
		)
		return s.builder.Error(response.StatusInternalServerError)
	}
	return res
}

// readRequestLine fills buf until it holds a line terminator, is full, or
// the read fails. It returns how many bytes arrived.
func (s *Server) readRequestLine(conn net.Conn, buf []byte) (int, error) {
	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if bytes.IndexByte(buf[:total], '\n') != -1 {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Server) errorResponse(c *Context, err error) *response.Response {
	kind := fserr.Classify(err)
	s.Logger.Info("request rejected",
		Field{"error", err},
		Field{"status", int(kind.Status())},
		Field{"request_id", c.RequestID()},
		Field{"client", c.RemoteAddr},
	)
	return s.builder.Error(kind.Status())
}

// closeConn half-closes, drains what the client still sends, then closes.
func closeConn(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		if cw.CloseWrite() == nil {
			conn.SetReadDeadline(time.Now().Add(lingerTimeout))
			io.Copy(io.Discard, io.LimitReader(conn, lingerMax))
		}
	}
	conn.Close()
}
