package server

import (
	"runtime/debug"

	"github.com/Brownie44l1/fileserver/internal/response"
)

// Handler produces the response for a parsed request. Implementations must
// not retain the Context after returning.
type Handler interface {
	ServeRequest(c *Context) *response.Response
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(c *Context) *response.Response

func (f HandlerFunc) ServeRequest(c *Context) *response.Response {
	return f(c)
}

// Middleware wraps a Handler
type Middleware func(next Handler) Handler

// chain applies middleware so the first one given is the outermost.
func chain(h Handler, mws []Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// LoggingMiddleware logs every handled request
func LoggingMiddleware(logger Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Context) *response.Response {
			res := next.ServeRequest(c)

			status := 0
			if res != nil {
				status = int(res.StatusCode)
			}
			logger.Info("request handled",
				Field{"method", c.Method()},
				Field{"path", c.Path()},
				Field{"status", status},
				Field{"duration_ms", c.Elapsed().Milliseconds()},
				Field{"request_id", c.RequestID()},
				Field{"client", c.RemoteAddr},
			)
			return res
		})
	}
}

// RecoveryMiddleware turns a handler panic into a 500 response
func RecoveryMiddleware(logger Logger, b response.Builder, metrics *Metrics) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Context) (res *response.Response) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						Field{"error", err},
						Field{"stack", string(debug.Stack())},
						Field{"request_id", c.RequestID()},
						Field{"path", c.Path()},
					)
					if metrics != nil {
						metrics.PanicsRecovered.Add(1)
					}
					res = b.Error(response.StatusInternalServerError)
				}
			}()

			return next.ServeRequest(c)
		})
	}
}
