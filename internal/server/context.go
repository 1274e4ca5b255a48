package server

import (
	"strconv"
	"time"

	"github.com/Brownie44l1/fileserver/internal/request"
)

// Context carries one accepted connection through the pipeline. It is owned
// by a single worker and discarded once the response is sent.
type Context struct {
	ID         uint64
	RemoteAddr string
	Start      time.Time
	Request    *request.Request // nil until the request line parses
}

// NewContext creates a new context
func NewContext(id uint64, remoteAddr string) *Context {
	return &Context{
		ID:         id,
		RemoteAddr: remoteAddr,
		Start:      time.Now(),
	}
}

// RequestID returns a short identifier for log correlation
func (c *Context) RequestID() string {
	return strconv.FormatUint(c.ID, 36)
}

// Method returns the request method, or "" before parsing
func (c *Context) Method() string {
	if c.Request == nil {
		return ""
	}
	return c.Request.Method
}

// Path returns the decoded request path, or "" before parsing
func (c *Context) Path() string {
	if c.Request == nil {
		return ""
	}
	return c.Request.Path
}

// Elapsed returns the time since the connection was accepted
func (c *Context) Elapsed() time.Duration {
	return time.Since(c.Start)
}
