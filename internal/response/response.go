package response

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Brownie44l1/fileserver/internal/headers"
)

// DefaultServerName is sent in the Server header when a Builder has no name.
const DefaultServerName = "fileserver"

// Response is a complete response message. Build it with a Builder so the
// framing headers always agree with the body.
type Response struct {
	StatusCode StatusCode
	Headers    *headers.Headers
	Body       []byte
}

// Builder assembles responses with the fixed header set every response carries.
type Builder struct {
	ServerName string
}

// Build returns a response with headers in this order: Server, Connection,
// then Content-Length and Content-Type when body is non-empty, then extra.
// Extra headers cannot override the framing headers.
func (b Builder) Build(code StatusCode, body []byte, contentType string, extra *headers.Headers) *Response {
	name := b.ServerName
	if name == "" {
		name = DefaultServerName
	}

	h := headers.NewHeaders()
	h.Set("Server", name)
	h.Set("Connection", "close")

	if len(body) > 0 {
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Length", strconv.Itoa(len(body)))
		h.Set("Content-Type", contentType)
	}

	if extra != nil {
		for key, value := range extra.All() {
			if isFramingHeader(key) {
				continue
			}
			h.Set(key, value)
		}
	}

	return &Response{
		StatusCode: code,
		Headers:    h,
		Body:       body,
	}
}

// Error builds a response with the fixed error body for code.
func (b Builder) Error(code StatusCode) *Response {
	return b.Build(code, ErrorBody(code), "text/html", nil)
}

// ErrorBody is the fixed human-readable body sent with an error status.
func ErrorBody(code StatusCode) []byte {
	return []byte(fmt.Sprintf("<h1>%d %s</h1>", code, StatusText(code)))
}

// WriteTo serializes the response and flushes it to w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	rw := NewWriter(w)
	if err := rw.WriteStatusLine(r.StatusCode); err != nil {
		return rw.Written(), err
	}
	if err := rw.WriteHeaders(r.Headers); err != nil {
		return rw.Written(), err
	}
	if err := rw.WriteBody(r.Body); err != nil {
		return rw.Written(), err
	}
	err := rw.Flush()
	return rw.Written(), err
}

// Bytes returns the serialized response.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	r.WriteTo(&buf)
	return buf.Bytes()
}

func isFramingHeader(key string) bool {
	switch strings.ToLower(key) {
	case "content-length", "connection":
		return true
	}
	return false
}
