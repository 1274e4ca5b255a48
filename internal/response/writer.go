package response

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Brownie44l1/fileserver/internal/headers"
)

// writerState tracks what's been written so far
type writerState int

const (
	stateStart writerState = iota
	stateStatusWritten
	stateHeadersWritten
	stateBodyWritten
)

// Writer serializes one response. Output is buffered and only reaches the
// underlying writer on Flush (or when the buffer fills during a large body).
type Writer struct {
	w          *bufio.Writer
	state      writerState
	statusCode StatusCode
	written    int64
	hadError   bool
}

// NewWriter creates a new response writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:     bufio.NewWriter(w),
		state: stateStart,
	}
}

// WriteStatusLine writes the HTTP status line
func (w *Writer) WriteStatusLine(code StatusCode) error {
	if w.state != stateStart {
		return fmt.Errorf("status line already written")
	}

	if err := w.write(fmt.Sprintf("HTTP/1.1 %d %s\r\n", code, StatusText(code))); err != nil {
		return err
	}

	w.statusCode = code
	w.state = stateStatusWritten
	return nil
}

// WriteHeaders writes all headers in order, then the blank line
func (w *Writer) WriteHeaders(h *headers.Headers) error {
	if w.state != stateStatusWritten {
		return fmt.Errorf("must write status line before headers")
	}

	if h != nil {
		for name, value := range h.All() {
			if err := w.write(name + ": " + value + "\r\n"); err != nil {
				return err
			}
		}
	}

	if err := w.write("\r\n"); err != nil {
		return err
	}

	w.state = stateHeadersWritten
	return nil
}

// WriteBody writes the complete response body
func (w *Writer) WriteBody(data []byte) error {
	if w.state != stateHeadersWritten {
		return fmt.Errorf("must write headers before body")
	}

	if len(data) > 0 {
		n, err := w.w.Write(data)
		w.written += int64(n)
		if err != nil {
			w.hadError = true
			return err
		}
	}

	w.state = stateBodyWritten
	return nil
}

// Flush pushes buffered output to the underlying writer
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		w.hadError = true
		return err
	}
	return nil
}

func (w *Writer) write(s string) error {
	n, err := w.w.WriteString(s)
	w.written += int64(n)
	if err != nil {
		w.hadError = true
	}
	return err
}

func (w *Writer) HadError() bool {
	return w.hadError
}

func (w *Writer) StatusCode() StatusCode {
	return w.statusCode
}

// Written returns the number of bytes accepted so far
func (w *Writer) Written() int64 {
	return w.written
}
