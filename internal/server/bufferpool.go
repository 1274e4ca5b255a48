package server

import "sync"

// Read buffers for request lines. Sizes above the largest class are
// allocated per connection and left to the GC.
const (
	smallBufferSize = 1 << 10 // 1KB, the default read size
	largeBufferSize = 1 << 14 // 16KB
)

var (
	smallBuffers = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, smallBufferSize)
			return &buf
		},
	}
	largeBuffers = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, largeBufferSize)
			return &buf
		},
	}
)

// GetBuffer returns a buffer of exactly size bytes
func GetBuffer(size int) []byte {
	switch {
	case size <= smallBufferSize:
		buf := smallBuffers.Get().(*[]byte)
		return (*buf)[:size]
	case size <= largeBufferSize:
		buf := largeBuffers.Get().(*[]byte)
		return (*buf)[:size]
	default:
		return make([]byte, size)
	}
}

// PutBuffer returns a buffer obtained from GetBuffer to its pool
func PutBuffer(buf []byte) {
	switch cap(buf) {
	case smallBufferSize:
		full := buf[:smallBufferSize]
		smallBuffers.Put(&full)
	case largeBufferSize:
		full := buf[:largeBufferSize]
		largeBuffers.Put(&full)
	}
	// Else: buffer is non-standard size, let GC handle it
}
