// Package transport provides the byte streams used to talk to the LED
// controller: a buffered wrapper giving a non-blocking "bytes available"
// query over serial ports and USB bulk endpoints.
package transport

import (
	"errors"
	"io"
)

var (
	ErrClosed     = errors.New("transport closed")
	ErrShortWrite = errors.New("failed to write all bytes to transport")
)

// Transport is a duplex byte stream with a non-blocking availability query.
// Read never blocks: it returns at most Buffered bytes.
type Transport interface {
	io.ReadWriteCloser

	// Buffered returns the number of bytes that can be read without blocking.
	// Once receiving has failed, the error is returned with the count of
	// bytes received before it, which stay readable.
	Buffered() (int, error)
}
