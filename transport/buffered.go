package transport

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	readChunk  = 512 // a multiple of every USB bulk packet size
	closeGrace = 100 * time.Millisecond
)

// Buffered turns a blocking port into a Transport. A background goroutine
// keeps reading the port into memory; Read and Buffered only look at that
// memory.
type Buffered struct {
	port io.ReadWriteCloser

	mu     sync.Mutex
	buf    bytes.Buffer
	err    error // first receive error, sticky
	closed bool

	writeMu sync.Mutex
	done    chan struct{}
}

// NewBuffered starts reading port in the background.
// The port should return from Read periodically, for example through a
// read timeout, so that Close does not wait for the next byte.
func NewBuffered(port io.ReadWriteCloser) *Buffered {
	b := &Buffered{
		port: port,
		done: make(chan struct{}),
	}
	go b.readLoop()
	return b
}

func (b *Buffered) readLoop() {
	defer close(b.done)
	chunk := make([]byte, readChunk)
	for {
		n, err := b.port.Read(chunk)

		b.mu.Lock()
		if n > 0 {
			b.buf.Write(chunk[:n])
		}
		if err != nil && b.err == nil && !b.closed {
			b.err = err
		}
		stop := b.closed || b.err != nil
		b.mu.Unlock()

		if stop {
			return
		}
	}
}

// Buffered returns the number of received bytes not yet read, along with
// the receive error once the reader has stopped. Those bytes stay readable.
func (b *Buffered) Buffered() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	n := b.buf.Len()
	if b.err != nil {
		return n, fmt.Errorf("failed to read from port: %w", b.err)
	}
	return n, nil
}

// Read copies already received bytes into p without waiting for more
func (b *Buffered) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if b.buf.Len() == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, nil
	}
	return b.buf.Read(p)
}

// Write sends p to the port. A partial write is reported as ErrShortWrite.
func (b *Buffered) Write(p []byte) (int, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	n, err := b.port.Write(p)
	if err != nil {
		return n, err
	}
	if n != len(p) {
		return n, ErrShortWrite
	}
	return n, nil
}

// Close stops the reader and closes the port. A reader stuck in a port
// without read timeout is released by closing the port after closeGrace.
func (b *Buffered) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	select {
	case <-b.done:
	case <-time.After(closeGrace):
	}
	err := b.port.Close()
	<-b.done
	return err
}
