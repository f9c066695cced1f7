package transport

import (
	"bytes"
	"io"
	"sync"
)

// LoopbackPath names the in-process echo device accepted in place of a port
const LoopbackPath = "loop://"

// MockTransport implements Transport for testing. Reads are served from
// ReadBuffer; writes are recorded and, with Echo set, looped back the way the
// controller firmware echoes every frame.
type MockTransport struct {
	mu sync.Mutex

	// ReadBuffer holds data returned by Read
	ReadBuffer bytes.Buffer

	// Writes records every successful Write call
	Writes [][]byte

	// Echo copies written bytes into ReadBuffer
	Echo bool

	// BufferedError, ReadError and WriteError are returned once by the next call
	BufferedError error
	ReadError     error
	WriteError    error

	// ShortWrite makes the next Write accept one byte less than offered
	ShortWrite bool

	Closed bool
}

// NewMockTransport creates an empty MockTransport
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Buffered() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, ErrClosed
	}
	if err := m.BufferedError; err != nil {
		m.BufferedError = nil
		return m.ReadBuffer.Len(), err
	}
	return m.ReadBuffer.Len(), nil
}

func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, ErrClosed
	}
	if err := m.ReadError; err != nil {
		m.ReadError = nil
		return 0, err
	}
	if m.ReadBuffer.Len() == 0 {
		return 0, nil
	}
	return m.ReadBuffer.Read(p)
}

func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, ErrClosed
	}
	if err := m.WriteError; err != nil {
		m.WriteError = nil
		return 0, err
	}
	if m.ShortWrite && len(p) > 0 {
		m.ShortWrite = false
		return len(p) - 1, ErrShortWrite
	}
	m.Writes = append(m.Writes, bytes.Clone(p))
	if m.Echo {
		m.ReadBuffer.Write(p)
	}
	return len(p), nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Closed = true
	return nil
}

// AddReadData queues data for subsequent Read calls
func (m *MockTransport) AddReadData(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadBuffer.Write(data)
}

// WriteCount returns the number of successful writes
func (m *MockTransport) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Writes)
}

// Written returns a copy of everything written so far
func (m *MockTransport) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return bytes.Join(m.Writes, nil)
}

// loopbackPort is a blocking port that returns everything written to it
type loopbackPort struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    bytes.Buffer
	closed bool
}

// NewLoopback returns a Transport backed by an in-process echo device
func NewLoopback() *Buffered {
	p := &loopbackPort{}
	p.cond = sync.NewCond(&p.mu)
	return NewBuffered(p)
}

func (p *loopbackPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.buf.Len() == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.buf.Len() == 0 {
		return 0, io.EOF
	}
	return p.buf.Read(b)
}

func (p *loopbackPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}
	p.buf.Write(b)
	p.cond.Broadcast()
	return len(b), nil
}

func (p *loopbackPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.cond.Broadcast()
	return nil
}
