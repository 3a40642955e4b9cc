package transfer

import (
	"bytes"
	"net"
	"sync"
	"testing"
	"time"

	"go-streamfeed-server/client"
)

type MockConn struct {
	writtenData [][]byte
	closed      bool
	err         error
}

func (m *MockConn) Write(data []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	// the sender reuses its buffer, so keep a copy
	m.writtenData = append(m.writtenData, append([]byte(nil), data...))
	return len(data), nil
}

func (m *MockConn) Read(b []byte) (int, error)         { return 0, nil }
func (m *MockConn) Close() error                       { m.closed = true; return nil }
func (m *MockConn) LocalAddr() net.Addr                { return nil }
func (m *MockConn) RemoteAddr() net.Addr               { return nil }
func (m *MockConn) SetDeadline(t time.Time) error      { return nil }
func (m *MockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *MockConn) SetWriteDeadline(t time.Time) error { return nil }

func (m *MockConn) allWritten() []byte {
	var all bytes.Buffer
	for _, data := range m.writtenData {
		all.Write(data)
	}
	return all.Bytes()
}

func runHandle(c *client.Client, filePath string, chunkSize int, linesCh <-chan []byte) {
	var wg sync.WaitGroup
	wg.Add(1)
	go Handle(&wg, c, filePath, chunkSize, linesCh)
	wg.Wait()
}

func TestHandle_SendsFileThenLines(t *testing.T) {
	filePath := createFile(t, "0123456789")

	linesCh := make(chan []byte, 1)
	linesCh <- []byte("hello\n")
	close(linesCh)

	mockConn := &MockConn{}
	c := &client.Client{Conn: mockConn, CancelCh: make(chan struct{})}

	runHandle(c, filePath, 4, linesCh)

	expected := "0123456789hello\n"
	if string(mockConn.allWritten()) != expected {
		t.Errorf("Expected %q, but got %q", expected, mockConn.allWritten())
	}

	lastWrite := mockConn.writtenData[len(mockConn.writtenData)-1]
	if string(lastWrite) != "hello\n" {
		t.Errorf("Expected the input line to be written after the file, but last write was %q", lastWrite)
	}

	if !mockConn.closed {
		t.Errorf("Expected the connection to be closed after the transfer")
	}
}

func TestHandle_MissingFile(t *testing.T) {
	linesCh := make(chan []byte)
	close(linesCh)

	mockConn := &MockConn{}
	c := &client.Client{Conn: mockConn, CancelCh: make(chan struct{})}

	runHandle(c, "does-not-exist.bin", 4096, linesCh)

	if len(mockConn.writtenData) != 0 {
		t.Errorf("Expected zero bytes written for a missing file, but got %d writes", len(mockConn.writtenData))
	}
	if !mockConn.closed {
		t.Errorf("Expected the connection to be closed for a missing file")
	}
}

func TestHandle_WriteError(t *testing.T) {
	filePath := createFile(t, "0123456789")

	linesCh := make(chan []byte)
	defer close(linesCh)

	mockConn := &MockConn{err: net.ErrClosed}
	c := &client.Client{Conn: mockConn, CancelCh: make(chan struct{})}

	runHandle(c, filePath, 4, linesCh)

	if len(mockConn.writtenData) != 0 {
		t.Errorf("Expected no recorded writes after a write error, but got %d", len(mockConn.writtenData))
	}
	if !mockConn.closed {
		t.Errorf("Expected the connection to be closed after a write error")
	}
}

func TestHandle_Cancel(t *testing.T) {
	filePath := createFile(t, "0123456789")

	// never fed, never closed: only cancellation can end the transfer
	linesCh := make(chan []byte)

	cancelCh := make(chan struct{})
	close(cancelCh)

	mockConn := &MockConn{}
	c := &client.Client{Conn: mockConn, CancelCh: cancelCh}

	done := make(chan struct{})
	go func() {
		runHandle(c, filePath, 4, linesCh)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected the transfer to end promptly after cancellation")
	}

	if !mockConn.closed {
		t.Errorf("Expected the connection to be closed after cancellation")
	}
}
