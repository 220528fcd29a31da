package utils

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

type received struct {
	frame can.Frame
	err   error
}

// SocketCANReader reads frames from a SocketCAN interface. A single goroutine
// owns the receiver; ReadFrame only waits on its channel.
type SocketCANReader struct {
	conn net.Conn
	recv *socketcan.Receiver

	once      sync.Once
	closeOnce sync.Once
	frames    chan received
	done      chan struct{}
}

func NewSocketCANReader(ctx context.Context, iface string) (*SocketCANReader, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, errors.Wrap(err, "socketcan dial")
	}
	return newSocketCANReader(conn, 64), nil
}

func newSocketCANReader(conn net.Conn, buffer int) *SocketCANReader {
	return &SocketCANReader{
		conn:   conn,
		recv:   socketcan.NewReceiver(conn),
		frames: make(chan received, buffer),
		done:   make(chan struct{}),
	}
}

func (r *SocketCANReader) receiveLoop() {
	defer close(r.frames)
	for r.recv.Receive() {
		if r.recv.HasErrorFrame() {
			continue
		}
		if !r.send(received{frame: r.recv.Frame()}) {
			return
		}
	}
	err := r.recv.Err()
	if err == nil {
		err = io.EOF
	}
	r.send(received{err: err})
}

// send hands rx to ReadFrame. It gives up once the reader is closed.
func (r *SocketCANReader) send(rx received) bool {
	select {
	case r.frames <- rx:
		return true
	case <-r.done:
		return false
	}
}

// ReadFrame blocks until a frame arrives or ctx is done.
func (r *SocketCANReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	r.once.Do(func() { go r.receiveLoop() })

	select {
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case rx, ok := <-r.frames:
		if !ok {
			return can.Frame{}, io.EOF
		}
		return rx.frame, rx.err
	}
}

// Close closes the socket, which also ends the receive goroutine.
func (r *SocketCANReader) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
