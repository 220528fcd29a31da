package utils

import (
	"context"
	"net"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// CANReader delivers received frames. ReadFrame returns io.EOF when the source
// is exhausted.
type CANReader interface {
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

type CANWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

type SocketCANWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, errors.Wrap(err, "socketcan dial")
	}
	return &SocketCANWriter{
		conn: conn,
		tx:   socketcan.NewTransmitter(conn),
	}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// DiscardWriter accepts and drops every frame. Used when commands are only
// encoded and logged, e.g. while replaying a capture.
type DiscardWriter struct{}

func (DiscardWriter) WriteFrame(context.Context, can.Frame) error { return nil }
func (DiscardWriter) Close() error                               { return nil }
