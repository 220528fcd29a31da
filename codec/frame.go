package codec

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
)

const (
	maxDataLen = 8
	maxStdID   = 0x7FF
)

// RawFrame is one CAN payload with its arbitration ID. Length is the declared
// payload length; bytes past it are ignored.
type RawFrame struct {
	ID     uint32
	Length uint8
	Data   [maxDataLen]byte
}

// NewFrame copies data into a frame. Payloads longer than 8 bytes are rejected.
func NewFrame(id uint32, data []byte) (RawFrame, error) {
	if len(data) > maxDataLen {
		return RawFrame{}, errors.Wrapf(ErrOutOfBounds, "payload of %d bytes", len(data))
	}
	f := RawFrame{ID: id, Length: uint8(len(data))}
	copy(f.Data[:], data)
	return f, nil
}

// MustFrame is like NewFrame but panics on error.
func MustFrame(id uint32, data ...byte) RawFrame {
	f, err := NewFrame(id, data)
	if err != nil {
		panic(err)
	}
	return f
}

// Payload returns the declared part of Data.
func (f RawFrame) Payload() []byte {
	n := f.Length
	if n > maxDataLen {
		n = maxDataLen
	}
	return f.Data[:n]
}

// String formats the frame like "24 [8] 00 FF ...".
func (f RawFrame) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%X [%d]", f.ID, f.Length)
	for _, b := range f.Payload() {
		fmt.Fprintf(&sb, " %02X", b)
	}
	return sb.String()
}

// ToCAN converts f to the frame type used by the SocketCAN transport. IDs above
// the 11 bit range are sent as extended frames.
func ToCAN(f RawFrame) can.Frame {
	return can.Frame{
		ID:         f.ID,
		Length:     f.Length,
		Data:       can.Data(f.Data),
		IsExtended: f.ID > maxStdID,
	}
}

// FromCAN converts a received frame.
func FromCAN(cf can.Frame) RawFrame {
	return RawFrame{
		ID:     cf.ID,
		Length: cf.Length,
		Data:   [maxDataLen]byte(cf.Data),
	}
}
