// Package codec converts between raw CAN payloads and physical signal values.
//
// The codec is parametrized entirely by the SignalDescriptor passed in and
// never consults a registry. Two wire conventions are supported and kept as
// separate strategies:
//
//   - inverter: little-endian, arbitrary bit offset, two's complement, raw = physical * scale
//   - BMS: big-endian, whole bytes, physical = raw * scale
//
// Decoding clamps out of range telemetry to the descriptor bounds and never
// fails on range, so a corrupted payload cannot be detected from the decoded
// value. Encoding rejects values outside the bounds instead of clamping.
package codec

import (
	"math"

	"github.com/cockroachdb/errors"

	"bdr-canlib/canmap"
)

var (
	// ErrMismatchedID is returned when the frame ID differs from the descriptor's message ID.
	ErrMismatchedID = errors.New("frame id does not match signal message id")
	// ErrOutOfBounds is returned when the signal's bytes do not fit in the frame's declared length.
	ErrOutOfBounds = errors.New("signal exceeds frame length")
	// ErrOutOfRange is returned by encode for values outside [min, max] or the field's raw range.
	ErrOutOfRange = errors.New("value out of range")
)

// Decode extracts the physical value of d from f, clamped to [d.Min, d.Max].
func Decode(d canmap.SignalDescriptor, f RawFrame) (float64, error) {
	if err := checkFrame(d, f); err != nil {
		return 0, err
	}
	switch d.Subsystem {
	case canmap.BMS:
		return decodeBMS(d, f)
	default:
		return decodeInverter(d, f)
	}
}

// Encode writes value into the bits of f owned by d. Other bits of the payload
// are left untouched, and f is not modified at all when an error is returned.
func Encode(d canmap.SignalDescriptor, value float64, f *RawFrame) error {
	if f == nil {
		return errors.Wrapf(ErrOutOfBounds, "%s: nil frame", d.Name)
	}
	if err := checkFrame(d, *f); err != nil {
		return err
	}
	if math.IsNaN(value) || value < d.Min || value > d.Max {
		return errors.Wrapf(ErrOutOfRange, "%s: %g not in [%g, %g]", d.Name, value, d.Min, d.Max)
	}
	switch d.Subsystem {
	case canmap.BMS:
		return encodeBMS(d, value, f)
	default:
		return encodeInverter(d, value, f)
	}
}

func checkFrame(d canmap.SignalDescriptor, f RawFrame) error {
	if f.ID != d.MessageID {
		return errors.Wrapf(ErrMismatchedID, "%s: frame 0x%X, signal 0x%X", d.Name, f.ID, d.MessageID)
	}
	if f.Length > maxDataLen {
		return errors.Wrapf(ErrOutOfBounds, "%s: declared length %d", d.Name, f.Length)
	}
	return d.Validate()
}

func outOfBounds(d canmap.SignalDescriptor, firstByte, n uint, f RawFrame) error {
	return errors.Wrapf(ErrOutOfBounds, "%s: needs bytes %d..%d, frame has %d", d.Name, firstByte, firstByte+n-1, f.Length)
}
