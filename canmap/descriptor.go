package canmap

import (
	"math"

	"github.com/cockroachdb/errors"
)

// Subsystem selects the wire convention of a signal: byte order, sign extension
// and scale direction.
type Subsystem uint8

const (
	SubsystemUnknown Subsystem = iota
	// Inverter payloads are little-endian; raw = physical * scale.
	Inverter
	// BMS payloads are big-endian and byte aligned; physical = raw * scale.
	BMS
)

func (s Subsystem) String() string {
	switch s {
	case Inverter:
		return "inverter"
	case BMS:
		return "bms"
	default:
		return "unknown"
	}
}

// ParseSubsystem accepts the names produced by Subsystem.String, case-insensitive.
func ParseSubsystem(s string) (Subsystem, error) {
	switch normalize(s) {
	case "inverter", "inv":
		return Inverter, nil
	case "bms":
		return BMS, nil
	}
	return SubsystemUnknown, errors.Newf("unknown subsystem %q", s)
}

// InferSubsystem is the ID range shortcut used by the vehicle tables: IDs
// 0x01..0xFF belong to the inverter and IDs from 0xF000 up are BMS PIDs.
// Loaders use it only when a row does not name its subsystem.
func InferSubsystem(id uint32) Subsystem {
	switch {
	case id >= 0x01 && id <= 0xFF:
		return Inverter
	case id >= 0xF000:
		return BMS
	default:
		return SubsystemUnknown
	}
}

// MaxFrameLength is the payload size of a classical CAN frame.
const MaxFrameLength = 8

// SignalDescriptor describes one field of one message.
type SignalDescriptor struct {
	MessageID uint32
	Name      string
	// Title is the human readable name of the owning message.
	Title string

	// BitStart is the offset of the field's least significant bit from bit 0 of byte 0.
	BitStart  uint
	BitLength uint
	// FrameLength is the declared payload length of the owning message in bytes.
	FrameLength uint8

	Min    float64
	Max    float64
	Scale  float64
	Offset float64 // added after scaling on decode

	// Unsigned disables the sign extension the subsystem applies by default.
	Unsigned bool

	Subsystem   Subsystem
	Units       string
	Description string
}

// BitEnd returns the bit index one past the field's last bit.
func (d SignalDescriptor) BitEnd() uint {
	return d.BitStart + d.BitLength
}

// Validate reports descriptor construction errors. Descriptors that pass can be
// decoded from and encoded into any frame of at least FrameLength bytes.
func (d SignalDescriptor) Validate() error {
	if d.BitLength == 0 || d.BitLength > 32 {
		return d.invalid("bit length %d outside 1..32", d.BitLength)
	}
	if d.FrameLength == 0 || d.FrameLength > MaxFrameLength {
		return d.invalid("frame length %d outside 1..%d", d.FrameLength, MaxFrameLength)
	}
	if d.BitEnd() > uint(d.FrameLength)*8 {
		return d.invalid("bits %d..%d do not fit in %d bytes", d.BitStart, d.BitEnd()-1, d.FrameLength)
	}
	if math.IsNaN(d.Min) || math.IsNaN(d.Max) {
		return d.invalid("NaN bound")
	}
	if d.Min > d.Max {
		return d.invalid("min %g greater than max %g", d.Min, d.Max)
	}
	if d.Scale == 0 || math.IsNaN(d.Scale) || math.IsInf(d.Scale, 0) {
		return d.invalid("scale %g must be finite and nonzero", d.Scale)
	}
	if math.IsNaN(d.Offset) || math.IsInf(d.Offset, 0) {
		return d.invalid("offset %g must be finite", d.Offset)
	}
	switch d.Subsystem {
	case Inverter:
	case BMS:
		if d.BitStart%8 != 0 || d.BitLength%8 != 0 {
			return d.invalid("bms fields must be byte aligned (bit start %d, length %d)", d.BitStart, d.BitLength)
		}
	default:
		return d.invalid("subsystem not set")
	}
	return nil
}

func (d SignalDescriptor) invalid(format string, args ...interface{}) error {
	args = append([]interface{}{d.MessageID, d.Name}, args...)
	return errors.Wrapf(ErrInvalidDescriptor, "0x%X %s: "+format, args...)
}

// Classify returns the subsystem stored on the descriptor.
func Classify(d SignalDescriptor) Subsystem {
	return d.Subsystem
}
