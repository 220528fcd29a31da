package canmap

import (
	"io/fs"
	"path"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can/pkg/dbc"
)

const extendedIDFlag = 0x80000000

// LoadDBC builds a Registry from a DBC file.
//
// Intel (little-endian) signals map to the inverter convention, so the DBC
// factor is inverted into a divisor. Motorola (big-endian) signals map to the
// BMS convention and must be byte aligned. Signal comments become descriptions.
func LoadDBC(filesystem fs.FS, filename string) (*Registry, error) {
	data, err := fs.ReadFile(filesystem, filename)
	if err != nil {
		return nil, errors.Wrap(err, "read dbc file")
	}
	descs, err := ParseDBC(path.Base(filename), data)
	if err != nil {
		return nil, err
	}
	return New(descs...)
}

// ParseDBC converts the message definitions of a DBC source into descriptors.
func ParseDBC(name string, data []byte) ([]SignalDescriptor, error) {
	parser := dbc.NewParser(name, data)
	if err := parser.Parse(); err != nil {
		return nil, errors.Wrap(err, "parse dbc")
	}
	file := parser.File()

	type signalKey struct {
		id   uint32
		name string
	}
	comments := map[signalKey]string{}
	for _, def := range file.Defs {
		if c, ok := def.(*dbc.CommentDef); ok && c.ObjectType == dbc.ObjectTypeSignal {
			comments[signalKey{id: dbcMessageID(c.MessageID), name: string(c.SignalName)}] = c.Comment
		}
	}

	var out []SignalDescriptor
	for _, def := range file.Defs {
		m, ok := def.(*dbc.MessageDef)
		if !ok {
			continue
		}
		id := dbcMessageID(m.MessageID)
		if m.Size == 0 || m.Size > MaxFrameLength {
			return nil, errors.Newf("message %s (0x%X): unsupported size %d", m.Name, id, m.Size)
		}
		for _, s := range m.Signals {
			if s.IsMultiplexerSwitch || s.IsMultiplexed {
				return nil, errors.Newf("message %s signal %s: multiplexed signals are not supported", m.Name, s.Name)
			}
			d, err := dbcSignal(id, string(m.Name), uint8(m.Size), s)
			if err != nil {
				return nil, err
			}
			d.Description = comments[signalKey{id: id, name: d.Name}]
			out = append(out, d)
		}
	}
	return out, nil
}

func dbcSignal(id uint32, title string, size uint8, s dbc.SignalDef) (SignalDescriptor, error) {
	d := SignalDescriptor{
		MessageID:   id,
		Name:        string(s.Name),
		Title:       title,
		BitLength:   uint(s.Size),
		FrameLength: size,
		Min:         s.Minimum,
		Max:         s.Maximum,
		Offset:      s.Offset,
		Unsigned:    !s.IsSigned,
		Units:       s.Unit,
	}
	if s.Factor == 0 {
		return d, errors.Wrapf(ErrInvalidDescriptor, "0x%X %s: zero factor", id, d.Name)
	}
	// DBC files commonly leave both bounds at zero to mean "unbounded".
	if d.Min == 0 && d.Max == 0 {
		d.Min, d.Max = rawBounds(d.BitLength, s.IsSigned, s.Factor, s.Offset)
	}

	if s.IsBigEndian {
		// Motorola start bits name the most significant bit of the first byte.
		if s.StartBit%8 != 7 {
			return d, errors.Wrapf(ErrInvalidDescriptor, "0x%X %s: big-endian start bit %d is not byte aligned", id, d.Name, s.StartBit)
		}
		// Only 16 and 32 bit BMS fields carry a sign.
		if s.IsSigned && s.Size != 16 && s.Size != 32 {
			return d, errors.Wrapf(ErrInvalidDescriptor, "0x%X %s: signed big-endian field of %d bits", id, d.Name, s.Size)
		}
		d.BitStart = uint(s.StartBit/8) * 8
		d.Scale = s.Factor
		d.Subsystem = BMS
		return d, nil
	}
	d.BitStart = uint(s.StartBit)
	d.Scale = 1 / s.Factor
	d.Subsystem = Inverter
	return d, nil
}

// rawBounds returns the physical range covered by every raw value of the field.
func rawBounds(bitLength uint, signed bool, factor, offset float64) (float64, float64) {
	var lo, hi float64
	if signed {
		lo = -float64(uint64(1) << (bitLength - 1))
		hi = float64(uint64(1)<<(bitLength-1)) - 1
	} else {
		hi = float64(uint64(1)<<bitLength) - 1
	}
	lo, hi = lo*factor+offset, hi*factor+offset
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func dbcMessageID(id dbc.MessageID) uint32 {
	v := uint32(id)
	if v&extendedIDFlag != 0 {
		v &^= extendedIDFlag
	}
	return v
}
