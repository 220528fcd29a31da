package codec

import (
	"bdr-canlib/canmap"
)

// Inverter fields are little-endian and may start at any bit. Multi-bit fields
// are two's complement unless the descriptor is marked unsigned. The wire
// carries the physical value multiplied by scale, e.g. 123.4 A at scale 10 is
// sent as 1234.

func inverterSigned(d canmap.SignalDescriptor) bool {
	return !d.Unsigned && d.BitLength > 1
}

// inverterSpan returns the first byte, the bit offset inside it and the number
// of bytes the field touches.
func inverterSpan(d canmap.SignalDescriptor) (byteIndex, bitOffset, bytesNeeded uint) {
	byteIndex = d.BitStart / 8
	bitOffset = d.BitStart % 8
	bytesNeeded = (d.BitLength + bitOffset + 7) / 8
	return byteIndex, bitOffset, bytesNeeded
}

func readLittleEndian(f RawFrame, byteIndex, n uint) uint64 {
	var acc uint64
	for i := uint(0); i < n; i++ {
		acc |= uint64(f.Data[byteIndex+i]) << (8 * i)
	}
	return acc
}

func decodeInverter(d canmap.SignalDescriptor, f RawFrame) (float64, error) {
	byteIndex, bitOffset, bytesNeeded := inverterSpan(d)
	if byteIndex+bytesNeeded > uint(f.Length) {
		return 0, outOfBounds(d, byteIndex, bytesNeeded, f)
	}

	field := (readLittleEndian(f, byteIndex, bytesNeeded) >> bitOffset) & fieldMask(d.BitLength)

	var raw int64
	if inverterSigned(d) {
		raw = signExtend(field, d.BitLength)
	} else {
		raw = int64(field)
	}
	return clamp(float64(raw)/d.Scale+d.Offset, d.Min, d.Max), nil
}

func encodeInverter(d canmap.SignalDescriptor, value float64, f *RawFrame) error {
	byteIndex, bitOffset, bytesNeeded := inverterSpan(d)
	if byteIndex+bytesNeeded > uint(f.Length) {
		return outOfBounds(d, byteIndex, bytesNeeded, *f)
	}
	raw, err := toRaw(d, (value-d.Offset)*d.Scale, inverterSigned(d))
	if err != nil {
		return err
	}

	mask := fieldMask(d.BitLength)
	acc := readLittleEndian(*f, byteIndex, bytesNeeded)
	acc &^= mask << bitOffset
	acc |= (uint64(raw) & mask) << bitOffset

	for i := uint(0); i < bytesNeeded; i++ {
		f.Data[byteIndex+i] = byte(acc >> (8 * i))
	}
	return nil
}
