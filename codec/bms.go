package codec

import (
	"bdr-canlib/canmap"
)

// BMS fields are whole bytes, most significant byte first. Only 16 bit fields
// are sign extended; 32 bit fields are read as int32 since they fill the
// accumulator, every other width is unsigned. Scale multiplies the raw value.

func bmsSpan(d canmap.SignalDescriptor) (byteIndex, byteLength uint) {
	return d.BitStart / 8, d.BitLength / 8
}

func bmsSigned(d canmap.SignalDescriptor) bool {
	if d.Unsigned {
		return false
	}
	_, n := bmsSpan(d)
	return n == 2 || n == 4
}

func decodeBMS(d canmap.SignalDescriptor, f RawFrame) (float64, error) {
	byteIndex, byteLength := bmsSpan(d)
	if byteIndex+byteLength > uint(f.Length) {
		return 0, outOfBounds(d, byteIndex, byteLength, f)
	}

	var acc uint32
	for i := uint(0); i < byteLength; i++ {
		acc = acc<<8 | uint32(f.Data[byteIndex+i])
	}

	var raw int64
	switch {
	case !bmsSigned(d):
		raw = int64(acc)
	case byteLength == 2:
		raw = int64(int16(acc))
	default:
		raw = int64(int32(acc))
	}
	return clamp(float64(raw)*d.Scale+d.Offset, d.Min, d.Max), nil
}

func encodeBMS(d canmap.SignalDescriptor, value float64, f *RawFrame) error {
	byteIndex, byteLength := bmsSpan(d)
	if byteIndex+byteLength > uint(f.Length) {
		return outOfBounds(d, byteIndex, byteLength, *f)
	}
	raw, err := toRaw(d, (value-d.Offset)/d.Scale, bmsSigned(d))
	if err != nil {
		return err
	}

	u := uint32(raw)
	for i := byteLength; i > 0; i-- {
		f.Data[byteIndex+i-1] = byte(u)
		u >>= 8
	}
	return nil
}
