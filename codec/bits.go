package codec

import (
	"math"

	"github.com/cockroachdb/errors"

	"bdr-canlib/canmap"
)

func fieldMask(bitLength uint) uint64 {
	return (uint64(1) << bitLength) - 1
}

// signExtend reads the low bitLength bits of u as a two's complement number.
func signExtend(u uint64, bitLength uint) int64 {
	mask := fieldMask(bitLength)
	u &= mask
	if u&(uint64(1)<<(bitLength-1)) != 0 {
		u |= ^mask
	}
	return int64(u)
}

// rawLimits returns the integer range a field of bitLength bits can carry.
func rawLimits(bitLength uint, signed bool) (int64, int64) {
	if signed {
		return -int64(1) << (bitLength - 1), int64(1)<<(bitLength-1) - 1
	}
	return 0, int64(fieldMask(bitLength))
}

// toRaw rounds the unscaled value to the nearest integer and checks that it
// fits the field.
func toRaw(d canmap.SignalDescriptor, unscaled float64, signed bool) (int64, error) {
	r := math.Round(unscaled)
	lo, hi := rawLimits(d.BitLength, signed)
	if math.IsNaN(r) || r < float64(lo) || r > float64(hi) {
		return 0, errors.Wrapf(ErrOutOfRange, "%s: raw value %g does not fit %d bits", d.Name, r, d.BitLength)
	}
	return int64(r), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
