package codec

import (
	"sort"

	"github.com/cockroachdb/errors"

	"bdr-canlib/canmap"
)

// DecodeMessage decodes every descriptor in descs from f, keyed by signal name.
func DecodeMessage(descs []canmap.SignalDescriptor, f RawFrame) (map[string]float64, error) {
	out := make(map[string]float64, len(descs))
	for _, d := range descs {
		v, err := Decode(d, f)
		if err != nil {
			return nil, err
		}
		out[d.Name] = v
	}
	return out, nil
}

// EncodeMessage builds a zero-filled frame for message id with the declared
// length of its descriptors and encodes values into it. Signals without a value
// stay zero. Value names that match no descriptor are rejected.
func EncodeMessage(id uint32, descs []canmap.SignalDescriptor, values map[string]float64) (RawFrame, error) {
	if len(descs) == 0 {
		return RawFrame{}, errors.Wrapf(canmap.ErrUnknownMessageID, "0x%X", id)
	}

	known := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		known[d.Name] = struct{}{}
	}
	var unknown []string
	for name := range values {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return RawFrame{}, errors.Wrapf(canmap.ErrUnknownSignal, "0x%X: %v", id, unknown)
	}

	f := RawFrame{ID: id, Length: descs[0].FrameLength}
	for _, d := range descs {
		v, ok := values[d.Name]
		if !ok {
			continue
		}
		if err := Encode(d, v, &f); err != nil {
			return RawFrame{}, err
		}
	}
	return f, nil
}
