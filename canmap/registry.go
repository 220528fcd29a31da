package canmap

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnknownMessageID means no descriptor is registered for a message ID.
	// It is never a fault: frames with unknown IDs have no known interpretation.
	ErrUnknownMessageID = errors.New("unknown message id")
	ErrUnknownSignal    = errors.New("unknown signal")
	// ErrInvalidDescriptor is returned when a descriptor fails construction checks.
	ErrInvalidDescriptor = errors.New("invalid signal descriptor")
	ErrDuplicateSignal   = errors.New("duplicate signal")
)

// Registry is an immutable catalog of signal descriptors grouped by message ID.
// It is safe for concurrent use once returned by New.
type Registry struct {
	byID map[uint32][]SignalDescriptor
	ids  []uint32
	size int
}

// New validates descs and builds a Registry from them. Within a message the
// descriptors are ordered by bit start. A (message ID, name) pair may appear
// only once.
func New(descs ...SignalDescriptor) (*Registry, error) {
	r := &Registry{
		byID: make(map[uint32][]SignalDescriptor),
	}
	seen := make(map[uint32]map[string]struct{})

	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		names, ok := seen[d.MessageID]
		if !ok {
			names = map[string]struct{}{}
			seen[d.MessageID] = names
			r.ids = append(r.ids, d.MessageID)
		}
		if _, dup := names[d.Name]; dup {
			return nil, errors.Wrapf(ErrDuplicateSignal, "0x%X %s", d.MessageID, d.Name)
		}
		names[d.Name] = struct{}{}

		if group := r.byID[d.MessageID]; len(group) > 0 && group[0].FrameLength != d.FrameLength {
			return nil, errors.Wrapf(ErrInvalidDescriptor, "0x%X %s: frame length %d disagrees with %d declared by %s",
				d.MessageID, d.Name, d.FrameLength, group[0].FrameLength, group[0].Name)
		}
		r.byID[d.MessageID] = append(r.byID[d.MessageID], d)
		r.size++
	}

	for _, group := range r.byID {
		sort.SliceStable(group, func(i, j int) bool { return group[i].BitStart < group[j].BitStart })
	}
	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })

	return r, nil
}

// MustNew is like New but panics on error. Intended for static tables.
func MustNew(descs ...SignalDescriptor) *Registry {
	r, err := New(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns a copy of the descriptors registered for id. Unknown IDs yield
// an empty result.
func (r *Registry) Lookup(id uint32) []SignalDescriptor {
	group, ok := r.byID[id]
	if !ok {
		return nil
	}
	out := make([]SignalDescriptor, len(group))
	copy(out, group)
	return out
}

// Classify returns the subsystem stored on d. The registry does not guess from the ID.
func (r *Registry) Classify(d SignalDescriptor) Subsystem {
	return Classify(d)
}

// Find returns the descriptor called name within message id.
func (r *Registry) Find(id uint32, name string) (SignalDescriptor, error) {
	group, ok := r.byID[id]
	if !ok {
		return SignalDescriptor{}, errors.Wrapf(ErrUnknownMessageID, "0x%X", id)
	}
	for _, d := range group {
		if d.Name == name {
			return d, nil
		}
	}
	return SignalDescriptor{}, errors.Wrapf(ErrUnknownSignal, "0x%X has no signal %q", id, name)
}

// FindByName searches every message for a signal called name. Names shared by
// more than one message are ambiguous and rejected.
func (r *Registry) FindByName(name string) (SignalDescriptor, error) {
	var (
		found SignalDescriptor
		hits  []string
	)
	for _, id := range r.ids {
		for _, d := range r.byID[id] {
			if d.Name == name {
				found = d
				hits = append(hits, formatID(id))
			}
		}
	}
	switch len(hits) {
	case 0:
		return SignalDescriptor{}, errors.Wrapf(ErrUnknownSignal, "%q", name)
	case 1:
		return found, nil
	default:
		return SignalDescriptor{}, errors.Newf("signal %q is ambiguous, defined by %s", name, strings.Join(hits, ", "))
	}
}

// MessageIDs returns every registered message ID in ascending order.
func (r *Registry) MessageIDs() []uint32 {
	out := make([]uint32, len(r.ids))
	copy(out, r.ids)
	return out
}

// Len returns the number of descriptors in the registry.
func (r *Registry) Len() int {
	return r.size
}

// All returns every descriptor ordered by message ID then bit start.
func (r *Registry) All() []SignalDescriptor {
	out := make([]SignalDescriptor, 0, r.size)
	for _, id := range r.ids {
		out = append(out, r.byID[id]...)
	}
	return out
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	descs := make([]SignalDescriptor, 0, len(inverterSignals)+len(bmsSignals))
	descs = append(descs, inverterSignals...)
	descs = append(descs, bmsSignals...)
	return MustNew(descs...)
})

// Default returns the built-in catalog of inverter and BMS signals. It is built
// on first use and shared by every caller afterwards.
func Default() *Registry {
	return defaultRegistry()
}
