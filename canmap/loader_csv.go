package canmap

import (
	"encoding/csv"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var requiredColumns = []string{
	"message_id", "name", "bit_start", "bit_length", "min", "max", "scale",
}

// LoadCSV builds a Registry from a CSV catalog. Columns are matched by header
// name; message_id, name, bit_start, bit_length, min, max and scale are
// required, title, frame_length, offset, unsigned, subsystem, units and
// description are optional.
//
// Numbers may use a comma as decimal separator as spreadsheet exports do.
// Padding rows (NOT_USED, RESERVED or "-" bounds) are skipped.
func LoadCSV(filesystem fs.FS, path string) (*Registry, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	descs, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return New(descs...)
}

// ReadCSV parses catalog rows from r without building a Registry.
func ReadCSV(r io.Reader) ([]SignalDescriptor, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalize(h)] = i
	}
	for _, k := range requiredColumns {
		if _, ok := idx[k]; !ok {
			return nil, errors.Newf("missing required column: %q", k)
		}
	}

	var out []SignalDescriptor
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := csvRow{rec: rec, idx: idx}
		if row.isPadding() {
			continue
		}
		d, err := row.descriptor()
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		out = append(out, d)
	}
	return out, nil
}

type csvRow struct {
	rec []string
	idx map[string]int
}

func (r csvRow) get(column string) string {
	i, ok := r.idx[column]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r csvRow) isPadding() bool {
	switch strings.ToUpper(r.get("name")) {
	case "NOT_USED", "RESERVED", "":
		return true
	}
	return r.get("min") == "-" || r.get("max") == "-"
}

func (r csvRow) descriptor() (SignalDescriptor, error) {
	id, err := parseHexOrDecUint32(r.get("message_id"))
	if err != nil {
		return SignalDescriptor{}, errors.Wrapf(err, "invalid message_id %q", r.get("message_id"))
	}

	d := SignalDescriptor{
		MessageID:   id,
		Name:        r.get("name"),
		Title:       r.get("title"),
		Units:       r.get("units"),
		Description: r.get("description"),
		FrameLength: MaxFrameLength,
		Scale:       1,
	}

	bitStart, err := parseUint(r.get("bit_start"))
	if err != nil {
		return d, errors.Wrapf(err, "invalid bit_start %q", r.get("bit_start"))
	}
	d.BitStart = bitStart
	bitLength, err := parseUint(r.get("bit_length"))
	if err != nil {
		return d, errors.Wrapf(err, "invalid bit_length %q", r.get("bit_length"))
	}
	d.BitLength = bitLength

	if s := r.get("frame_length"); s != "" {
		n, err := parseUint(s)
		if err != nil || n > MaxFrameLength {
			return d, errors.Newf("invalid frame_length %q", s)
		}
		d.FrameLength = uint8(n)
	}

	for _, f := range []struct {
		column   string
		dst      *float64
		optional bool
	}{
		{column: "min", dst: &d.Min},
		{column: "max", dst: &d.Max},
		{column: "scale", dst: &d.Scale},
		{column: "offset", dst: &d.Offset, optional: true},
	} {
		s := r.get(f.column)
		if s == "" && f.optional {
			continue
		}
		v, err := parseDecimal(s)
		if err != nil {
			return d, errors.Wrapf(err, "invalid %s %q", f.column, s)
		}
		*f.dst = v
	}

	d.Unsigned = parseBool(r.get("unsigned"))

	if s := r.get("subsystem"); s != "" {
		sub, err := ParseSubsystem(s)
		if err != nil {
			return d, err
		}
		d.Subsystem = sub
	} else {
		d.Subsystem = InferSubsystem(id)
	}
	return d, nil
}

func parseHexOrDecUint32(s string) (uint32, error) {
	ss := strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(ss, "0x") || strings.HasPrefix(ss, "0X") {
		base = 16
		ss = ss[2:]
	}
	u, err := strconv.ParseUint(ss, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}

func parseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	return uint(v), err
}

// parseDecimal accepts both "3276.7" and "3276,7". Inputs with both separators
// are rejected rather than guessed at.
func parseDecimal(s string) (float64, error) {
	ss := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if strings.Contains(ss, ",") {
		if strings.Contains(ss, ".") {
			return 0, errors.Newf("ambiguous decimal %q", s)
		}
		ss = strings.Replace(ss, ",", ".", 1)
	}
	return strconv.ParseFloat(ss, 64)
}

func parseBool(s string) bool {
	switch normalize(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func formatID(id uint32) string {
	return "0x" + strings.ToUpper(strconv.FormatUint(uint64(id), 16))
}
