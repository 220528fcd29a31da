package utils

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
)

// ReplayReader reads frames from a candump log. Each line holds one frame in
// ID#DATA notation, optionally preceded by a "(timestamp)" and an interface
// name as written by `candump -l`. Blank lines and lines starting with ';' are
// skipped.
type ReplayReader struct {
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
}

func NewReplayReader(r io.Reader) *ReplayReader {
	rr := &ReplayReader{scanner: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok {
		rr.closer = c
	}
	return rr
}

func OpenReplay(path string) (*ReplayReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReplayReader(f), nil
}

func (r *ReplayReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return can.Frame{}, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return can.Frame{}, err
			}
			return can.Frame{}, io.EOF
		}
		r.line++

		fields := strings.Fields(r.scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], ";") {
			continue
		}
		var frame can.Frame
		if err := frame.UnmarshalString(fields[len(fields)-1]); err != nil {
			return can.Frame{}, errors.Wrapf(err, "replay line %d", r.line)
		}
		return frame, nil
	}
}

func (r *ReplayReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
