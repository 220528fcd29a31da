package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"bdr-canlib/canmap"
	"bdr-canlib/utils"
)

type recordingWriter struct {
	frames []can.Frame
}

func (w *recordingWriter) WriteFrame(_ context.Context, f can.Frame) error {
	w.frames = append(w.frames, f)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

const capture = `(1700000000.000100) can0 021#18FC0000
(1700000000.000200) can0 123#DEAD
(1700000000.000300) can0 0000F00A#FF9C
`

func TestRunner_replay(t *testing.T) {
	var buf bytes.Buffer
	log := utils.NewLogger(&buf, utils.DEBUG)

	r := newRunner(canmap.Default(), Script{}, utils.NewReplayReader(strings.NewReader(capture)), utils.DiscardWriter{}, log)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, Stats{Frames: 3, Decoded: 2, Unknown: 1}, r.Stats())

	out := buf.String()
	assert.Contains(t, out, "[INFO] RX 0x21 general data 2: ac_current=-100 Apk, dc_current=0 A")
	assert.Contains(t, out, "[DEBUG] RX 0x123: unknown message id")
	assert.Contains(t, out, "pack_current=-10 A")
	assert.Contains(t, out, "Completed RX. frames=3 decoded=2 unknown=1 errors=0")
}

func TestRunner_shortFrameIsReported(t *testing.T) {
	var buf bytes.Buffer
	log := utils.NewLogger(&buf, utils.INFO)

	r := newRunner(canmap.Default(), Script{}, utils.NewReplayReader(strings.NewReader("021#18FC\n")), utils.DiscardWriter{}, log)
	require.NoError(t, r.Run(context.Background()))

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.Decoded)
	assert.Equal(t, uint64(1), stats.Errors)
	assert.Contains(t, buf.String(), "Decode 0x21 dc_current failed")
}

func TestRunner_sendsScript(t *testing.T) {
	var buf bytes.Buffer
	log := utils.NewLogger(&buf, utils.INFO)
	w := &recordingWriter{}

	script := Script{
		Name: "enable",
		Commands: []Command{
			{MessageID: "0x0C", Values: map[string]float64{"drive_enable": 1}},
			{MessageID: "0x01", Values: map[string]float64{"ac_current": -100}},
		},
	}
	r := newRunner(canmap.Default(), script, utils.NewReplayReader(strings.NewReader("")), w, log)
	require.NoError(t, r.Run(context.Background()))

	require.Len(t, w.frames, 2)
	assert.Equal(t, uint32(0x0C), w.frames[0].ID)
	assert.Equal(t, uint8(8), w.frames[0].Length)
	assert.Equal(t, can.Data{0x01}, w.frames[0].Data)
	assert.Equal(t, can.Data{0x18, 0xFC}, w.frames[1].Data)
	assert.Equal(t, uint64(2), r.Stats().Sent)
	assert.Contains(t, buf.String(), "TX ")
}

func TestRunner_scriptOutOfRange(t *testing.T) {
	log := utils.NewLogger(&bytes.Buffer{}, utils.INFO)
	w := &recordingWriter{}

	script := Script{Commands: []Command{{MessageID: "0x0C", Values: map[string]float64{"drive_enable": 2}}}}
	r := newRunner(canmap.Default(), script, utils.NewReplayReader(strings.NewReader("")), w, log)

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "command 0")
	assert.Empty(t, w.frames)
}

func TestRunner_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := utils.NewLogger(&bytes.Buffer{}, utils.INFO)
	r := newRunner(canmap.Default(), Script{}, utils.NewReplayReader(strings.NewReader(capture)), utils.DiscardWriter{}, log)
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(`{
		"name": "enable drive",
		"commands": [
			{"message_id": "0x0C", "values": {"drive_enable": 1}},
			{"message_id": "5", "values": {"set_relative_current": 12.5}}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "enable drive", s.Name)
	require.Len(t, s.Commands, 2)

	id, err := s.Commands[1].ID()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), id)
}

func TestParseScript_errors(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
		want  string
	}{
		{name: "json", input: `{`, want: "parse json"},
		{name: "id", input: `{"commands":[{"message_id":"zz","values":{"a":1}}]}`, want: `command 0: invalid message_id "zz"`},
		{name: "values", input: `{"commands":[{"message_id":"0x01"}]}`, want: "command 0: no values"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	reg, err := loadCatalog("")
	require.NoError(t, err)
	assert.Same(t, canmap.Default(), reg)

	dir := t.TempDir()
	path := filepath.Join(dir, "map.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"message_id,name,bit_start,bit_length,min,max,scale,subsystem\n"+
			"0x21,ac_current,0,16,-3276.8,3276.7,10,inverter\n"), 0o644))

	reg, err = loadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	_, err = loadCatalog(filepath.Join(dir, "map.json"))
	assert.ErrorContains(t, err, "unsupported catalog format")
}
