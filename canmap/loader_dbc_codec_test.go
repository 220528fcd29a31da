package canmap_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdr-canlib/canmap"
	"bdr-canlib/codec"
)

const bmsDBC = `VERSION ""

BO_ 2147545098 PackCurrent: 2 BMS
 SG_ pack_current : 7|16@0- (0.1,0) [-3276.8|3276.7] "A" Vector__XXX

BO_ 2147545146 PackCycles: 4 BMS
 SG_ pack_cycles : 7|32@0+ (1,0) [0|0] "#" Vector__XXX

BO_ 33 GeneralData2: 8 INV
 SG_ ac_current : 0|16@1- (0.1,0) [-3276.8|3276.7] "Apk" Vector__XXX
`

func TestLoadDBC_decodesFrames(t *testing.T) {
	fsys := fstest.MapFS{"bms.dbc": &fstest.MapFile{Data: []byte(bmsDBC)}}
	reg, err := canmap.LoadDBC(fsys, "bms.dbc")
	require.NoError(t, err)

	var testCases = []struct {
		name   string
		id     uint32
		signal string
		given  codec.RawFrame
		expect float64
	}{
		{
			name:   "bms byte order",
			id:     0xF00A,
			signal: "pack_current",
			given:  codec.MustFrame(0xF00A, 0x01, 0x02),
			expect: 25.8,
		},
		{
			name:   "bms negative",
			id:     0xF00A,
			signal: "pack_current",
			given:  codec.MustFrame(0xF00A, 0xFF, 0x9C),
			expect: -10,
		},
		{
			name:   "bms unsigned 32 bit",
			id:     0xF03A,
			signal: "pack_cycles",
			given:  codec.MustFrame(0xF03A, 0x80, 0x00, 0x00, 0x01),
			expect: 2147483649,
		},
		{
			name:   "inverter",
			id:     0x21,
			signal: "ac_current",
			given:  codec.MustFrame(0x21, 0x18, 0xFC, 0, 0, 0, 0, 0, 0),
			expect: -100,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := reg.Find(tc.id, tc.signal)
			require.NoError(t, err)

			v, err := codec.Decode(d, tc.given)
			require.NoError(t, err)
			assert.InDelta(t, tc.expect, v, 1e-9)

			f := codec.RawFrame{ID: tc.id, Length: tc.given.Length}
			require.NoError(t, codec.Encode(d, tc.expect, &f))
			assert.Equal(t, tc.given.Payload(), f.Payload())
		})
	}
}
