package canmap

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogCSV = `title,message_id,name,bytes,bit_start,bit_length,min,max,scale,units,description
Set AC Current,0x01,ac_current,0-1,0,16,"-3276,8","3276,7",10,Apk,Target motor AC current
,0x01,NOT_USED,2-7,16,48,-,-,-,-,Fill with FFs
general data 5,0x24,digital_input_1,2,16,1,0,1,1,#,input active
,0x24,reserved,6,48,8,-,-,-,-,Filled with FFs
`

func TestLoadCSV(t *testing.T) {
	fsys := fstest.MapFS{
		"catalog.csv": &fstest.MapFile{Data: []byte(testCatalogCSV)},
	}

	r, err := LoadCSV(fsys, "catalog.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	d, err := r.Find(0x01, "ac_current")
	require.NoError(t, err)
	assert.Equal(t, SignalDescriptor{
		MessageID:   0x01,
		Name:        "ac_current",
		Title:       "Set AC Current",
		BitStart:    0,
		BitLength:   16,
		FrameLength: 8,
		Min:         -3276.8,
		Max:         3276.7,
		Scale:       10,
		Subsystem:   Inverter,
		Units:       "Apk",
		Description: "Target motor AC current",
	}, d)

	d, err = r.Find(0x24, "digital_input_1")
	require.NoError(t, err)
	assert.Equal(t, uint(16), d.BitStart)
	assert.Equal(t, uint(1), d.BitLength)
}

func TestReadCSV_optionalColumns(t *testing.T) {
	given := `message_id,name,bit_start,bit_length,frame_length,min,max,scale,offset,unsigned,subsystem
0x10,odd_pid,0,16,2,-3276.7,3276.8,0.1,-3276.7,yes,bms
`
	descs, err := ReadCSV(strings.NewReader(given))
	require.NoError(t, err)
	require.Len(t, descs, 1)

	d := descs[0]
	assert.Equal(t, BMS, d.Subsystem) // explicit column wins over the ID range
	assert.Equal(t, uint8(2), d.FrameLength)
	assert.Equal(t, -3276.7, d.Offset)
	assert.Equal(t, 0.1, d.Scale)
	assert.True(t, d.Unsigned)
}

func TestReadCSV_errors(t *testing.T) {
	var testCases = []struct {
		name        string
		given       string
		expectError string
	}{
		{
			name:        "missing column",
			given:       "message_id,name,bit_start,bit_length,min,max\n",
			expectError: `missing required column: "scale"`,
		},
		{
			name:        "bad id",
			given:       "message_id,name,bit_start,bit_length,min,max,scale\nxyz,a,0,8,0,1,1\n",
			expectError: `line 2: invalid message_id "xyz": strconv.ParseUint: parsing "xyz": invalid syntax`,
		},
		{
			name:        "ambiguous decimal",
			given:       "message_id,name,bit_start,bit_length,min,max,scale\n0x01,a,0,8,0,\"1.000,5\",1\n",
			expectError: `line 2: invalid max "1.000,5": ambiguous decimal "1.000,5"`,
		},
		{
			name:        "unknown subsystem",
			given:       "message_id,name,bit_start,bit_length,min,max,scale,subsystem\n0x01,a,0,8,0,1,1,vcu\n",
			expectError: `line 2: unknown subsystem "vcu"`,
		},
		{
			name:        "empty input",
			given:       "",
			expectError: "read header: EOF",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.given))
			assert.EqualError(t, err, tc.expectError)
		})
	}
}

func TestLoadCSV_validatesDescriptors(t *testing.T) {
	fsys := fstest.MapFS{
		"catalog.csv": &fstest.MapFile{Data: []byte("message_id,name,bit_start,bit_length,min,max,scale\n0x01,a,60,8,0,1,1\n")},
	}

	_, err := LoadCSV(fsys, "catalog.csv")
	assert.EqualError(t, err, "0x1 a: bits 60..67 do not fit in 8 bytes: invalid signal descriptor")
}

func TestParseDecimal(t *testing.T) {
	var testCases = []struct {
		given  string
		expect float64
	}{
		{given: "3276.7", expect: 3276.7},
		{given: "-3276,8", expect: -3276.8},
		{given: "- 3276,8", expect: -3276.8},
		{given: "10", expect: 10},
	}
	for _, tc := range testCases {
		t.Run(tc.given, func(t *testing.T) {
			v, err := parseDecimal(tc.given)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, v)
		})
	}
}

const testDBC = `VERSION ""

NS_ :

BS_:

BU_: INV BMS

BO_ 33 GeneralData2: 8 INV
 SG_ ac_current : 0|16@1- (0.1,0) [-3276.8|3276.7] "Apk" Vector__XXX
 SG_ dc_current : 16|16@1- (0.1,0) [-3276.8|3276.7] "A" Vector__XXX
 SG_ fault_code : 32|8@1+ (1,0) [0|0] "#" Vector__XXX

BO_ 2147545098 PackCurrent: 2 BMS
 SG_ pack_current : 7|16@0- (0.1,0) [-3276.8|3276.7] "A" Vector__XXX

CM_ SG_ 33 ac_current "Motor current.";
`

func TestLoadDBC(t *testing.T) {
	fsys := fstest.MapFS{
		"vehicle.dbc": &fstest.MapFile{Data: []byte(testDBC)},
	}

	r, err := LoadDBC(fsys, "vehicle.dbc")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x21, 0xF00A}, r.MessageIDs())

	ac, err := r.Find(0x21, "ac_current")
	require.NoError(t, err)
	assert.Equal(t, Inverter, ac.Subsystem)
	assert.Equal(t, "GeneralData2", ac.Title)
	assert.Equal(t, "Motor current.", ac.Description)
	assert.InDelta(t, 10, ac.Scale, 1e-9)
	assert.False(t, ac.Unsigned)
	assert.Equal(t, -3276.8, ac.Min)

	fault, err := r.Find(0x21, "fault_code")
	require.NoError(t, err)
	assert.True(t, fault.Unsigned)
	assert.Equal(t, uint(32), fault.BitStart)
	assert.Equal(t, 0.0, fault.Min)
	assert.Equal(t, 255.0, fault.Max)

	pack, err := r.Find(0xF00A, "pack_current")
	require.NoError(t, err)
	assert.Equal(t, BMS, pack.Subsystem)
	assert.Equal(t, uint(0), pack.BitStart)
	assert.Equal(t, uint8(2), pack.FrameLength)
	assert.Equal(t, 0.1, pack.Scale)
}

func TestParseDBC_rejectsUnalignedMotorola(t *testing.T) {
	given := `VERSION ""

BO_ 2147545098 PackCurrent: 2 BMS
 SG_ pack_current : 11|12@0- (0.1,0) [0|0] "A" Vector__XXX
`
	_, err := ParseDBC("bad.dbc", []byte(given))
	assert.EqualError(t, err, "0xF00A pack_current: big-endian start bit 11 is not byte aligned: invalid signal descriptor")
}

func TestParseDBC_rejectsSignedMotorolaByte(t *testing.T) {
	given := `VERSION ""

BO_ 2147545128 PackTemperature: 1 BMS
 SG_ pack_temperature : 7|8@0- (1,0) [-40|100] "C" Vector__XXX
`
	_, err := ParseDBC("bad.dbc", []byte(given))
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.EqualError(t, err, "0xF028 pack_temperature: signed big-endian field of 8 bits: invalid signal descriptor")
}

func TestParseDBC_unsignedMotorolaByte(t *testing.T) {
	given := `VERSION ""

BO_ 2147545103 PackSoc: 1 BMS
 SG_ pack_soc : 7|8@0+ (0.5,0) [0|100] "%" Vector__XXX
`
	descs, err := ParseDBC("soc.dbc", []byte(given))
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, uint32(0xF00F), descs[0].MessageID)
	assert.True(t, descs[0].Unsigned)
	assert.Equal(t, BMS, descs[0].Subsystem)
}
