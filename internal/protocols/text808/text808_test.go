package text808

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/pawtrace/pet-receiver/internal/errors"
	"github.com/pawtrace/pet-receiver/internal/types"
)

func TestDetect(t *testing.T) {
	p := NewProtocol()
	assert.True(t, p.Detect([]byte("*ID,DEV01,BP00#")))
	assert.False(t, p.Detect([]byte{0x7e, 0x00}))
	assert.False(t, p.Detect(nil))
}

func TestExtractMessages(t *testing.T) {
	p := NewProtocol()

	messages, rest := p.ExtractMessages([]byte("*ID,A,BP00#*ID,B,BP00#*ID,C"))
	require.Len(t, messages, 2)
	assert.Equal(t, "*ID,A,BP00#", string(messages[0]))
	assert.Equal(t, "*ID,B,BP00#", string(messages[1]))
	assert.Equal(t, "*ID,C", string(rest), "unterminated message stays buffered")

	messages, rest = p.ExtractMessages([]byte("garbage*ID,A,BP00#"))
	require.Len(t, messages, 1)
	assert.Empty(t, rest)
}

func TestParseHeartbeat(t *testing.T) {
	p := NewProtocol()
	msg, err := p.Parse([]byte("*ID,DEV01,BP00#"))

	require.NoError(t, err)
	assert.Equal(t, "DEV01", msg.Identifier)
	assert.Equal(t, types.TextCmd_Heartbeat, msg.RawCommand)
	assert.Nil(t, msg.Location)
}

func TestParseIMEIPrefixStripped(t *testing.T) {
	p := NewProtocol()
	msg, err := p.Parse([]byte("*ID,IMEI:123456789012345,BP02,20250413120000,DEV01,37.774900,-122.419400,10.0,0.0,90.0,99.0#"))

	require.NoError(t, err)
	assert.Equal(t, "123456789012345", msg.Identifier)
	require.NotNil(t, msg.Location)
	assert.True(t, msg.Location.Valid)
	assert.InDelta(t, 37.7749, msg.Location.Latitude, 1e-9)
	assert.InDelta(t, -122.4194, msg.Location.Longitude, 1e-9)
	assert.Equal(t, time.Date(2025, 4, 13, 12, 0, 0, 0, time.UTC), msg.Location.Timestamp)
	require.NotNil(t, msg.Location.BatteryLevel)
	assert.InDelta(t, 99.0, *msg.Location.BatteryLevel, 1e-9)
}

func TestParseHQMarker(t *testing.T) {
	p := NewProtocol()
	msg, err := p.Parse([]byte("*HQ,9988776655,BP00#"))

	require.NoError(t, err)
	assert.Equal(t, "9988776655", msg.Identifier)
}

func TestParseStandardGPSFormat(t *testing.T) {
	testCases := []struct {
		name    string
		message string
		lat     float64
		lon     float64
		valid   bool
	}{
		{"north-east", "*ID,DEV01,BP02,A,22.5431,N,114.0579,E,4.5,180.0#", 22.5431, 114.0579, true},
		{"south-west", "*ID,DEV01,BP02,A,33.8688,S,71.2744,W,0.0,0.0#", -33.8688, -71.2744, true},
		{"invalid fix", "*ID,DEV01,BP02,V,22.5431,N,114.0579,E,0.0,0.0#", 22.5431, 114.0579, false},
	}

	p := NewProtocol()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := p.Parse([]byte(tc.message))
			require.NoError(t, err)
			require.NotNil(t, msg.Location)
			assert.Equal(t, tc.valid, msg.Location.Valid)
			assert.InDelta(t, tc.lat, msg.Location.Latitude, 1e-9)
			assert.InDelta(t, tc.lon, msg.Location.Longitude, 1e-9)
		})
	}
}

func TestParseKeyValueGPSFormat(t *testing.T) {
	p := NewProtocol()
	msg, err := p.Parse([]byte("*ID,DEV01,GPS,lat:12.3456,long:98.7654,speed:3.5#"))

	require.NoError(t, err)
	require.NotNil(t, msg.Location)
	assert.True(t, msg.Location.Valid)
	assert.InDelta(t, 12.3456, msg.Location.Latitude, 1e-9)
	assert.InDelta(t, 98.7654, msg.Location.Longitude, 1e-9)
	assert.InDelta(t, 3.5, msg.Location.Speed, 1e-9)
	assert.Zero(t, msg.Location.Heading)
}

func TestParseUnrecognizedGPSFormat(t *testing.T) {
	p := NewProtocol()
	msg, err := p.Parse([]byte("*ID,DEV01,BP02,something,unparseable#"))

	require.NoError(t, err, "message with device id stays valid")
	assert.Equal(t, "DEV01", msg.Identifier)
	assert.Nil(t, msg.Location)
}

func TestParseCoordinateOutOfRange(t *testing.T) {
	p := NewProtocol()
	_, err := p.Parse([]byte("*ID,DEV01,BP02,20250413120000,DEV01,95.000000,-122.419400,10.0,0.0,90.0,99.0#"))
	assert.ErrorIs(t, err, errs.ErrCoordinateOutOfRange)

	_, err = p.Parse([]byte("*ID,DEV01,BP02,20250413120000,DEV01,37.774900,-222.419400,10.0,0.0,90.0,99.0#"))
	assert.ErrorIs(t, err, errs.ErrCoordinateOutOfRange)
}

func TestParseBatteryToken(t *testing.T) {
	p := NewProtocol()
	msg, err := p.Parse([]byte("*ID,DEV01,BP03,BAT:75%#"))

	require.NoError(t, err)
	require.NotNil(t, msg.Status)
	require.NotNil(t, msg.Status.BatteryLevel)
	assert.InDelta(t, 75.0, *msg.Status.BatteryLevel, 1e-9)
}

func TestParseRejectsUnframedMessage(t *testing.T) {
	p := NewProtocol()

	_, err := p.Parse([]byte("ID,DEV01,BP00#"))
	assert.ErrorIs(t, err, errs.ErrBadMessageFormat)

	_, err = p.Parse([]byte("*ID,DEV01,BP00"))
	assert.ErrorIs(t, err, errs.ErrBadMessageFormat)

	_, err = p.Parse([]byte("*XX,DEV01,BP00#"))
	assert.ErrorIs(t, err, errs.ErrBadMessageFormat)
}

func TestRespond(t *testing.T) {
	p := NewProtocol()
	ack, err := p.Respond(&types.DecodedMessage{Identifier: "DEV01"})

	require.NoError(t, err)
	assert.Equal(t, "*ID,DEV01,ACK,OK#", string(ack))
}

func TestMatcherOrderFirstWins(t *testing.T) {
	// A message matching both the standard and key-value layouts must take
	// the standard one.
	data := "*ID,DEV01,BP02,A,10.0000,N,20.0000,E,1.0,2.0,lat:55.5555,long:44.4444,speed:9.9#"
	location, err := ParseGPS(data)

	require.NoError(t, err)
	require.NotNil(t, location)
	assert.InDelta(t, 10.0, location.Latitude, 1e-9)
	assert.InDelta(t, 20.0, location.Longitude, 1e-9)
}
