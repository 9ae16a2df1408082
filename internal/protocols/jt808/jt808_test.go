package jt808

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrace/pet-receiver/internal/codec"
	errs "github.com/pawtrace/pet-receiver/internal/errors"
	"github.com/pawtrace/pet-receiver/internal/types"
)

const testPhone = "013456789012"

func TestDetect(t *testing.T) {
	p := NewProtocol("SUCCESS")
	assert.True(t, p.Detect([]byte{0x7e, 0x00}))
	assert.False(t, p.Detect([]byte("*ID,DEV01#")))
	assert.False(t, p.Detect(nil))
}

func TestParseHeartbeat(t *testing.T) {
	p := NewProtocol("SUCCESS")
	frame := BuildFrame(types.MsgID_Heartbeat, testPhone, 42, nil)

	msg, err := p.Parse(frame)
	require.NoError(t, err)
	assert.Equal(t, testPhone, msg.Identifier)
	assert.Equal(t, types.MsgID_Heartbeat, msg.MessageType)
	assert.Equal(t, uint16(42), msg.Serial)
	assert.Nil(t, msg.Location)
}

func TestParseLocationReportRoundTrip(t *testing.T) {
	battery := 77.0
	activity := 63.0
	flags := types.HealthFlag_Inactivity | types.HealthFlag_Distress
	temperature := 38.6
	mileage := 1523.4
	fuel := 45.5
	signal := 23

	reading := &types.LocationReading{
		Valid:         true,
		Latitude:      37.7749,
		Longitude:     -122.4194,
		Altitude:      12,
		Speed:         4.5,
		Heading:       270,
		Timestamp:     time.Date(2025, 4, 13, 12, 30, 0, 0, time.UTC),
		BatteryLevel:  &battery,
		Mileage:       &mileage,
		Fuel:          &fuel,
		Signal:        &signal,
		ActivityLevel: &activity,
		HealthFlags:   &flags,
		Temperature:   &temperature,
	}

	p := NewProtocol("SUCCESS")
	msg, err := p.Parse(BuildLocationReport(testPhone, 7, 0, reading))
	require.NoError(t, err)

	require.NotNil(t, msg.Location)
	got := msg.Location
	assert.True(t, got.Valid)
	assert.InDelta(t, 37.7749, got.Latitude, 1e-6)
	assert.InDelta(t, -122.4194, got.Longitude, 1e-6)
	assert.InDelta(t, 12, got.Altitude, 1e-9)
	assert.InDelta(t, 4.5, got.Speed, 1e-9)
	assert.InDelta(t, 270, got.Heading, 1e-9)
	assert.Equal(t, reading.Timestamp, got.Timestamp)

	require.NotNil(t, got.BatteryLevel)
	assert.InDelta(t, 77, *got.BatteryLevel, 1e-9)
	require.NotNil(t, got.ActivityLevel)
	assert.InDelta(t, 63, *got.ActivityLevel, 1e-9)
	require.NotNil(t, got.HealthFlags)
	assert.Equal(t, flags, *got.HealthFlags)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 38.6, *got.Temperature, 1e-9)
	require.NotNil(t, got.Mileage)
	assert.InDelta(t, 1523.4, *got.Mileage, 1e-9)
	require.NotNil(t, got.Fuel)
	assert.InDelta(t, 45.5, *got.Fuel, 1e-9)
	require.NotNil(t, got.Signal)
	assert.Equal(t, 23, *got.Signal)

	require.NotNil(t, msg.Status)
	assert.True(t, msg.Status.Positioned)
	assert.True(t, msg.Status.West)
	assert.True(t, msg.Status.Moving)
	require.NotNil(t, msg.Status.BatteryLevel)
	assert.InDelta(t, 77, *msg.Status.BatteryLevel, 1e-9)
}

func TestParseNegativeTemperature(t *testing.T) {
	temperature := -5.3
	reading := &types.LocationReading{
		Valid:       true,
		Latitude:    1,
		Longitude:   1,
		Timestamp:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Temperature: &temperature,
	}

	p := NewProtocol("SUCCESS")
	msg, err := p.Parse(BuildLocationReport(testPhone, 1, 0, reading))
	require.NoError(t, err)
	require.NotNil(t, msg.Location.Temperature)
	assert.InDelta(t, -5.3, *msg.Location.Temperature, 1e-9)
}

func TestParseChecksumRejection(t *testing.T) {
	frame := BuildFrame(types.MsgID_Heartbeat, testPhone, 1, nil)
	// Flip one bit in the serial field, not the checksum byte.
	frame[11] ^= 0x01

	p := NewProtocol("SUCCESS")
	_, err := p.Parse(frame)
	assert.ErrorIs(t, err, errs.ErrBadChecksum)
}

func TestParseTruncatedHeader(t *testing.T) {
	p := NewProtocol("SUCCESS")
	_, err := p.Parse(codec.WrapFrame([]byte{0x02, 0x00, 0x00}))
	assert.ErrorIs(t, err, errs.ErrTruncatedFrame)
}

func TestParseBadBCDPhone(t *testing.T) {
	content := make([]byte, headerLen)
	binary.BigEndian.PutUint16(content[0:2], types.MsgID_Heartbeat)
	content[4] = 0xab // not a decimal digit pair

	p := NewProtocol("SUCCESS")
	_, err := p.Parse(codec.WrapFrame(content))
	assert.ErrorIs(t, err, errs.ErrBadBCDDigit)
}

func TestParseSubPackagedHeader(t *testing.T) {
	content := make([]byte, headerLen+4)
	binary.BigEndian.PutUint16(content[0:2], types.MsgID_Heartbeat)
	binary.BigEndian.PutUint16(content[2:4], attrSubPackage) // body length 0
	copy(content[4:10], codec.PhoneToBCD(testPhone))
	binary.BigEndian.PutUint16(content[10:12], 9)
	binary.BigEndian.PutUint16(content[12:14], 3) // total packages
	binary.BigEndian.PutUint16(content[14:16], 1) // package index

	p := NewProtocol("SUCCESS")
	msg, err := p.Parse(codec.WrapFrame(content))
	require.NoError(t, err)
	assert.Equal(t, uint16(9), msg.Serial)
	assert.Equal(t, testPhone, msg.Identifier)
}

func TestParseTLVTruncationStopsCleanly(t *testing.T) {
	reading := &types.LocationReading{
		Valid:     true,
		Latitude:  10,
		Longitude: 20,
		Timestamp: time.Date(2025, 4, 13, 12, 30, 0, 0, time.UTC),
	}
	battery := 50.0
	reading.BatteryLevel = &battery

	// Build a valid report, then append a TLV whose declared length
	// overruns the remaining bytes.
	frame := BuildLocationReport(testPhone, 5, 0, reading)
	content, err := codec.UnwrapFrame(frame)
	require.NoError(t, err)
	body := content[headerLen:]
	body = append(body, types.TLV_PetActivity, 0x09, 0x01) // claims 9 bytes, has 1

	p := NewProtocol("SUCCESS")
	msg, err := p.Parse(BuildFrame(types.MsgID_LocationReport, testPhone, 5, body))
	require.NoError(t, err, "overrunning TLV ends the chain, not the message")
	require.NotNil(t, msg.Location.BatteryLevel)
	assert.InDelta(t, 50, *msg.Location.BatteryLevel, 1e-9)
	assert.Nil(t, msg.Location.ActivityLevel)
}

func TestParseCoordinateOutOfRange(t *testing.T) {
	reading := &types.LocationReading{
		Valid:     true,
		Latitude:  95.0,
		Longitude: 20.0,
		Timestamp: time.Date(2025, 4, 13, 12, 30, 0, 0, time.UTC),
	}

	p := NewProtocol("SUCCESS")
	_, err := p.Parse(BuildLocationReport(testPhone, 1, 0, reading))
	assert.ErrorIs(t, err, errs.ErrCoordinateOutOfRange)
}

func TestParseInvalidFixSkipsBoundsCheck(t *testing.T) {
	// Invalid fixes may carry junk coordinates, they are not an error.
	body := make([]byte, locationFixedLen)
	binary.BigEndian.PutUint32(body[8:12], 999000000)
	copy(body[22:28], codec.EncodeBCDTime(time.Date(2025, 4, 13, 12, 30, 0, 0, time.UTC)))

	p := NewProtocol("SUCCESS")
	msg, err := p.Parse(BuildFrame(types.MsgID_LocationReport, testPhone, 1, body))
	require.NoError(t, err)
	assert.False(t, msg.Location.Valid)
}

func TestParseRegistration(t *testing.T) {
	body := make([]byte, 0, registrationFixedLen)
	body = binary.BigEndian.AppendUint16(body, 440)                 // province
	body = binary.BigEndian.AppendUint16(body, 300)                 // city
	body = append(body, []byte("PAWCO")...)                         // manufacturer
	body = append(body, []byte("PT-100\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")...) // model, 20 bytes
	body = append(body, []byte("TERM001")...)                       // terminal id
	body = append(body, 0x00)                                       // plate color
	body = append(body, []byte("PET-42")...)                        // plate

	p := NewProtocol("SUCCESS")
	msg, err := p.Parse(BuildFrame(types.MsgID_TerminalRegistration, testPhone, 3, body))
	require.NoError(t, err)

	require.NotNil(t, msg.Registration)
	assert.Equal(t, uint16(440), msg.Registration.ProvinceID)
	assert.Equal(t, uint16(300), msg.Registration.CityID)
	assert.Equal(t, "PAWCO", msg.Registration.ManufacturerID)
	assert.Equal(t, "PT-100", msg.Registration.TerminalModel)
	assert.Equal(t, "TERM001", msg.Registration.TerminalID)
	assert.Equal(t, "PET-42", msg.Registration.Plate)
}

func TestParseAuthentication(t *testing.T) {
	p := NewProtocol("SUCCESS")
	msg, err := p.Parse(BuildFrame(types.MsgID_TerminalAuthentication, testPhone, 2, []byte("AUTH1234")))

	require.NoError(t, err)
	assert.Equal(t, "AUTH1234", msg.AuthCode)
}

func TestParseLocationQueryResponse(t *testing.T) {
	reading := &types.LocationReading{
		Valid:     true,
		Latitude:  22.5,
		Longitude: 114.1,
		Timestamp: time.Date(2025, 4, 13, 12, 30, 0, 0, time.UTC),
	}
	frame := BuildLocationReport(testPhone, 5, 0, reading)
	content, err := codec.UnwrapFrame(frame)
	require.NoError(t, err)

	body := append([]byte{0x00, 0x05}, content[headerLen:]...)
	p := NewProtocol("SUCCESS")
	msg, err := p.Parse(BuildFrame(types.MsgID_LocationQueryResponse, testPhone, 6, body))

	require.NoError(t, err)
	require.NotNil(t, msg.Location)
	assert.InDelta(t, 22.5, msg.Location.Latitude, 1e-6)
}

func TestRespondAckRoundTrip(t *testing.T) {
	p := NewProtocol("SUCCESS")
	reading := &types.LocationReading{
		Valid:     true,
		Latitude:  1,
		Longitude: 2,
		Timestamp: time.Date(2025, 4, 13, 12, 30, 0, 0, time.UTC),
	}
	msg, err := p.Parse(BuildLocationReport(testPhone, 321, 0, reading))
	require.NoError(t, err)

	ack, err := p.Respond(msg)
	require.NoError(t, err)

	decoded, err := p.Parse(ack)
	require.NoError(t, err)
	assert.Equal(t, types.MsgID_PlatformGeneralResponse, decoded.MessageType)
	require.NotNil(t, decoded.Response)
	assert.Equal(t, uint16(321), decoded.Response.AckSerial)
	assert.Equal(t, types.MsgID_LocationReport, decoded.Response.AckMessageID)
	assert.Equal(t, types.Result_Success, decoded.Response.Result)
}

func TestRespondRegistration(t *testing.T) {
	p := NewProtocol("WELCOME")
	msg := &types.DecodedMessage{
		Identifier:  testPhone,
		MessageType: types.MsgID_TerminalRegistration,
		Serial:      11,
	}

	ack, err := p.Respond(msg)
	require.NoError(t, err)

	content, err := codec.UnwrapFrame(ack)
	require.NoError(t, err)
	assert.Equal(t, types.MsgID_RegistrationResponse, binary.BigEndian.Uint16(content[0:2]))

	body := content[headerLen:]
	assert.Equal(t, uint16(11), binary.BigEndian.Uint16(body[0:2]))
	assert.Equal(t, types.Result_Success, body[2])
	assert.Equal(t, "WELCOME", string(body[3:]))
}

func TestParseParameterList(t *testing.T) {
	body := []byte{0x02}
	body = append(body, 0x00, 0x00, 0x00, 0x01, 0x04, 0x00, 0x00, 0x00, 0x3c) // heartbeat interval
	body = append(body, 0x00, 0x00, 0x00, 0x20, 0x01, 0x05)

	params, err := parseParameterList(body)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, uint32(1), params[0].ID)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x3c}, params[0].Value)
	assert.Equal(t, uint32(0x20), params[1].ID)

	_, err = parseParameterList([]byte{0x02, 0x00, 0x00, 0x00, 0x01, 0x09, 0x01})
	assert.ErrorIs(t, err, errs.ErrTruncatedFrame)
}
