package jt808

import (
	"encoding/binary"
	"math"

	"github.com/pawtrace/pet-receiver/internal/codec"
	"github.com/pawtrace/pet-receiver/internal/types"
)

// BuildFrame assembles a complete outbound frame: header, body, checksum,
// escaping and delimiters. The phone field is normalized to 6 BCD bytes.
func BuildFrame(msgID uint16, phone string, serial uint16, body []byte) []byte {
	content := make([]byte, headerLen, headerLen+len(body))
	binary.BigEndian.PutUint16(content[0:2], msgID)
	binary.BigEndian.PutUint16(content[2:4], uint16(len(body))&attrBodyLenMask)
	copy(content[4:10], codec.PhoneToBCD(phone))
	binary.BigEndian.PutUint16(content[10:12], serial)
	content = append(content, body...)

	return codec.WrapFrame(content)
}

// BuildGeneralResponse builds a platform general response (0x8001):
// serial being acked, message id being acked, result code.
func BuildGeneralResponse(phone string, ackSerial, ackMsgID uint16, result byte) []byte {
	body := make([]byte, 5)
	binary.BigEndian.PutUint16(body[0:2], ackSerial)
	binary.BigEndian.PutUint16(body[2:4], ackMsgID)
	body[4] = result

	return BuildFrame(types.MsgID_PlatformGeneralResponse, phone, ackSerial, body)
}

// BuildRegistrationResponse builds 0x8100. The auth code is present only
// on success.
func BuildRegistrationResponse(phone string, ackSerial uint16, result byte, authCode string) []byte {
	body := make([]byte, 3, 3+len(authCode))
	binary.BigEndian.PutUint16(body[0:2], ackSerial)
	body[2] = result
	if result == types.Result_Success {
		body = append(body, []byte(authCode)...)
	}

	return BuildFrame(types.MsgID_RegistrationResponse, phone, ackSerial, body)
}

// BuildLocationReport encodes a location report body from a reading, the
// structural mirror of parseLocationBody. Used by the simulator and by
// round-trip tests.
func BuildLocationReport(phone string, serial uint16, alarm uint32, reading *types.LocationReading) []byte {
	var status uint32
	if reading.Valid {
		status |= statusPositioned
	}
	lat, lon := reading.Latitude, reading.Longitude
	if lat < 0 {
		status |= statusSouth
		lat = -lat
	}
	if lon < 0 {
		status |= statusWest
		lon = -lon
	}
	if reading.Speed > 0 {
		status |= statusMoving
	}

	body := make([]byte, locationFixedLen)
	binary.BigEndian.PutUint32(body[0:4], alarm)
	binary.BigEndian.PutUint32(body[4:8], status)
	binary.BigEndian.PutUint32(body[8:12], uint32(int32(math.Round(lat*1e6))))
	binary.BigEndian.PutUint32(body[12:16], uint32(int32(math.Round(lon*1e6))))
	binary.BigEndian.PutUint16(body[16:18], uint16(math.Round(reading.Altitude)))
	binary.BigEndian.PutUint16(body[18:20], uint16(math.Round(reading.Speed*10)))
	binary.BigEndian.PutUint16(body[20:22], uint16(math.Round(reading.Heading)))
	copy(body[22:28], codec.EncodeBCDTime(reading.Timestamp))

	if reading.Mileage != nil {
		value := make([]byte, 4)
		binary.BigEndian.PutUint32(value, uint32(math.Round(*reading.Mileage*10)))
		body = AppendTLV(body, types.TLV_Mileage, value)
	}
	if reading.Fuel != nil {
		value := make([]byte, 2)
		binary.BigEndian.PutUint16(value, uint16(math.Round(*reading.Fuel*10)))
		body = AppendTLV(body, types.TLV_Fuel, value)
	}
	if reading.Signal != nil {
		body = AppendTLV(body, types.TLV_Signal, []byte{byte(*reading.Signal)})
	}
	if reading.BatteryLevel != nil {
		body = AppendTLV(body, types.TLV_PetBattery, []byte{byte(*reading.BatteryLevel)})
	}
	if reading.ActivityLevel != nil {
		body = AppendTLV(body, types.TLV_PetActivity, []byte{byte(*reading.ActivityLevel)})
	}
	if reading.HealthFlags != nil {
		value := make([]byte, 2)
		binary.BigEndian.PutUint16(value, *reading.HealthFlags)
		body = AppendTLV(body, types.TLV_PetHealthFlags, value)
	}
	if reading.Temperature != nil {
		value := make([]byte, 2)
		binary.BigEndian.PutUint16(value, uint16(int16(math.Round(*reading.Temperature*10))))
		body = AppendTLV(body, types.TLV_PetTemperature, value)
	}

	return BuildFrame(types.MsgID_LocationReport, phone, serial, body)
}

// AppendTLV appends one tag-length-value item to a body.
func AppendTLV(body []byte, tag byte, value []byte) []byte {
	body = append(body, tag, byte(len(value)))
	return append(body, value...)
}
