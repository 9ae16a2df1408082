package jt808

import (
	"encoding/binary"

	"github.com/pawtrace/pet-receiver/internal/codec"
	errs "github.com/pawtrace/pet-receiver/internal/errors"
	"github.com/pawtrace/pet-receiver/internal/types"
)

// Location report fixed prefix: alarm(4) status(4) lat(4) lon(4) alt(2)
// speed(2) heading(2) bcd-time(6), then the TLV additional-data chain.
const locationFixedLen = 28

// status bitmask bits.
const (
	statusAccOn      uint32 = 1 << 0
	statusPositioned uint32 = 1 << 1
	statusSouth      uint32 = 1 << 2
	statusWest       uint32 = 1 << 3
	statusMoving     uint32 = 1 << 4
)

func parseLocationBody(body []byte) (*types.LocationReading, *types.StatusFields, error) {
	if len(body) < locationFixedLen {
		logShortBody("location report", len(body))
		return nil, nil, errs.ErrTruncatedFrame
	}

	rawStatus := binary.BigEndian.Uint32(body[4:8])
	status := &types.StatusFields{
		Raw:        rawStatus,
		AccOn:      rawStatus&statusAccOn != 0,
		Positioned: rawStatus&statusPositioned != 0,
		South:      rawStatus&statusSouth != 0,
		West:       rawStatus&statusWest != 0,
		Moving:     rawStatus&statusMoving != 0,
	}

	lat := float64(int32(binary.BigEndian.Uint32(body[8:12]))) / 1e6
	lon := float64(int32(binary.BigEndian.Uint32(body[12:16]))) / 1e6
	if status.South && lat > 0 {
		lat = -lat
	}
	if status.West && lon > 0 {
		lon = -lon
	}

	timestamp, err := codec.DecodeBCDTime(body[22:28])
	if err != nil {
		return nil, nil, err
	}

	location := &types.LocationReading{
		Valid:     status.Positioned,
		Latitude:  lat,
		Longitude: lon,
		Altitude:  float64(binary.BigEndian.Uint16(body[16:18])),
		Speed:     float64(binary.BigEndian.Uint16(body[18:20])) / 10.0, // tenths of km/h
		Heading:   float64(binary.BigEndian.Uint16(body[20:22])),
		Timestamp: timestamp,
	}

	parseAdditionalData(body[locationFixedLen:], location)

	if location.Valid && (lat < -90 || lat > 90 || lon < -180 || lon > 180) {
		return nil, nil, errs.ErrCoordinateOutOfRange
	}
	if location.BatteryLevel != nil {
		status.BatteryLevel = location.BatteryLevel
	}

	return location, status, nil
}

// parseAdditionalData walks the TLV chain. A declared length overrunning
// the remaining bytes ends the chain, it never aborts the message.
func parseAdditionalData(data []byte, location *types.LocationReading) {
	for len(data) >= 2 {
		tag := data[0]
		length := int(data[1])
		if length > len(data)-2 {
			return
		}
		value := data[2 : 2+length]
		data = data[2+length:]

		switch tag {
		case types.TLV_Mileage:
			if length >= 4 {
				mileage := float64(binary.BigEndian.Uint32(value[0:4])) / 10.0
				location.Mileage = &mileage
			}
		case types.TLV_Fuel:
			if length >= 2 {
				fuel := float64(binary.BigEndian.Uint16(value[0:2])) / 10.0
				location.Fuel = &fuel
			}
		case types.TLV_Signal:
			if length >= 1 {
				signal := int(value[0])
				location.Signal = &signal
			}
		case types.TLV_PetBattery:
			if length >= 1 {
				battery := float64(value[0])
				location.BatteryLevel = &battery
			}
		case types.TLV_PetActivity:
			if length >= 1 {
				activity := float64(value[0])
				location.ActivityLevel = &activity
			}
		case types.TLV_PetHealthFlags:
			if length >= 2 {
				flags := binary.BigEndian.Uint16(value[0:2])
				location.HealthFlags = &flags
			}
		case types.TLV_PetTemperature:
			if length >= 2 {
				temperature := float64(int16(binary.BigEndian.Uint16(value[0:2]))) / 10.0
				location.Temperature = &temperature
			}
		}
	}
}

// parseLocationQueryResponse decodes 0x8201: a response serial followed by
// an embedded location report body.
func parseLocationQueryResponse(body []byte) (*types.LocationReading, *types.StatusFields, error) {
	if len(body) < 2 {
		logShortBody("location query response", len(body))
		return nil, nil, errs.ErrTruncatedFrame
	}
	return parseLocationBody(body[2:])
}
