package types

import "time"

// ProtocolKind is fixed per connection once the first bytes are classified.
type ProtocolKind int

const (
	ProtocolKind_UNKNOWN ProtocolKind = iota
	ProtocolKind_TEXT808
	ProtocolKind_JT808
)

func (k ProtocolKind) String() string {
	switch k {
	case ProtocolKind_TEXT808:
		return "text808"
	case ProtocolKind_JT808:
		return "jt808"
	default:
		return "unknown"
	}
}

// DecodedMessage is produced by a parser from one wire frame and consumed
// immediately by the bridge. It is not retained.
type DecodedMessage struct {
	Identifier   string
	Protocol     ProtocolKind
	MessageType  uint16
	Serial       uint16
	Location     *LocationReading
	Status       *StatusFields
	Registration *RegistrationInfo
	Response     *GeneralResponse
	AuthCode     string
	RawCommand   string // text protocol command token, e.g. "BP02"
}

// LocationReading carries one decoded GPS fix. Latitude is in [-90,90] and
// longitude in [-180,180] whenever Valid is true; parsers reject frames
// outside that range instead of clamping.
type LocationReading struct {
	Valid     bool
	Latitude  float64
	Longitude float64
	Altitude  float64
	Speed     float64 // km/h
	Heading   float64 // degrees 0-359
	Timestamp time.Time

	BatteryLevel *float64
	Satellites   *int
	Mileage      *float64
	Fuel         *float64
	Signal       *int

	// Pet extensions, publish-only (never written to the location table).
	ActivityLevel *float64
	HealthFlags   *uint16
	Temperature   *float64
}

// StatusFields decomposes the JT808 status bitmask plus text-protocol
// status tokens such as BAT:nn%.
type StatusFields struct {
	Raw          uint32
	AccOn        bool
	Positioned   bool
	South        bool
	West         bool
	Moving       bool
	BatteryLevel *float64
}

type RegistrationInfo struct {
	ProvinceID     uint16
	CityID         uint16
	ManufacturerID string
	TerminalModel  string
	TerminalID     string
	PlateColor     byte
	Plate          string
}

// GeneralResponse is the decoded body of 0x0001/0x8001.
type GeneralResponse struct {
	AckSerial    uint16
	AckMessageID uint16
	Result       byte
}

// TerminalParam is one entry of a 0x8103 parameter list.
type TerminalParam struct {
	ID    uint32
	Value []byte
}

// HealthFlags bits (tag 0x33 companion mask, tag 0x32 on the wire).
const (
	HealthFlag_TempWarning      uint16 = 1 << 0
	HealthFlag_Inactivity       uint16 = 1 << 1
	HealthFlag_AbnormalMovement uint16 = 1 << 2
	HealthFlag_Distress         uint16 = 1 << 3
)
