package jt808

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/pawtrace/pet-receiver/internal/codec"
	errs "github.com/pawtrace/pet-receiver/internal/errors"
	configuredLogger "github.com/pawtrace/pet-receiver/internal/logger"
	"github.com/pawtrace/pet-receiver/internal/types"
)

var logger = configuredLogger.Logger

const headerLen = 12

// attrs word layout: low 10 bits body length, bit 13 sub-package flag.
const (
	attrBodyLenMask uint16 = 0x03ff
	attrSubPackage  uint16 = 0x2000
)

type JT808Protocol struct {
	// AuthCode is returned in successful registration responses.
	AuthCode string
}

func NewProtocol(authCode string) *JT808Protocol {
	return &JT808Protocol{AuthCode: authCode}
}

func (p *JT808Protocol) Kind() types.ProtocolKind {
	return types.ProtocolKind_JT808
}

func (p *JT808Protocol) Detect(firstBytes []byte) bool {
	return len(firstBytes) > 0 && firstBytes[0] == codec.FrameDelimiter
}

func (p *JT808Protocol) ExtractMessages(buffer []byte) ([][]byte, []byte) {
	return codec.ExtractFrames(buffer)
}

// Header is the fixed JT808 message header.
type Header struct {
	MessageID   uint16
	Attributes  uint16
	BodyLen     int
	SubPackaged bool
	Phone       string
	Serial      uint16
	TotalPkgs   uint16
	PkgIndex    uint16
}

// Parse decodes one delimited frame: unescape, checksum, header, then the
// per-message body. Failures abort this message only.
func (p *JT808Protocol) Parse(raw []byte) (*types.DecodedMessage, error) {
	content, err := codec.UnwrapFrame(raw)
	if err != nil {
		return nil, err
	}

	header, body, err := parseHeader(content)
	if err != nil {
		return nil, err
	}

	msg := &types.DecodedMessage{
		Identifier:  header.Phone,
		Protocol:    types.ProtocolKind_JT808,
		MessageType: header.MessageID,
		Serial:      header.Serial,
	}

	switch header.MessageID {
	case types.MsgID_Heartbeat, types.MsgID_TerminalLogout:
		// Empty body.

	case types.MsgID_TerminalRegistration:
		msg.Registration, err = parseRegistrationBody(body)

	case types.MsgID_TerminalAuthentication:
		msg.AuthCode = string(body)

	case types.MsgID_LocationReport:
		msg.Location, msg.Status, err = parseLocationBody(body)

	case types.MsgID_LocationQueryResponse:
		msg.Location, msg.Status, err = parseLocationQueryResponse(body)

	case types.MsgID_TerminalGeneralResponse, types.MsgID_PlatformGeneralResponse:
		msg.Response, err = parseGeneralResponseBody(body)

	case types.MsgID_SetTerminalParameters:
		// Decoded opportunistically, parameters are logged and dropped.
		if params, perr := parseParameterList(body); perr == nil {
			logger.Sugar().Debugf("device %s sent %d terminal parameters", header.Phone, len(params))
		}

	default:
		logger.Sugar().Infof("received message type 0x%04x (%s) from %s",
			header.MessageID, types.MsgIDName(header.MessageID), header.Phone)
	}
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func parseHeader(content []byte) (*Header, []byte, error) {
	if len(content) < headerLen {
		return nil, nil, errs.ErrTruncatedFrame
	}

	header := &Header{
		MessageID:  binary.BigEndian.Uint16(content[0:2]),
		Attributes: binary.BigEndian.Uint16(content[2:4]),
		Serial:     binary.BigEndian.Uint16(content[10:12]),
	}
	header.BodyLen = int(header.Attributes & attrBodyLenMask)
	header.SubPackaged = header.Attributes&attrSubPackage != 0

	phone, err := codec.BCDToString(content[4:10])
	if err != nil {
		return nil, nil, err
	}
	header.Phone = phone

	idx := headerLen
	if header.SubPackaged {
		if len(content) < idx+4 {
			return nil, nil, errs.ErrTruncatedFrame
		}
		header.TotalPkgs = binary.BigEndian.Uint16(content[idx : idx+2])
		header.PkgIndex = binary.BigEndian.Uint16(content[idx+2 : idx+4])
		idx += 4
	}

	body := content[idx:]
	if len(body) < header.BodyLen {
		return nil, nil, errs.ErrTruncatedFrame
	}
	return header, body[:header.BodyLen], nil
}

// Respond mirrors the inbound framing: registrations get a registration
// response, everything else a platform general response.
func (p *JT808Protocol) Respond(msg *types.DecodedMessage) ([]byte, error) {
	if msg.MessageType == types.MsgID_TerminalRegistration {
		return BuildRegistrationResponse(msg.Identifier, msg.Serial, types.Result_Success, p.AuthCode), nil
	}
	return BuildGeneralResponse(msg.Identifier, msg.Serial, msg.MessageType, types.Result_Success), nil
}

func logShortBody(name string, n int) {
	logger.Warn("message body too short", zap.String("message", name), zap.Int("length", n))
}
