package jt808

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	errs "github.com/pawtrace/pet-receiver/internal/errors"
	"github.com/pawtrace/pet-receiver/internal/types"
)

// Registration body: province(2) city(2) manufacturer(5) model(20)
// terminal-id(7) plate-color(1) plate(var).
const registrationFixedLen = 37

func parseRegistrationBody(body []byte) (*types.RegistrationInfo, error) {
	if len(body) < registrationFixedLen {
		logShortBody("terminal registration", len(body))
		return nil, errs.ErrTruncatedFrame
	}

	info := &types.RegistrationInfo{
		ProvinceID:     binary.BigEndian.Uint16(body[0:2]),
		CityID:         binary.BigEndian.Uint16(body[2:4]),
		ManufacturerID: trimPadding(string(body[4:9])),
		TerminalModel:  trimPadding(string(body[9:29])),
		TerminalID:     trimPadding(string(body[29:36])),
		PlateColor:     body[36],
	}
	if len(body) > registrationFixedLen {
		info.Plate = decodePlate(body[registrationFixedLen:])
	}
	return info, nil
}

// decodePlate tries UTF-8, then GBK, then falls back to a hex dump.
func decodePlate(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw); err == nil {
		return string(decoded)
	}
	return hex.EncodeToString(raw)
}

func trimPadding(s string) string {
	return strings.TrimRight(s, "\x00 ")
}

// parseGeneralResponseBody decodes 0x0001/0x8001: acked serial, acked
// message id, result code.
func parseGeneralResponseBody(body []byte) (*types.GeneralResponse, error) {
	if len(body) < 5 {
		logShortBody("general response", len(body))
		return nil, errs.ErrTruncatedFrame
	}
	return &types.GeneralResponse{
		AckSerial:    binary.BigEndian.Uint16(body[0:2]),
		AckMessageID: binary.BigEndian.Uint16(body[2:4]),
		Result:       body[4],
	}, nil
}

// parseParameterList decodes the 0x8103 count-prefixed parameter list.
func parseParameterList(body []byte) ([]types.TerminalParam, error) {
	if len(body) < 1 {
		return nil, errs.ErrTruncatedFrame
	}
	count := int(body[0])
	data := body[1:]

	params := make([]types.TerminalParam, 0, count)
	for i := 0; i < count; i++ {
		if len(data) < 5 {
			return params, errs.ErrTruncatedFrame
		}
		id := binary.BigEndian.Uint32(data[0:4])
		length := int(data[4])
		if length > len(data)-5 {
			return params, errs.ErrTruncatedFrame
		}
		params = append(params, types.TerminalParam{ID: id, Value: data[5 : 5+length]})
		data = data[5+length:]
	}
	return params, nil
}
