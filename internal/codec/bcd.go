package codec

import (
	"time"

	errs "github.com/pawtrace/pet-receiver/internal/errors"
)

// BCDToString decodes packed BCD, one decimal digit per nibble.
func BCDToString(data []byte) (string, error) {
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		hi := b >> 4
		lo := b & 0x0f
		if hi > 9 || lo > 9 {
			return "", errs.ErrBadBCDDigit
		}
		out = append(out, '0'+hi, '0'+lo)
	}
	return string(out), nil
}

// StringToBCD packs decimal digits two per byte, left-padding odd-length
// input with a zero digit. Non-digit characters encode as 0.
func StringToBCD(s string) []byte {
	if len(s)%2 == 1 {
		s = "0" + s
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		out[i/2] = digit(s[i])<<4 | digit(s[i+1])
	}
	return out
}

func digit(c byte) byte {
	if c < '0' || c > '9' {
		return 0
	}
	return c - '0'
}

// PhoneToBCD normalizes a device identifier into the 6-byte header field,
// truncating past 12 digits and right-padding short ids with 0x00.
func PhoneToBCD(phone string) []byte {
	if len(phone) > 12 {
		phone = phone[:12]
	}
	packed := StringToBCD(phone)
	out := make([]byte, 6)
	copy(out, packed)
	return out
}

// DecodeBCDTime decodes the 6-byte YYMMDDhhmmss timestamp used by the
// location report. Times are device-reported UTC.
func DecodeBCDTime(data []byte) (time.Time, error) {
	if len(data) != 6 {
		return time.Time{}, errs.ErrTruncatedFrame
	}
	s, err := BCDToString(data)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation("060102150405", s, time.UTC)
	if err != nil {
		return time.Time{}, errs.ErrBadMessageFormat
	}
	return t, nil
}

// EncodeBCDTime is the inverse of DecodeBCDTime.
func EncodeBCDTime(t time.Time) []byte {
	return StringToBCD(t.UTC().Format("060102150405"))
}
