package codec

import (
	errs "github.com/pawtrace/pet-receiver/internal/errors"
)

// JT808 frame delimiter and escape bytes. The delimiter never appears
// literally inside a frame body: 0x7e travels as 0x7d 0x02 and a literal
// 0x7d travels as 0x7d 0x01.
const (
	FrameDelimiter byte = 0x7e
	escapeByte     byte = 0x7d
)

// Escape applies the two-byte escape scheme to an outbound frame body.
func Escape(data []byte) []byte {
	result := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case FrameDelimiter:
			result = append(result, escapeByte, 0x02)
		case escapeByte:
			result = append(result, escapeByte, 0x01)
		default:
			result = append(result, b)
		}
	}
	return result
}

// Unescape reverses Escape. A trailing lone 0x7d or an unknown second
// byte passes through untouched, matching device behavior in the field.
func Unescape(data []byte) []byte {
	result := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == escapeByte && i+1 < len(data) {
			switch data[i+1] {
			case 0x01:
				result = append(result, escapeByte)
				i++
				continue
			case 0x02:
				result = append(result, FrameDelimiter)
				i++
				continue
			}
		}
		result = append(result, data[i])
	}
	return result
}

// ExtractFrames scans the receive buffer for 0x7e ... 0x7e spans and
// returns every complete frame (delimiters included) plus the remainder
// to keep in the buffer for the next read. The remainder is only ever a
// trailing partial frame; noise outside delimiters is discarded so a
// misbehaving peer cannot grow the buffer without bound.
func ExtractFrames(buffer []byte) (frames [][]byte, remainder []byte) {
	start := -1
	for i := 0; i < len(buffer); i++ {
		if buffer[i] != FrameDelimiter {
			continue
		}
		if start == -1 || i == start+1 {
			// Either a new span, or an empty one whose second
			// delimiter starts the next span.
			start = i
			continue
		}
		frames = append(frames, buffer[start:i+1])
		start = -1
	}
	if start != -1 {
		return frames, buffer[start:]
	}
	return frames, nil
}

// Checksum is the XOR of every byte between the delimiters, excluding the
// checksum byte itself.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// VerifyChecksum checks an unescaped, delimiter-stripped frame whose last
// byte is the checksum.
func VerifyChecksum(data []byte) error {
	if len(data) < 2 {
		return errs.ErrTruncatedFrame
	}
	if Checksum(data[:len(data)-1]) != data[len(data)-1] {
		return errs.ErrBadChecksum
	}
	return nil
}

// UnwrapFrame strips the delimiters, unescapes the span and verifies the
// checksum, returning header+body without the checksum byte.
func UnwrapFrame(frame []byte) ([]byte, error) {
	if len(frame) < 4 || frame[0] != FrameDelimiter || frame[len(frame)-1] != FrameDelimiter {
		return nil, errs.ErrBadFrame
	}
	content := Unescape(frame[1 : len(frame)-1])
	if err := VerifyChecksum(content); err != nil {
		return nil, err
	}
	return content[:len(content)-1], nil
}

// WrapFrame is the structural mirror of UnwrapFrame: it appends the
// checksum, escapes the span and adds the delimiters.
func WrapFrame(content []byte) []byte {
	withSum := make([]byte, 0, len(content)+1)
	withSum = append(withSum, content...)
	withSum = append(withSum, Checksum(content))

	frame := make([]byte, 0, len(withSum)+2)
	frame = append(frame, FrameDelimiter)
	frame = append(frame, Escape(withSum)...)
	frame = append(frame, FrameDelimiter)
	return frame
}
