package errors

import "errors"

var ErrUnknownProtocol = errors.New("unknown device protocol")

// Frame errors: the message is dropped, the connection stays open.
var ErrBadFrame = errors.New("bad frame delimiters")
var ErrBadChecksum = errors.New("frame checksum mismatch")
var ErrTruncatedFrame = errors.New("truncated frame")

// Parse errors, scoped to a single message.
var ErrBadMessageFormat = errors.New("bad message format")
var ErrBadBCDDigit = errors.New("bad bcd digit")
var ErrCoordinateOutOfRange = errors.New("coordinate out of range")

var ErrUnknownDevice = errors.New("device not registered")
