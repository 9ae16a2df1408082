package text808

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	errs "github.com/pawtrace/pet-receiver/internal/errors"
	configuredLogger "github.com/pawtrace/pet-receiver/internal/logger"
	"github.com/pawtrace/pet-receiver/internal/types"
)

var logger = configuredLogger.Logger

// Text protocol messages are ASCII, bounded by '*' and '#'.
// Example: *ID,IMEI:123456789012345,BP02,20250413184500,DEV01,37.774900,-122.419400,10.5,2.3,90.0,85.2#
type Text808Protocol struct{}

func NewProtocol() *Text808Protocol {
	return &Text808Protocol{}
}

func (p *Text808Protocol) Kind() types.ProtocolKind {
	return types.ProtocolKind_TEXT808
}

func (p *Text808Protocol) Detect(firstBytes []byte) bool {
	return len(firstBytes) > 0 && firstBytes[0] == '*'
}

// ExtractMessages scans for '*' ... '#' spans. Messages split across reads
// stay buffered until their terminating '#' arrives.
func (p *Text808Protocol) ExtractMessages(buffer []byte) (messages [][]byte, remainder []byte) {
	rest := buffer
	for {
		start := bytes.IndexByte(rest, '*')
		if start == -1 {
			return messages, nil
		}
		end := bytes.IndexByte(rest[start:], '#')
		if end == -1 {
			return messages, rest[start:]
		}
		messages = append(messages, rest[start:start+end+1])
		rest = rest[start+end+1:]
	}
}

var deviceIDPattern = regexp.MustCompile(`^\*(?:ID|HQ),([^,#]+)`)
var batteryPattern = regexp.MustCompile(`BAT:(\d+)%`)

func (p *Text808Protocol) Parse(raw []byte) (*types.DecodedMessage, error) {
	// Best-effort ASCII; devices occasionally pad with stray bytes.
	data := strings.TrimSpace(string(raw))

	if !strings.HasPrefix(data, "*") || !strings.HasSuffix(data, "#") {
		return nil, errs.ErrBadMessageFormat
	}

	m := deviceIDPattern.FindStringSubmatch(data)
	if m == nil {
		logger.Sugar().Warnf("could not extract device id from text message: %s", data)
		return nil, errs.ErrBadMessageFormat
	}
	deviceID := m[1]
	if idx := strings.Index(deviceID, "IMEI:"); idx != -1 {
		deviceID = deviceID[idx+len("IMEI:"):]
	}

	msg := &types.DecodedMessage{
		Identifier: deviceID,
		Protocol:   types.ProtocolKind_TEXT808,
	}

	for _, cmd := range types.TextCommands {
		if strings.Contains(data, cmd) {
			msg.RawCommand = cmd
			break
		}
	}

	status := &types.StatusFields{}
	if bm := batteryPattern.FindStringSubmatch(data); bm != nil {
		level := parseFloat(bm[1])
		status.BatteryLevel = &level
	}
	if status.BatteryLevel != nil {
		msg.Status = status
	}

	if msg.RawCommand == types.TextCmd_GPS || strings.Contains(data, "GPS") || standardGPSPattern.MatchString(data) {
		location, err := ParseGPS(data)
		if err != nil {
			return nil, err
		}
		// An unrecognized GPS payload leaves the location nil; the message
		// is still valid since it carries a device id.
		msg.Location = location
		if msg.Location != nil && msg.Location.BatteryLevel == nil && status.BatteryLevel != nil {
			msg.Location.BatteryLevel = status.BatteryLevel
		}
	}

	return msg, nil
}

// Respond builds the fixed ack template *ID,{device},{command},{status}#.
func (p *Text808Protocol) Respond(msg *types.DecodedMessage) ([]byte, error) {
	return BuildResponse(msg.Identifier, "ACK", "OK"), nil
}

func BuildResponse(deviceID, command, status string) []byte {
	return []byte(fmt.Sprintf("*ID,%s,%s,%s#", deviceID, command, status))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
