package text808

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	errs "github.com/pawtrace/pet-receiver/internal/errors"
	"github.com/pawtrace/pet-receiver/internal/types"
)

// GPSMatcher recognizes one positional payload layout. Matchers run in
// order and the first match wins.
type GPSMatcher interface {
	Name() string
	Match(data string) (*types.LocationReading, bool, error)
}

var gpsMatchers = []GPSMatcher{
	standardMatcher{},
	bp02Matcher{},
	keyValueMatcher{},
}

// ParseGPS runs the ordered matcher chain. No match returns a nil reading
// and no error; a matched but out-of-range fix is a parse error.
func ParseGPS(data string) (*types.LocationReading, error) {
	for _, m := range gpsMatchers {
		location, ok, err := m.Match(data)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := checkBounds(location); err != nil {
				return nil, err
			}
			return location, nil
		}
	}
	logger.Sugar().Warnf("could not parse gps data from message: %s", data)
	return nil, nil
}

func checkBounds(l *types.LocationReading) error {
	if !l.Valid {
		return nil
	}
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return errs.ErrCoordinateOutOfRange
	}
	return nil
}

// standardMatcher handles the NMEA-like comma list
// validity,lat,N|S,lon,E|W,speed,heading[,...] where S/W negate the
// corresponding coordinate.
var standardGPSPattern = regexp.MustCompile(`([AV]),(\d+\.\d+),?([NS]),(\d+\.\d+),?([EW]),(\d+\.?\d*),(\d+\.?\d*)`)

type standardMatcher struct{}

func (standardMatcher) Name() string { return "standard" }

func (standardMatcher) Match(data string) (*types.LocationReading, bool, error) {
	m := standardGPSPattern.FindStringSubmatch(data)
	if m == nil {
		return nil, false, nil
	}

	lat, err1 := strconv.ParseFloat(m[2], 64)
	lon, err2 := strconv.ParseFloat(m[4], 64)
	speed, err3 := strconv.ParseFloat(m[6], 64)
	heading, err4 := strconv.ParseFloat(m[7], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, false, errs.ErrBadMessageFormat
	}
	if m[3] == "S" {
		lat = -lat
	}
	if m[5] == "W" {
		lon = -lon
	}

	return &types.LocationReading{
		Valid:     m[1] == "A",
		Latitude:  lat,
		Longitude: lon,
		Speed:     speed,
		Heading:   heading,
		Timestamp: time.Now().UTC(),
	}, true, nil
}

// bp02Matcher handles the simulator layout
// BP02,timestamp,device_id,lat,lon,alt,speed,heading,battery.
type bp02Matcher struct{}

func (bp02Matcher) Name() string { return "bp02" }

func (bp02Matcher) Match(data string) (*types.LocationReading, bool, error) {
	idx := strings.Index(data, types.TextCmd_GPS+",")
	if idx == -1 {
		return nil, false, nil
	}
	payload := strings.TrimSuffix(data[idx+len(types.TextCmd_GPS)+1:], "#")
	fields := strings.Split(payload, ",")
	if len(fields) < 7 {
		return nil, false, nil
	}

	lat, err1 := strconv.ParseFloat(fields[2], 64)
	lon, err2 := strconv.ParseFloat(fields[3], 64)
	alt, err3 := strconv.ParseFloat(fields[4], 64)
	speed, err4 := strconv.ParseFloat(fields[5], 64)
	heading, err5 := strconv.ParseFloat(fields[6], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		// Not the simulator layout after all, let another matcher try.
		return nil, false, nil
	}

	ts := time.Now().UTC()
	if parsed, err := time.ParseInLocation("20060102150405", fields[0], time.UTC); err == nil {
		ts = parsed
	}

	location := &types.LocationReading{
		Valid:     true,
		Latitude:  lat,
		Longitude: lon,
		Altitude:  alt,
		Speed:     speed,
		Heading:   heading,
		Timestamp: ts,
	}
	if len(fields) >= 8 {
		if battery, err := strconv.ParseFloat(fields[7], 64); err == nil {
			location.BatteryLevel = &battery
		}
	}
	return location, true, nil
}

// keyValueMatcher handles lat:<f>,long:<f>,speed:<f> payloads.
var keyValuePattern = regexp.MustCompile(`(?i)lat:(\d+\.\d+),long:(\d+\.\d+),speed:(\d+\.\d+)`)

type keyValueMatcher struct{}

func (keyValueMatcher) Name() string { return "key-value" }

func (keyValueMatcher) Match(data string) (*types.LocationReading, bool, error) {
	m := keyValuePattern.FindStringSubmatch(data)
	if m == nil {
		return nil, false, nil
	}

	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	speed, err3 := strconv.ParseFloat(m[3], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, false, errs.ErrBadMessageFormat
	}

	return &types.LocationReading{
		Valid:     true,
		Latitude:  lat,
		Longitude: lon,
		Speed:     speed,
		Timestamp: time.Now().UTC(),
	}, true, nil
}
