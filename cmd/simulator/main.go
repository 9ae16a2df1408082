package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"time"

	configuredLogger "github.com/pawtrace/pet-receiver/internal/logger"
	"github.com/pawtrace/pet-receiver/internal/protocols/jt808"
	"github.com/pawtrace/pet-receiver/internal/types"
)

var logger = configuredLogger.Logger

// Simulates a tracker walking a small circle around a fixed point,
// battery slowly draining, for smoke-testing a running receiver.
func main() {
	var addr = flag.String("addr", "127.0.0.1:8082", "Receiver address")
	var mode = flag.String("mode", "text", "Protocol to speak - one of text or binary")
	var deviceID = flag.String("device", "DEV01", "Device id (text mode)")
	var imei = flag.String("imei", "123456789012345", "IMEI (text mode)")
	var phone = flag.String("phone", "013456789012", "Phone number (binary mode)")
	var count = flag.Int("count", 10, "Number of location reports to send")
	var interval = flag.Duration("interval", 2*time.Second, "Delay between reports")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logger.Sugar().Fatalf("failed to connect to %s: %v", *addr, err)
	}
	defer conn.Close()

	switch *mode {
	case "text":
		runText(conn, *deviceID, *imei, *count, *interval)
	case "binary":
		runBinary(conn, *phone, *count, *interval)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		flag.PrintDefaults()
		os.Exit(1)
	}
}

func runText(conn net.Conn, deviceID, imei string, count int, interval time.Duration) {
	send(conn, []byte(fmt.Sprintf("*ID,IMEI:%s,%s#", imei, types.TextCmd_Login)))

	battery := 99.0
	for i := 0; i < count; i++ {
		lat, lon := walk(i)
		msg := fmt.Sprintf("*ID,IMEI:%s,%s,%s,%s,%f,%f,10.0,1.2,90.0,%.1f#",
			imei, types.TextCmd_GPS, time.Now().UTC().Format("20060102150405"), deviceID,
			lat, lon, battery)
		send(conn, []byte(msg))
		battery -= 0.1
		time.Sleep(interval)
	}
}

func runBinary(conn net.Conn, phone string, count int, interval time.Duration) {
	send(conn, jt808.BuildFrame(types.MsgID_TerminalRegistration, phone, 1, registrationBody()))
	send(conn, jt808.BuildFrame(types.MsgID_TerminalAuthentication, phone, 2, []byte("SUCCESS")))
	send(conn, jt808.BuildFrame(types.MsgID_Heartbeat, phone, 3, nil))

	battery := 99.0
	activity := 40.0
	temperature := 38.4
	flags := uint16(0)
	for i := 0; i < count; i++ {
		lat, lon := walk(i)
		reading := &types.LocationReading{
			Valid:         true,
			Latitude:      lat,
			Longitude:     lon,
			Altitude:      10,
			Speed:         4.3,
			Heading:       float64((i * 36) % 360),
			Timestamp:     time.Now().UTC().Truncate(time.Second),
			BatteryLevel:  &battery,
			ActivityLevel: &activity,
			HealthFlags:   &flags,
			Temperature:   &temperature,
		}
		send(conn, jt808.BuildLocationReport(phone, uint16(4+i), 0, reading))
		battery -= 0.1
		time.Sleep(interval)
	}
}

func registrationBody() []byte {
	body := make([]byte, 0, 40)
	body = binary.BigEndian.AppendUint16(body, 44)  // province
	body = binary.BigEndian.AppendUint16(body, 307) // city
	body = append(body, []byte("PAWTR")...)
	model := make([]byte, 20)
	copy(model, "PT-100")
	body = append(body, model...)
	body = append(body, []byte("PT00001")...)
	body = append(body, 0) // plate color
	return body
}

func walk(step int) (lat, lon float64) {
	angle := float64(step) * 2 * math.Pi / 20
	return 37.7749 + 0.0005*math.Sin(angle), -122.4194 + 0.0005*math.Cos(angle)
}

func send(conn net.Conn, frame []byte) {
	if _, err := conn.Write(frame); err != nil {
		logger.Sugar().Fatalf("write failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		logger.Sugar().Warnf("no ack: %v", err)
		return
	}
	logger.Sugar().Infof("ack: %x", buf[:n])
}
