package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	configuredLogger "github.com/pawtrace/pet-receiver/internal/logger"
)

var logger = configuredLogger.Logger

// ReadingRecord is one decoded reading as written to the json-lines file.
type ReadingRecord struct {
	DeviceID     string    `json:"device_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Altitude     float64   `json:"altitude"`
	Speed        float64   `json:"speed"`
	Heading      float64   `json:"heading"`
	Timestamp    time.Time `json:"timestamp"`
	BatteryLevel *float64  `json:"battery_level,omitempty"`
}

// JsonLinesStore appends readings to a local file, one JSON object per
// line. It is the storage backend for running without a database.
type JsonLinesStore struct {
	File        *os.File
	ProcessChan chan ReadingRecord
	CloseChan   chan bool
}

func NewJsonLinesStore(path string) (*JsonLinesStore, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JsonLinesStore{
		File:        file,
		ProcessChan: make(chan ReadingRecord, 200),
		CloseChan:   make(chan bool, 1),
	}, nil
}

func (s *JsonLinesStore) Process() {
	for {
		select {
		case record := <-s.ProcessChan:
			b, err := json.Marshal(record)
			if err != nil {
				logger.Error("failed to write record to file", zap.String("deviceId", record.DeviceID), zap.Error(err))
				continue
			}
			fmt.Fprintln(s.File, string(b))
			s.File.Sync()
		case <-s.CloseChan:
			s.File.Close()
			return
		}
	}
}

func (s *JsonLinesStore) Log(record ReadingRecord) {
	select {
	case s.ProcessChan <- record:
	default:
		logger.Warn("reading log backlog full, dropping record", zap.String("deviceId", record.DeviceID))
	}
}

func (s *JsonLinesStore) Close() {
	s.CloseChan <- true
}
