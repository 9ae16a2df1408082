package bridge

import (
	"time"

	"go.uber.org/zap"

	errs "github.com/pawtrace/pet-receiver/internal/errors"
	configuredLogger "github.com/pawtrace/pet-receiver/internal/logger"
	"github.com/pawtrace/pet-receiver/internal/pubsub"
	"github.com/pawtrace/pet-receiver/internal/store"
	"github.com/pawtrace/pet-receiver/internal/types"
)

var logger = configuredLogger.Logger

// ReadingLogger receives every persisted reading, e.g. the json-lines
// store in dev mode.
type ReadingLogger interface {
	Log(record store.ReadingRecord)
}

// Bridge resolves decoded messages to device records and applies their
// storage and publish side effects. It is safe for concurrent use from
// the per-connection workers; the store and publisher provide their own
// synchronization.
type Bridge struct {
	store      store.Store
	publisher  pubsub.Publisher
	readingLog ReadingLogger
	now        func() time.Time
}

func New(s store.Store, p pubsub.Publisher) *Bridge {
	return &Bridge{store: s, publisher: p, now: func() time.Time { return time.Now().UTC() }}
}

// WithReadingLog attaches an optional reading audit sink.
func (b *Bridge) WithReadingLog(l ReadingLogger) *Bridge {
	b.readingLog = l
	return b
}

// Resolve maps a wire identifier to a device record: exact device id,
// exact IMEI, then partial matches, first hit wins. No match returns
// (nil, nil); the receiver never auto-provisions devices.
func (b *Bridge) Resolve(identifier string) (*store.Device, error) {
	if identifier == "" {
		return nil, nil
	}
	lookups := []func(string) (*store.Device, error){
		b.store.FindByDeviceID,
		b.store.FindByIMEI,
		b.store.FindByDeviceIDPartial,
		b.store.FindByIMEIPartial,
	}
	for _, lookup := range lookups {
		device, err := lookup(identifier)
		if err != nil {
			return nil, err
		}
		if device != nil {
			return device, nil
		}
	}
	return nil, nil
}

// Process applies one decoded message. Unknown devices are dropped with
// a warning. Persistence failures roll back and are logged; they never
// reach the socket layer.
func (b *Bridge) Process(msg *types.DecodedMessage) error {
	device, err := b.Resolve(msg.Identifier)
	if err != nil {
		logger.Error("device resolution failed", zap.String("identifier", msg.Identifier), zap.Error(err))
		return err
	}
	if device == nil {
		logger.Warn("message from unregistered device, dropping",
			zap.String("identifier", msg.Identifier),
			zap.String("protocol", msg.Protocol.String()))
		return errs.ErrUnknownDevice
	}

	battery := messageBattery(msg)

	err = b.store.InTx(func(tx store.Store) error {
		now := b.now()
		device.LastPing = &now
		if battery != nil && *battery != device.BatteryLevel {
			device.BatteryLevel = *battery
		}
		if err := tx.SaveDevice(device); err != nil {
			return err
		}

		if msg.Location != nil && msg.Location.Valid {
			return tx.SaveLocation(&store.Location{
				DeviceRef:    device.ID,
				Latitude:     msg.Location.Latitude,
				Longitude:    msg.Location.Longitude,
				Altitude:     msg.Location.Altitude,
				Speed:        msg.Location.Speed,
				Heading:      msg.Location.Heading,
				Timestamp:    msg.Location.Timestamp,
				BatteryLevel: &device.BatteryLevel,
			})
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to persist message, rolled back",
			zap.String("identifier", msg.Identifier), zap.Error(err))
	}

	if err == nil && b.readingLog != nil && msg.Location != nil && msg.Location.Valid {
		b.readingLog.Log(store.ReadingRecord{
			DeviceID:     device.DeviceID,
			Latitude:     msg.Location.Latitude,
			Longitude:    msg.Location.Longitude,
			Altitude:     msg.Location.Altitude,
			Speed:        msg.Location.Speed,
			Heading:      msg.Location.Heading,
			Timestamp:    msg.Location.Timestamp,
			BatteryLevel: msg.Location.BatteryLevel,
		})
	}

	b.publish(msg)
	return nil
}

// RecordHeartbeat updates liveness for an already resolved device.
func (b *Bridge) RecordHeartbeat(device *store.Device) error {
	now := b.now()
	device.LastPing = &now
	return b.store.SaveDevice(device)
}

// RecordLocation persists one valid reading for an already resolved
// device.
func (b *Bridge) RecordLocation(device *store.Device, reading *types.LocationReading) error {
	return b.store.SaveLocation(&store.Location{
		DeviceRef:    device.ID,
		Latitude:     reading.Latitude,
		Longitude:    reading.Longitude,
		Altitude:     reading.Altitude,
		Speed:        reading.Speed,
		Heading:      reading.Heading,
		Timestamp:    reading.Timestamp,
		BatteryLevel: reading.BatteryLevel,
	})
}

func messageBattery(msg *types.DecodedMessage) *float64 {
	if msg.Location != nil && msg.Location.BatteryLevel != nil {
		return msg.Location.BatteryLevel
	}
	if msg.Status != nil && msg.Status.BatteryLevel != nil {
		return msg.Status.BatteryLevel
	}
	return nil
}
