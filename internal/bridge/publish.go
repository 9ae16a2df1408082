package bridge

import (
	"go.uber.org/zap"

	"github.com/pawtrace/pet-receiver/internal/pubsub"
	"github.com/pawtrace/pet-receiver/internal/types"
)

// publish fans the message out to the pub/sub sink. Publish failures
// are logged and swallowed; the broker is best-effort.
func (b *Bridge) publish(msg *types.DecodedMessage) {
	if b.publisher == nil {
		return
	}

	if msg.Location != nil {
		b.publishOne(msg.Identifier, pubsub.KindLocation, locationPayload(msg.Location, msg.Status))
		b.PublishPetTelemetry(msg.Identifier, msg.Location)
	}

	switch msg.MessageType {
	case types.MsgID_Heartbeat, types.MsgID_TerminalRegistration, types.MsgID_TerminalAuthentication, types.MsgID_TerminalLogout:
		b.publishOne(msg.Identifier, pubsub.KindStatus, statusPayload(msg))
	default:
		if msg.Protocol == types.ProtocolKind_TEXT808 && msg.Location == nil {
			b.publishOne(msg.Identifier, pubsub.KindStatus, statusPayload(msg))
		}
	}
}

// PublishPetTelemetry routes a reading's pet extension fields to the
// sink. A reading without pet fields publishes nothing.
func (b *Bridge) PublishPetTelemetry(identifier string, reading *types.LocationReading) {
	if b.publisher == nil {
		return
	}
	if pet := petPayload(reading); pet != nil {
		b.publishOne(identifier, pubsub.KindPetData, pet)
	}
}

func (b *Bridge) publishOne(deviceID, kind string, payload map[string]any) {
	if err := b.publisher.PublishDeviceData(deviceID, kind, payload); err != nil {
		logger.Error("publish failed",
			zap.String("deviceId", deviceID),
			zap.String("kind", kind),
			zap.Error(err))
	}
}

// locationPayload carries the reading plus the decomposed status bits
// when the report had a status word.
func locationPayload(loc *types.LocationReading, status *types.StatusFields) map[string]any {
	payload := map[string]any{
		"valid":     loc.Valid,
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
		"altitude":  loc.Altitude,
		"speed":     loc.Speed,
		"heading":   loc.Heading,
		"timestamp": loc.Timestamp,
	}
	if status != nil {
		payload["acc_on"] = status.AccOn
		payload["positioned"] = status.Positioned
		payload["moving"] = status.Moving
		payload["status_raw"] = status.Raw
	}
	if loc.BatteryLevel != nil {
		payload["battery_level"] = *loc.BatteryLevel
	}
	if loc.Satellites != nil {
		payload["satellites"] = *loc.Satellites
	}
	if loc.Mileage != nil {
		payload["mileage"] = *loc.Mileage
	}
	if loc.Fuel != nil {
		payload["fuel"] = *loc.Fuel
	}
	if loc.Signal != nil {
		payload["signal"] = *loc.Signal
	}
	return payload
}

// petPayload extracts the pet health extension fields, nil when the
// reading carries none.
func petPayload(loc *types.LocationReading) map[string]any {
	payload := map[string]any{}
	if loc.BatteryLevel != nil {
		payload["battery_level"] = *loc.BatteryLevel
	}
	if loc.ActivityLevel != nil {
		payload["activity_level"] = *loc.ActivityLevel
	}
	if loc.HealthFlags != nil {
		payload["health_flags"] = *loc.HealthFlags
		payload["temperature_warning"] = *loc.HealthFlags&types.HealthFlag_TempWarning != 0
		payload["inactivity_alert"] = *loc.HealthFlags&types.HealthFlag_Inactivity != 0
		payload["abnormal_movement"] = *loc.HealthFlags&types.HealthFlag_AbnormalMovement != 0
		payload["distress"] = *loc.HealthFlags&types.HealthFlag_Distress != 0
	}
	if loc.Temperature != nil {
		payload["temperature"] = *loc.Temperature
	}
	if loc.ActivityLevel == nil && loc.HealthFlags == nil && loc.Temperature == nil {
		return nil
	}
	return payload
}

func statusPayload(msg *types.DecodedMessage) map[string]any {
	payload := map[string]any{
		"protocol": msg.Protocol.String(),
		"event":    types.MsgIDName(msg.MessageType),
	}
	if msg.Protocol == types.ProtocolKind_TEXT808 {
		payload["event"] = msg.RawCommand
	}
	if msg.Registration != nil {
		payload["manufacturer"] = msg.Registration.ManufacturerID
		payload["model"] = msg.Registration.TerminalModel
		payload["terminal_id"] = msg.Registration.TerminalID
		if msg.Registration.Plate != "" {
			payload["plate"] = msg.Registration.Plate
		}
	}
	if msg.AuthCode != "" {
		payload["auth_code"] = msg.AuthCode
	}
	if msg.Status != nil {
		payload["acc_on"] = msg.Status.AccOn
		payload["positioned"] = msg.Status.Positioned
		payload["moving"] = msg.Status.Moving
	}
	return payload
}
