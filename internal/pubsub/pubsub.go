package pubsub

// Publisher is the opaque publish sink for live telemetry. Payloads are
// keyed by device identifier and a kind suffix (location, status,
// pet_data). Implementations must be safe for concurrent use.
type Publisher interface {
	PublishDeviceData(deviceID, kind string, payload map[string]any) error
	Close()
}

// Payload kinds.
const (
	KindLocation = "location"
	KindStatus   = "status"
	KindPetData  = "pet_data"
)

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishDeviceData(string, string, map[string]any) error { return nil }
func (NopPublisher) Close()                                                 {}
