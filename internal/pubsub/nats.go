package pubsub

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// NatsPublisher publishes JSON payloads to devices.<id>.<kind> subjects.
type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.Name("pet-receiver"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to nats at %s", url)
	}
	return &NatsPublisher{conn: conn}, nil
}

func (p *NatsPublisher) PublishDeviceData(deviceID, kind string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payload")
	}
	subject := fmt.Sprintf("devices.%s.%s", deviceID, kind)
	return errors.Wrapf(p.conn.Publish(subject, data), "failed to publish to %s", subject)
}

func (p *NatsPublisher) Close() {
	p.conn.Drain()
}
