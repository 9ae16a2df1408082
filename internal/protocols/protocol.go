package protocols

import (
	"github.com/pawtrace/pet-receiver/internal/types"
)

// Protocol is implemented once per wire protocol. A connection's protocol
// is detected from its first bytes and never changes afterwards.
type Protocol interface {
	Kind() types.ProtocolKind

	// Detect reports whether the first bytes of a connection belong to
	// this protocol.
	Detect(firstBytes []byte) bool

	// ExtractMessages pulls every complete message out of the receive
	// buffer and returns the remainder to keep for the next read.
	ExtractMessages(buffer []byte) (messages [][]byte, remainder []byte)

	// Parse decodes one complete wire message. A nil error means the
	// message carries at least a device identifier.
	Parse(raw []byte) (*types.DecodedMessage, error)

	// Respond builds the protocol-appropriate acknowledgment for a
	// decoded message.
	Respond(msg *types.DecodedMessage) ([]byte, error)
}
