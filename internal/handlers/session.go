package handlers

import (
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/pawtrace/pet-receiver/internal/protocols"
	"github.com/pawtrace/pet-receiver/internal/types"
)

const readBufferSize = 1024

// Session is one tracker connection. The protocol is classified from
// the first bytes received and stays fixed for the connection lifetime.
type Session struct {
	Conn       net.Conn
	Protocol   protocols.Protocol
	DeviceID   string
	ClientIP   string
	LastActive time.Time

	buffer []byte
}

// HandleConnection reads frames until EOF, idle timeout, or shutdown.
// Partial frames are buffered across reads; multiple frames in one
// read are each handled in arrival order.
func (s *TcpServer) HandleConnection(conn net.Conn) {
	session := &Session{
		Conn:       conn,
		ClientIP:   conn.RemoteAddr().String(),
		LastActive: time.Now(),
	}
	defer func() {
		s.registry.Remove(session)
		conn.Close()
		logger.Sugar().Infof("connection %s closed", session.ClientIP)
	}()

	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		n, err := conn.Read(buf)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.Is(err, io.EOF):
			case errors.As(err, &netErr) && netErr.Timeout():
				logger.Sugar().Infof("connection %s idle for %s, closing", session.ClientIP, s.idleTimeout)
			default:
				logger.Warn("read failed", zap.String("remote", session.ClientIP), zap.Error(err))
			}
			return
		}

		session.buffer = append(session.buffer, buf[:n]...)
		session.LastActive = time.Now()

		// A conforming reader may return (0, nil); there is nothing to
		// classify or extract until bytes actually arrive.
		if len(session.buffer) == 0 {
			continue
		}

		if session.Protocol == nil {
			session.Protocol = s.classify(session.buffer[0], session.ClientIP)
		}

		frames, rest := session.Protocol.ExtractMessages(session.buffer)
		session.buffer = rest
		for _, frame := range frames {
			s.handleMessage(session, frame)
		}
	}
}

// classify picks the wire protocol from the first byte received. The
// choice is final: later bytes that resemble the other protocol are
// treated as payload, not a protocol switch.
func (s *TcpServer) classify(first byte, remote string) protocols.Protocol {
	if s.binary.Detect([]byte{first}) {
		return s.binary
	}
	if !s.text.Detect([]byte{first}) {
		logger.Warn("unrecognized first byte, assuming text protocol",
			zap.String("remote", remote),
			zap.Uint8("byte", first))
	}
	return s.text
}

func (s *TcpServer) handleMessage(session *Session, frame []byte) {
	msg, err := session.Protocol.Parse(frame)
	if err != nil {
		logger.Warn("failed to parse frame",
			zap.String("remote", session.ClientIP),
			zap.String("protocol", session.Protocol.Kind().String()),
			zap.Error(err))
		return
	}

	if msg.Identifier != "" {
		if session.DeviceID == "" {
			session.DeviceID = msg.Identifier
			s.registry.Register(session)
			logger.Sugar().Infof("connection %s identified as device %s (%s)",
				session.ClientIP, session.DeviceID, session.Protocol.Kind().String())
		}
		s.registry.Touch(session)
	}

	// Storage failures stay internal; the tracker gets its ack either
	// way so it does not retransmit a frame we cannot use.
	s.bridge.Process(msg)

	s.respond(session, msg)
}

func (s *TcpServer) respond(session *Session, msg *types.DecodedMessage) {
	ack, err := session.Protocol.Respond(msg)
	if err != nil {
		logger.Warn("failed to build response",
			zap.String("deviceId", msg.Identifier),
			zap.Error(err))
		return
	}
	if len(ack) == 0 {
		return
	}
	if _, err := session.Conn.Write(ack); err != nil {
		logger.Warn("failed to write response",
			zap.String("deviceId", msg.Identifier),
			zap.Error(err))
	}
}
