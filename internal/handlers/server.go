package handlers

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pawtrace/pet-receiver/internal/bridge"
	configuredLogger "github.com/pawtrace/pet-receiver/internal/logger"
	"github.com/pawtrace/pet-receiver/internal/protocols/jt808"
	"github.com/pawtrace/pet-receiver/internal/protocols/text808"
)

var logger = configuredLogger.Logger

const (
	defaultIdleTimeout = 60 * time.Second
	bindRetryDelay     = 2 * time.Second
)

// TcpServer accepts tracker connections and runs one session per
// connection until EOF, idle timeout, or shutdown.
type TcpServer struct {
	addr        string
	idleTimeout time.Duration
	bindRetries int

	bridge   *bridge.Bridge
	registry *SessionRegistry
	text     *text808.Text808Protocol
	binary   *jt808.JT808Protocol

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewTcpServer(addr, authCode string, idleTimeout time.Duration, bindRetries int, b *bridge.Bridge, registry *SessionRegistry) *TcpServer {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TcpServer{
		addr:        addr,
		idleTimeout: idleTimeout,
		bindRetries: bindRetries,
		bridge:      b,
		registry:    registry,
		text:        text808.NewProtocol(),
		binary:      jt808.NewProtocol(authCode),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start binds the listen socket, retrying a few times so restarts do
// not race the kernel releasing the old socket, then begins accepting.
func (s *TcpServer) Start() error {
	listener, err := s.bind()
	if err != nil {
		return err
	}
	s.listener = listener
	logger.Sugar().Infof("listening for trackers on %s", s.addr)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *TcpServer) bind() (net.Listener, error) {
	var lastErr error
	for attempt := 0; attempt <= s.bindRetries; attempt++ {
		listener, err := net.Listen("tcp", s.addr)
		if err == nil {
			return listener, nil
		}
		lastErr = err
		logger.Warn("failed to bind, retrying",
			zap.String("addr", s.addr),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		time.Sleep(bindRetryDelay)
	}
	return nil, lastErr
}

func (s *TcpServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				logger.Error("accept failed", zap.Error(err))
				continue
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.HandleConnection(conn)
		}()
	}
}

// Stop closes the listener and all live sessions, then waits for the
// per-connection goroutines to drain.
func (s *TcpServer) Stop() {
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.registry.sessions.Range(func(_, value any) bool {
		value.(*Session).Conn.Close()
		return true
	})
	s.wg.Wait()
}
