package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionTTL = 300 * time.Second

// SessionRegistry tracks which connection currently serves each device.
// The in-process map is authoritative; when a redis client is attached
// the mapping is mirrored there so other services can locate devices.
type SessionRegistry struct {
	sessions sync.Map // deviceID -> *Session
	redis    *redis.Client
	ctx      context.Context
}

func NewSessionRegistry(redisClient *redis.Client) *SessionRegistry {
	return &SessionRegistry{redis: redisClient, ctx: context.Background()}
}

func sessionKey(deviceID string) string {
	return fmt.Sprintf("pet:sess:%s", deviceID)
}

func (r *SessionRegistry) Register(session *Session) {
	if session.DeviceID == "" {
		return
	}
	r.sessions.Store(session.DeviceID, session)

	if r.redis == nil {
		return
	}
	err := r.redis.Set(r.ctx, sessionKey(session.DeviceID), session.ClientIP, sessionTTL).Err()
	if err != nil {
		logger.Warn("failed to mirror session to redis", zap.String("deviceId", session.DeviceID), zap.Error(err))
	}
}

// Touch refreshes the TTL on every decoded message from the device.
func (r *SessionRegistry) Touch(session *Session) {
	if session.DeviceID == "" || r.redis == nil {
		return
	}
	r.redis.Expire(r.ctx, sessionKey(session.DeviceID), sessionTTL)
}

func (r *SessionRegistry) Remove(session *Session) {
	if session.DeviceID == "" {
		return
	}
	// Only drop the mapping if it still points at this session; the
	// device may already have reconnected on a fresh socket.
	if current, ok := r.sessions.Load(session.DeviceID); ok && current == session {
		r.sessions.Delete(session.DeviceID)
		if r.redis != nil {
			r.redis.Del(r.ctx, sessionKey(session.DeviceID))
		}
	}
}

func (r *SessionRegistry) Lookup(deviceID string) (*Session, bool) {
	value, ok := r.sessions.Load(deviceID)
	if !ok {
		return nil, false
	}
	return value.(*Session), true
}

func (r *SessionRegistry) Count() int {
	count := 0
	r.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
