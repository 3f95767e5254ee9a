package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"onboarding-service/internal/client"
	"onboarding-service/internal/models"
	"onboarding-service/internal/util"
)

const sessionPrefix = "admin_session:"

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = fmt.Errorf("session not found")

// SessionCache stores admin dashboard sessions in Redis. Expiry is delegated
// to the key TTL; an expired cookie simply stops resolving.
type SessionCache struct {
	client *client.RedisClient
}

func NewSessionCache(client *client.RedisClient) *SessionCache {
	return &SessionCache{client: client}
}

func (c *SessionCache) Set(session *models.AdminSession, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := sessionPrefix + session.SessionID
	if err := c.client.Set(ctx, key, string(data), ttl); err != nil {
		util.Error("Failed to store session",
			zap.String("admin_id", session.AdminID),
			zap.Error(err))
		return fmt.Errorf("failed to store session: %w", err)
	}

	util.Debug("Session stored",
		zap.String("admin_id", session.AdminID),
		zap.Duration("ttl", ttl))

	return nil
}

func (c *SessionCache) Get(sessionID string) (*models.AdminSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := sessionPrefix + sessionID

	data, err := c.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		util.Error("Failed to get session", zap.Error(err))
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session := &models.AdminSession{}
	if err := json.Unmarshal([]byte(data), session); err != nil {
		util.Error("Corrupt session payload", zap.Error(err))
		return nil, fmt.Errorf("corrupt session payload: %w", err)
	}

	return session, nil
}

func (c *SessionCache) Delete(sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := sessionPrefix + sessionID
	if err := c.client.Del(ctx, key); err != nil {
		util.Error("Failed to delete session", zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// Refresh extends a live session's TTL on activity.
func (c *SessionCache) Refresh(sessionID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := sessionPrefix + sessionID
	if err := c.client.Expire(ctx, key, ttl); err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	return nil
}
