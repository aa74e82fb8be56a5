package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// ConfirmTokenDuration is how long an email confirmation link stays valid
	ConfirmTokenDuration = 24 * time.Hour

	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_session:"
	confirmKeyPrefix     = "confirm:"
)

// SessionService stores opaque session and email-confirmation tokens in Redis.
type SessionService struct {
	redis *redis.Client
}

func NewSessionService(client *redis.Client) *SessionService {
	return &SessionService{redis: client}
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// Create creates a new session for a user. An existing session for the same
// user is invalidated first, so the 7-day timer resets from the current login.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	_ = s.InvalidateUser(ctx, userID)

	token, err := randomToken()
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	userSessionKey := userSessionKeyPrefix + userID.String()

	if err := s.redis.Set(ctx, sessionKey, userID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, userSessionKey, token, SessionDuration).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Validate checks a session token and returns the user ID it belongs to.
func (s *SessionService) Validate(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	userIDStr, err := s.redis.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

// Invalidate removes a session.
func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	sessionKey := sessionKeyPrefix + token
	if userIDStr, err := s.redis.Get(ctx, sessionKey).Result(); err == nil && userIDStr != "" {
		s.redis.Del(ctx, userSessionKeyPrefix+userIDStr)
	}
	return s.redis.Del(ctx, sessionKey).Err()
}

// InvalidateUser removes any session held by the user (password change, resend
// of a fresh login).
func (s *SessionService) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	userSessionKey := userSessionKeyPrefix + userID.String()
	if token, err := s.redis.Get(ctx, userSessionKey).Result(); err == nil && token != "" {
		s.redis.Del(ctx, sessionKeyPrefix+token)
	}
	return s.redis.Del(ctx, userSessionKey).Err()
}

// CreateConfirmToken issues an email confirmation token for a new account.
func (s *SessionService) CreateConfirmToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, confirmKeyPrefix+token, userID.String(), ConfirmTokenDuration).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeConfirmToken validates and deletes a confirmation token (single use).
func (s *SessionService) ConsumeConfirmToken(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	key := confirmKeyPrefix + token
	userIDStr, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}
	s.redis.Del(ctx, key)

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}
