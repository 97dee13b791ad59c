package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager issues and resolves opaque bearer tokens backed by Redis.
type SessionManager struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

// Session holds the resolved identity for one bearer token.
type Session struct {
	Token     string    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"ua,omitempty"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Issue creates a session for userID and stores it under a fresh token.
func (sm *SessionManager) Issue(ctx context.Context, userID uuid.UUID, ip, ua string) (*Session, error) {
	if userID == uuid.Nil {
		return nil, errors.New("shared: session requires user id")
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &Session{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(sm.ttl),
		IP:        ip,
		UserAgent: ua,
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.Token), payload, sm.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load resolves the bearer token on the request. A missing or unknown token
// yields a nil session, not an error.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, nil
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(time.Now().UTC()) {
		_ = sm.Revoke(ctx, token)
		return nil, nil
	}
	return &sess, nil
}

// Revoke deletes the session behind token.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return sm.client.Del(ctx, sm.redisKey(token)).Err()
}

// Storage keys are an HMAC of the token, never the token itself.
func (sm *SessionManager) redisKey(token string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(token))
	return "grupetto:session:" + hex.EncodeToString(mac.Sum(nil))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
