package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is the server-side state behind a bearer token. The access token
// handed to the console is a signed JWT carrying the session ID, so every
// token stays revocable through Redis.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionManager orchestrates bearer-token sessions backed by Redis.
type SessionManager struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, secret: []byte(secret), ttl: ttl}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Create opens a session for the user and returns the signed access token.
func (sm *SessionManager) Create(ctx context.Context, userID int64, email string) (*Session, string, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, "", err
	}
	if err := sm.client.Set(ctx, sm.sessionKey(sess.ID), payload, sm.ttl).Err(); err != nil {
		return nil, "", fmt.Errorf("shared/session: store: %w", err)
	}
	if err := sm.client.SAdd(ctx, sm.userKey(userID), sess.ID).Err(); err != nil {
		return nil, "", fmt.Errorf("shared/session: index: %w", err)
	}
	_ = sm.client.Expire(ctx, sm.userKey(userID), sm.ttl).Err()

	claims := sessionClaims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.CreatedAt.Add(sm.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.secret)
	if err != nil {
		return nil, "", fmt.Errorf("shared/session: sign: %w", err)
	}
	return sess, token, nil
}

// Authenticate verifies a bearer token and loads the backing session.
func (sm *SessionManager) Authenticate(ctx context.Context, bearer string) (*Session, error) {
	sid, err := sm.verify(bearer)
	if err != nil {
		return nil, E(CodeUnauthorized, "invalid access token")
	}
	return sm.Load(ctx, sid)
}

// Load fetches a session by ID.
func (sm *SessionManager) Load(ctx context.Context, id string) (*Session, error) {
	payload, err := sm.client.Get(ctx, sm.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, E(CodeUnauthorized, "session expired")
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Destroy removes a session.
func (sm *SessionManager) Destroy(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	if err := sm.client.Del(ctx, sm.sessionKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return sm.client.SRem(ctx, sm.userKey(sess.UserID), sess.ID).Err()
}

// RevokeAll removes every live session belonging to the user. Returns the
// number of sessions revoked.
func (sm *SessionManager) RevokeAll(ctx context.Context, userID int64) (int, error) {
	ids, err := sm.client.SMembers(ctx, sm.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	revoked := 0
	for _, id := range ids {
		if n, err := sm.client.Del(ctx, sm.sessionKey(id)).Result(); err == nil {
			revoked += int(n)
		}
	}
	if err := sm.client.Del(ctx, sm.userKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return revoked, err
	}
	return revoked, nil
}

// HasLiveSession reports whether the user has at least one live session.
func (sm *SessionManager) HasLiveSession(ctx context.Context, userID int64) (bool, error) {
	ids, err := sm.client.SMembers(ctx, sm.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	for _, id := range ids {
		n, err := sm.client.Exists(ctx, sm.sessionKey(id)).Result()
		if err == nil && n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// PeekToken extracts the session ID and user ID from a signed token while
// skipping expiry checks. Session cleanup must identify the caller behind an
// already-expired token, but only tokens this service issued may drive it, so
// the signature is still verified.
func (sm *SessionManager) PeekToken(bearer string) (sessionID string, userID int64, ok bool) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(bearer), &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return sm.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", 0, false
	}
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return claims.SessionID, uid, claims.SessionID != ""
}

func (sm *SessionManager) verify(bearer string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(bearer), &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return sm.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.SessionID == "" {
		return "", errors.New("missing session id")
	}
	return claims.SessionID, nil
}

func (sm *SessionManager) sessionKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) userKey(userID int64) string {
	return "user_sessions:" + strconv.FormatInt(userID, 10)
}
