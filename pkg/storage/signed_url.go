package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner issues short lived tokens granting read access to one stored key.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token binding the subject (for example an import job id) to key.
func (s *SignedURLSigner) Generate(subject, key string) (string, time.Time, error) {
	if subject == "" || key == "" {
		return "", time.Time{}, fmt.Errorf("subject and key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedKey := base64.RawURLEncoding.EncodeToString([]byte(key))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{subject, ts, encodedKey, s.sign(subject, ts, encodedKey)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the subject and key it grants.
func (s *SignedURLSigner) Parse(token string) (subject, key string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("invalid token format")
	}
	subject, ts, encodedKey, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(subject, ts, encodedKey)), []byte(signature)) {
		return "", "", fmt.Errorf("invalid token signature")
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid timestamp")
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("token expired")
	}
	raw, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return "", "", fmt.Errorf("decode key: %w", err)
	}
	return subject, string(raw), nil
}

func (s *SignedURLSigner) sign(subject, ts, encodedKey string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(subject + "|" + ts + "|" + encodedKey))
	return hex.EncodeToString(mac.Sum(nil))
}
