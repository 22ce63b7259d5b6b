package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenSigner issues HMAC-signed download tokens that embed the job ID,
// the archived file path and an expiry. Tokens are self-contained, so
// verifying one needs no lookup beyond the shared secret.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenSigner builds a signer. A non-positive ttl falls back to 24h.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}
}

// Sign returns a token for the given job and archive path together with
// the moment it stops being valid.
func (t *TokenSigner) Sign(jobID, rel string) (string, time.Time, error) {
	if jobID == "" || rel == "" {
		return "", time.Time{}, fmt.Errorf("job id and path are required")
	}
	if len(t.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret is empty")
	}
	expiresAt := time.Now().Add(t.ttl)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	path := base64.RawURLEncoding.EncodeToString([]byte(rel))
	sig := t.sign(jobID, exp, path)
	return strings.Join([]string{jobID, exp, path, sig}, "."), expiresAt, nil
}

// Verify checks a token's signature and expiry and returns the embedded
// job ID and archive path.
func (t *TokenSigner) Verify(token string) (jobID, rel string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("malformed token")
	}
	jobID = parts[0]

	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("malformed token expiry")
	}
	expiresAt = time.Unix(expUnix, 0)

	rawPath, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("malformed token path")
	}

	want := t.sign(jobID, parts[1], parts[2])
	if !hmac.Equal([]byte(want), []byte(parts[3])) {
		return "", "", time.Time{}, fmt.Errorf("token signature mismatch")
	}
	if time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return jobID, string(rawPath), expiresAt, nil
}

func (t *TokenSigner) sign(jobID, exp, path string) string {
	mac := hmac.New(sha256.New, t.secret)
	fmt.Fprintf(mac, "%s\n%s\n%s", jobID, exp, path)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
