// Package token produces the provider tokens that authenticate sends
// against the gateway.
package token

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vietddude/pushgate/internal/core/apns"
)

// The gateway rejects provider tokens older than an hour; re-sign well
// before that.
const refreshInterval = 50 * time.Minute

// Signer signs ES256 provider tokens and caches the result until it is
// due for refresh. Safe for concurrent use.
type Signer struct {
	keyID  string
	teamID string
	key    *ecdsa.PrivateKey

	mu       sync.Mutex
	token    string
	issuedAt time.Time
	now      func() time.Time
}

// NewSigner loads the PKCS#8 private key at path and prepares a signer
// for the given key and team identifiers.
func NewSigner(path, keyID, teamID string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apns.FromRead(err)
	}

	key, err := parseKey(data)
	if err != nil {
		return nil, apns.FromSigning(err)
	}

	return &Signer{
		keyID:  keyID,
		teamID: teamID,
		key:    key,
		now:    time.Now,
	}, nil
}

func parseKey(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found in key data")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is %T, want an ECDSA private key", parsed)
	}
	return key, nil
}

// Token returns a signed provider token, re-signing once the cached one
// reaches the refresh interval.
func (s *Signer) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Sub(s.issuedAt) < refreshInterval {
		return s.token, nil
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": s.teamID,
		"iat": now.Unix(),
	})
	tok.Header["kid"] = s.keyID

	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", apns.FromSigning(err)
	}

	s.token = signed
	s.issuedAt = now
	return signed, nil
}
