package token

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/pushgate/internal/core/apns"
)

func writeTestKey(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	path := filepath.Join(t.TempDir(), "AuthKey_TEST123.p8")
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write key file: %v", err)
	}
	return path
}

func TestSignerToken(t *testing.T) {
	s, err := NewSigner(writeTestKey(t), "TEST123", "TEAM456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tok, err := s.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parts := strings.Split(tok, "."); len(parts) != 3 {
		t.Errorf("token has %d segments, want 3", len(parts))
	}
}

func TestSignerCachesToken(t *testing.T) {
	s, err := NewSigner(writeTestKey(t), "TEST123", "TEAM456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	s.now = func() time.Time { return now }

	first, err := s.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Within the refresh interval the cached token is reused.
	now = now.Add(10 * time.Minute)
	second, err := s.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected cached token inside refresh interval")
	}

	// Past the interval a new token is signed.
	now = now.Add(refreshInterval)
	third, err := s.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third == first {
		t.Error("expected a fresh token after refresh interval")
	}
}

func TestNewSignerMissingFile(t *testing.T) {
	_, err := NewSigner(filepath.Join(t.TempDir(), "missing.p8"), "K", "T")

	var aerr *apns.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if aerr.Kind() != apns.KindRead {
		t.Errorf("kind = %v, want read", aerr.Kind())
	}
	if aerr.Detail() == "" {
		t.Error("read failure should carry the file error message")
	}
}

func TestNewSignerBadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.p8")
	if err := os.WriteFile(path, []byte("this is not a key"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := NewSigner(path, "K", "T")

	var aerr *apns.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected classified error, got %v", err)
	}
	if aerr.Kind() != apns.KindSigning {
		t.Errorf("kind = %v, want signing", aerr.Kind())
	}
	if !strings.Contains(aerr.Detail(), "PEM") {
		t.Errorf("detail = %q, want the parser's message preserved", aerr.Detail())
	}
}
