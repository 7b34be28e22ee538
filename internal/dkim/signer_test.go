package dkim

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func writeKeyFile(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.key")
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewSigner(t *testing.T) {
	signer := NewSigner(generateTestKey(t), "example.com", "blast")

	if signer.Domain() != "example.com" {
		t.Errorf("Domain() = %q, want %q", signer.Domain(), "example.com")
	}
	if signer.Selector() != "blast" {
		t.Errorf("Selector() = %q, want %q", signer.Selector(), "blast")
	}
}

func TestNewSignerFromFile(t *testing.T) {
	keyPath := writeKeyFile(t, generateTestKey(t))

	t.Run("valid key file", func(t *testing.T) {
		signer, err := NewSignerFromFile(keyPath, "example.com", "blast")
		if err != nil {
			t.Fatalf("NewSignerFromFile failed: %v", err)
		}
		if signer.Domain() != "example.com" {
			t.Errorf("Domain() = %q, want %q", signer.Domain(), "example.com")
		}
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := NewSignerFromFile("/nonexistent/key.pem", "example.com", "blast")
		if err == nil {
			t.Error("expected error for non-existent file")
		}
	})

	t.Run("not a pem file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.key")
		if err := os.WriteFile(path, []byte("not a key"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := NewSignerFromFile(path, "example.com", "blast"); err == nil {
			t.Error("expected error for non-PEM file")
		}
	})
}

func TestSign(t *testing.T) {
	signer := NewSigner(generateTestKey(t), "example.com", "blast")

	message := []byte("From: sender@example.com\r\n" +
		"To: rcpt@example.com\r\n" +
		"Subject: Test\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
		"Message-ID: <test@example.com>\r\n" +
		"\r\n" +
		"Hello.\r\n")

	signed, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if !strings.Contains(string(signed), "DKIM-Signature:") {
		t.Error("signed message missing DKIM-Signature header")
	}
	if !strings.Contains(string(signed), "d=example.com") {
		t.Error("signature missing domain tag")
	}
	if !strings.Contains(string(signed), "s=blast") {
		t.Error("signature missing selector tag")
	}
	if !strings.HasSuffix(string(signed), "Hello.\r\n") {
		t.Error("signed message body altered")
	}
}
