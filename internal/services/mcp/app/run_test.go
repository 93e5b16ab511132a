package app

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTestCertificate writes a self-signed certificate and key pair under dir.
func writeTestCertificate(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("serial number: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	certPath = filepath.Join(dir, "test.crt")
	certOut, err := os.Create(certPath)
	if err != nil {
		t.Fatalf("create cert file: %v", err)
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: certDER}); err != nil {
		t.Fatalf("encode cert: %v", err)
	}

	keyPath = filepath.Join(dir, "test.key")
	keyOut, err := os.Create(keyPath)
	if err != nil {
		t.Fatalf("create key file: %v", err)
	}
	defer keyOut.Close()
	keyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	if err := pem.Encode(keyOut, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}); err != nil {
		t.Fatalf("encode key: %v", err)
	}

	return certPath, keyPath
}

func TestRunRejectsInvalidTransport(t *testing.T) {
	err := Run(context.Background(), Config{Transport: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for invalid transport")
	}
	if !strings.Contains(err.Error(), "invalid transport") {
		t.Errorf("expected 'invalid transport' in error, got: %v", err)
	}
}

func TestLoadTLSFromEnv(t *testing.T) {
	t.Run("unset returns nil config", func(t *testing.T) {
		t.Setenv("OPENRECHEV_MCP_TLS_CERT", "")
		t.Setenv("OPENRECHEV_MCP_TLS_KEY", "")

		cfg, err := loadTLSFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg != nil {
			t.Fatal("expected nil TLS config when unset")
		}
	})

	t.Run("cert without key is an error", func(t *testing.T) {
		t.Setenv("OPENRECHEV_MCP_TLS_CERT", "/tmp/cert.pem")
		t.Setenv("OPENRECHEV_MCP_TLS_KEY", "")

		_, err := loadTLSFromEnv()
		if err == nil {
			t.Fatal("expected error for cert without key")
		}
	})

	t.Run("key without cert is an error", func(t *testing.T) {
		t.Setenv("OPENRECHEV_MCP_TLS_CERT", "")
		t.Setenv("OPENRECHEV_MCP_TLS_KEY", "/tmp/key.pem")

		_, err := loadTLSFromEnv()
		if err == nil {
			t.Fatal("expected error for key without cert")
		}
	})

	t.Run("unreadable pair is an error", func(t *testing.T) {
		t.Setenv("OPENRECHEV_MCP_TLS_CERT", "/does/not/exist.crt")
		t.Setenv("OPENRECHEV_MCP_TLS_KEY", "/does/not/exist.key")

		_, err := loadTLSFromEnv()
		if err == nil {
			t.Fatal("expected error for unreadable pair")
		}
		if !strings.Contains(err.Error(), "load TLS key pair") {
			t.Errorf("expected load error, got: %v", err)
		}
	})

	t.Run("valid pair loads a server config", func(t *testing.T) {
		certPath, keyPath := writeTestCertificate(t, t.TempDir())
		t.Setenv("OPENRECHEV_MCP_TLS_CERT", certPath)
		t.Setenv("OPENRECHEV_MCP_TLS_KEY", keyPath)

		cfg, err := loadTLSFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg == nil {
			t.Fatal("expected TLS config")
		}
		if len(cfg.Certificates) != 1 {
			t.Errorf("expected one certificate, got %d", len(cfg.Certificates))
		}
		if cfg.MinVersion != tls.VersionTLS12 {
			t.Errorf("expected TLS 1.2 minimum, got %x", cfg.MinVersion)
		}
	})
}
