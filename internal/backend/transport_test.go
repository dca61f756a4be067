package backend

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewHTTPClient_NoCA(t *testing.T) {
	c, err := NewHTTPClient("", 3*time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", c.Timeout)
	}
}

func TestNewHTTPClient_ReadCAError(t *testing.T) {
	_, err := NewHTTPClient("nonexistent.pem", time.Second)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file not exist error, got %v", err)
	}
}

func TestNewHTTPClient_InvalidCA(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caPath, []byte("invalid pem"), 0600); err != nil {
		t.Fatalf("failed to write CA file: %v", err)
	}
	_, err := NewHTTPClient(caPath, time.Second)
	if err == nil || !strings.Contains(err.Error(), "failed to parse CA cert") {
		t.Errorf("expected parse CA error, got %v", err)
	}
}

func TestNewHTTPClient_TrustsPrivateCA(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"make":"Toyota"}]`))
	}))
	defer ts.Close()

	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw})
	caPath := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caPath, caPEM, 0600); err != nil {
		t.Fatalf("failed to write CA file: %v", err)
	}

	hc, err := NewHTTPClient(caPath, 5*time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	c, err := NewClient(ts.URL, WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	cars, err := c.ListCars(context.Background())
	if err != nil {
		t.Fatalf("list cars over TLS: %v", err)
	}
	if len(cars) != 1 || cars[0].Make != "Toyota" {
		t.Errorf("unexpected cars: %+v", cars)
	}
}
