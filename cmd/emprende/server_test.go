package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
businesses:
  - name: Soda La Esquina
    provincia: Cartago
    canton: Paraíso
    whatsapp: "8888-0000"
    products:
      - name: Casado
        price: 3500
`

func testConfig(t *testing.T) *Config {
	t.Helper()
	clearEnv(t)
	t.Setenv("EMPRENDE_DATABASE_DSN", ":memory:")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Site.BaseURL = "https://emprende.cr"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServer_SeedAndServe(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	s, err := NewServer(ctx, cfg, quietLogger())
	require.NoError(t, err)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0644))
	require.NoError(t, s.Seed(ctx, path))

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/products?provincia=Cartago")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Items []struct {
			Name        string `json:"name"`
			URL         string `json:"url"`
			WhatsAppURL string `json:"whatsapp_url"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Casado", body.Items[0].Name)
	assert.Contains(t, body.Items[0].URL, "https://emprende.cr/products/casado-")
	assert.Contains(t, body.Items[0].WhatsAppURL, "https://wa.me/50688880000")
}

func TestServer_SeedFailure(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewServer(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer s.Close()

	err = s.Seed(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	var sErr *ServerError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, ExitSeedError, sErr.ExitCode)
	assert.Equal(t, ExitSeedError, exitCode(quietLogger(), "seed", err))
}

func TestNewServer_DatabaseError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.DSN = filepath.Join(t.TempDir(), "missing", "dir", "emprende.db")

	_, err := NewServer(context.Background(), cfg, quietLogger())
	var sErr *ServerError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, ExitDatabaseError, sErr.ExitCode)
}

func TestServer_StartStopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = time.Second

	s, err := NewServer(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestExitCode_PlainError(t *testing.T) {
	assert.Equal(t, ExitConfigError, exitCode(quietLogger(), "boom", errors.New("boom")))
}
