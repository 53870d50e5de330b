package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatledger.io/ledger/internal/api/middleware"
	"seatledger.io/ledger/internal/config"
	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func testConfig(driver string, t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "error", Format: "json"},
		Store: config.StoreConfig{
			Driver:    driver,
			BadgerDir: filepath.Join(t.TempDir(), "ledger"),
		},
		Ledger: config.LedgerConfig{
			AdminIdentity:    "root",
			MaxCodesPerEvent: 100,
			CodeBytes:        8,
			MintAttempts:     16,
			UniqueEventNames: true,
		},
		Auth: config.AuthConfig{
			SigningKey: "bootstrap-test-key-123456789012345",
			Issuer:     "seat-ledger",
			TokenTTL:   time.Hour,
		},
		Worker: config.WorkerConfig{DispatchPoolSize: 2},
	}
}

func TestBootstrap_UnknownDriver(t *testing.T) {
	app, err := Bootstrap(context.Background(), testConfig("etcd", t))
	require.Error(t, err, "Bootstrap should fail for an unknown store driver")
	assert.Nil(t, app, "Application should be nil on bootstrap failure")
}

func TestBootstrap_ServesLedger(t *testing.T) {
	for _, driver := range []string{config.StoreDriverMemory, config.StoreDriverBadger} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(driver, t)
			app, err := Bootstrap(context.Background(), cfg)
			require.NoError(t, err)
			defer app.Shutdown()
			require.NoError(t, app.Start(context.Background()))

			token, _, err := middleware.GenerateToken(jwtConfig(cfg), "alice")
			require.NoError(t, err)

			body := `{"name":"Launch","description":"d","start_time":"1","end_time":"2"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			app.Router.ServeHTTP(w, req)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

			w = httptest.NewRecorder()
			app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, http.StatusOK, w.Code)

			w = httptest.NewRecorder()
			app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), "api_requests_total"))
		})
	}
}

func TestRouter_LogLevelRequiresAdmin(t *testing.T) {
	cfg := testConfig(config.StoreDriverMemory, t)
	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Shutdown()

	tests := []struct {
		name string
		as   string
		want int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"owner", "alice", http.StatusForbidden},
		{"admin", "root", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/log/level", nil)
			if tt.as != "" {
				token, _, err := middleware.GenerateToken(jwtConfig(cfg), domain.Identity(tt.as))
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			app.Router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestApplication_Shutdown_Nil(t *testing.T) {
	app := &Application{}

	assert.NotPanics(t, func() {
		app.Shutdown()
	}, "Shutdown on empty Application should not panic")
	assert.NoError(t, app.Start(context.Background()))
}
