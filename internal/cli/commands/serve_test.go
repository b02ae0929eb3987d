package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liteclaw/webbridge/internal/config"
)

// startTestGateway serves a fully wired app and returns its host and port.
func startTestGateway(t *testing.T) (string, int) {
	t.Helper()
	isolateConfig(t, "")

	cfg := config.Default()
	app, err := newServeApp(cfg, zerolog.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(app.server.Handler())
	t.Cleanup(srv.Close)

	hostPort := strings.TrimPrefix(srv.URL, "http://")
	host, portStr, ok := strings.Cut(hostPort, ":")
	require.True(t, ok)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestNewServeApp(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("WEBBRIDGE_STATE_DIR", stateDir)

	cfg := config.Default()
	app, err := newServeApp(cfg, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"Web"}, app.registry.Names())
	assert.Equal(t, filepath.Join(stateDir, "uploads"), app.spool.Dir())
	assert.DirExists(t, app.spool.Dir())

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"driver":"web","message":"ping"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"text":"pong"`)
}

func TestNewServeApp_WithoutDefaults(t *testing.T) {
	t.Setenv("WEBBRIDGE_STATE_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Bot.Defaults = false
	app, err := newServeApp(cfg, zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"driver":"web","message":"ping"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rec, req)

	assert.JSONEq(t, `{"status":200,"messages":[]}`, rec.Body.String())
}

func TestNewServeApp_InvalidSchedule(t *testing.T) {
	t.Setenv("WEBBRIDGE_STATE_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Web.Attachments.SweepSchedule = "sometimes"
	_, err := newServeApp(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestAcquireServeLock(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("WEBBRIDGE_STATE_DIR", stateDir)

	held := flock.New(filepath.Join(stateDir, serveLockName))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	out := &bytes.Buffer{}
	_, err = acquireServeLock(out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "already running")

	require.NoError(t, held.Unlock())

	unlock, err := acquireServeLock(out)
	require.NoError(t, err)
	unlock()
}

func TestServeCommand_InvalidFlags(t *testing.T) {
	isolateConfig(t, "")

	cmd := NewServeCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--path", "no-slash"})

	assert.Error(t, cmd.Execute())
	_, err := os.Stat(filepath.Join(os.Getenv("WEBBRIDGE_STATE_DIR"), serveLockName))
	assert.True(t, os.IsNotExist(err))
}
