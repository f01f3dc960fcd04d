// Package testserver runs a full cotime HTTP server for tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/cotime/internal/app"
	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/config"
	"github.com/rpggio/cotime/internal/mcp"
	"github.com/rpggio/cotime/internal/storage"
	"github.com/rpggio/cotime/internal/transport"
	"github.com/stretchr/testify/require"
)

// Start is the initial time of every test server clock.
var Start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Clock  *clock.Manual
}

// Option adjusts the configuration before the server starts.
type Option func(*config.Config)

// New starts a server over a per-test in-memory SQLite database with
// signature auth enabled.
func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB = config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	backend, err := storage.Open(context.Background(), cfg.DB, nil)
	require.NoError(t, err)

	clk := clock.NewManual(Start)
	a, err := app.New(backend, cfg, clk, nil)
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{Handler: a.Handler})
	server := httptest.NewServer(transport.NewServer(a.Handler, mcp.NewHTTPHandler(mcpServer), nil))

	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return &TestServer{Server: server, App: a, Clock: clk}
}

// WithMemoryStore swaps SQLite for the go-memdb backend.
func WithMemoryStore() Option {
	return func(cfg *config.Config) {
		cfg.DB = config.DBConfig{Driver: config.DriverMemory}
	}
}

// WithFinishPolicy sets lifecycle.finish_policy.
func WithFinishPolicy(policy string) Option {
	return func(cfg *config.Config) {
		cfg.Lifecycle.FinishPolicy = policy
	}
}

// Call posts a JSON-RPC request to /rpc and decodes the response.
func (ts *TestServer) Call(t *testing.T, method string, params any) transport.Response {
	t.Helper()

	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(transport.Request{JSONRPC: "2.0", Method: method, Params: raw, ID: 1})
	require.NoError(t, err)

	resp, err := http.Post(ts.Server.URL+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Result calls method, requires success and decodes the result into out.
func (ts *TestServer) Result(t *testing.T, method string, params any, out any) {
	t.Helper()
	resp := ts.Call(t, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	if out == nil {
		return
	}
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// ErrorCode calls method, requires failure and returns the API error code.
func (ts *TestServer) ErrorCode(t *testing.T, method string, params any) string {
	t.Helper()
	resp := ts.Call(t, method, params)
	require.NotNil(t, resp.Error, "%s unexpectedly succeeded", method)
	data, ok := resp.Error.Data.(map[string]any)
	require.True(t, ok, "error without data: %+v", resp.Error)
	code, _ := data["code"].(string)
	return code
}
