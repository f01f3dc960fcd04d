package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/cotime/internal/app"
	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/config"
	"github.com/rpggio/cotime/internal/mcp"
	"github.com/rpggio/cotime/internal/rpc"
	"github.com/rpggio/cotime/internal/signature"
	"github.com/rpggio/cotime/internal/storage"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) (*sdkmcp.ClientSession, *clock.Manual) {
	t.Helper()
	ctx := context.Background()

	backend, err := storage.OpenMemory()
	require.NoError(t, err)
	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	a, err := app.New(backend, config.Default(), clk, nil)
	require.NoError(t, err)

	server := mcp.NewServer(mcp.Config{Handler: a.Handler})
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
		_ = a.Close()
	})
	return session, clk
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) *sdkmcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	}
	return result
}

func TestServer_ListTools(t *testing.T) {
	session, _ := connect(t)

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, method := range rpc.Methods {
		require.True(t, names[method], "missing tool %s", method)
	}
}

func TestServer_SignedFlow(t *testing.T) {
	session, clk := connect(t)
	alice, err := signature.GenerateSigner()
	require.NoError(t, err)

	ts := clk.Now().Unix()
	sig, err := alice.SignAction(rpc.ActionCreate, 0, ts)
	require.NoError(t, err)

	var created struct {
		ID        uint64 `json:"id"`
		Initiator string `json:"initiator"`
	}
	result := callTool(t, session, "create_project", map[string]any{
		"name": "Walk", "theme": "10k steps", "total_streak_days": 21, "max_members": 4,
		"caller": alice.Address().Hex(), "timestamp": ts, "signature": hexutil.Encode(sig),
	}, &created)
	require.False(t, result.IsError)
	require.Equal(t, uint64(0), created.ID)

	sig, err = alice.SignAction(rpc.ActionJoin, 0, ts)
	require.NoError(t, err)
	result = callTool(t, session, "join_project", map[string]any{
		"project_id": 0, "caller": alice.Address().Hex(), "timestamp": ts, "signature": hexutil.Encode(sig),
	}, nil)
	require.False(t, result.IsError)

	sig, err = alice.SignCheckIn(0, "QmWalk", ts)
	require.NoError(t, err)
	var streak rpc.CheckInResponse
	result = callTool(t, session, "check_in", map[string]any{
		"project_id": 0, "proof_hash": "QmWalk", "timestamp": ts,
		"signature": hexutil.Encode(sig), "caller": alice.Address().Hex(),
	}, &streak)
	require.False(t, result.IsError)
	require.Equal(t, uint32(1), streak.Streak)

	var count rpc.CountResponse
	callTool(t, session, "count_projects", map[string]any{}, &count)
	require.Equal(t, uint64(1), count.Count)
}

func TestServer_ToolErrorCarriesCode(t *testing.T) {
	session, _ := connect(t)

	var apiErr rpc.APIError
	result := callTool(t, session, "get_project", map[string]any{"project_id": 7}, &apiErr)
	require.True(t, result.IsError)
	require.Equal(t, rpc.CodeNotFound, apiErr.Code)
}

func TestServer_DocResources(t *testing.T) {
	session, _ := connect(t)

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "cotime://docs/signing"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "abi.encodePacked")
}
