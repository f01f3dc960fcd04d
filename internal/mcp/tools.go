package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/cotime/internal/rpc"
)

func registerTools(server *sdkmcp.Server, h *rpc.Handler) {
	// Mutations
	addTool(server, "create_project",
		"Publish a new project. The caller becomes the initiator but is not joined automatically. "+
			"With auth enabled, sign keccak256(abi.encodePacked(\"create_project\", uint256 0, uint256 timestamp, address caller)).",
		h.CreateProject)
	addTool(server, "join_project",
		"Join a project as the signed caller. Fails when the project is finished, full, or already joined.",
		h.JoinProject)
	addTool(server, "check_in",
		"Submit today's signed check-in. The signature covers keccak256(abi.encodePacked(uint256 projectId, string proofHash, uint256 timestamp, address caller)). Returns the new streak.",
		h.CheckIn)
	addTool(server, "finish_project",
		"Finish a project. Afterwards no one can join or check in.",
		h.FinishProject)

	// Queries
	addTool(server, "get_project",
		"Get a project snapshot including members and member count.",
		h.GetProject)
	addTool(server, "list_projects",
		"List projects in id order with the total count.",
		h.ListProjects)
	addTool(server, "count_projects",
		"Count every project ever created.",
		h.CountProjects)
	addTool(server, "get_my_projects",
		"Page through the projects a member joined, oldest join first. A short page means there are no more.",
		h.GetMyProjects)
	addTool(server, "get_membership",
		"Check whether an address joined a project and read its streak.",
		h.GetMembership)
	addTool(server, "list_members",
		"List a project's members in join order with their streaks.",
		h.ListMembers)
	addTool(server, "list_checkins",
		"List a member's accepted check-ins for a project, most recent first.",
		h.ListCheckIns)
	addTool(server, "list_events",
		"Read the notification log after a sequence number, optionally filtered by project, member or type.",
		h.ListEvents)
}

// addTool registers fn as a tool. Results are returned as JSON text; domain
// errors become tool errors carrying rpc.APIError.
func addTool[In any, Out any](server *sdkmcp.Server, name, description string, fn func(context.Context, In) (Out, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err != nil {
				return errorResult(rpc.MapError(err)), nil, nil
			}
			return jsonResult(out), nil, nil
		})
}

func jsonResult(v any) *sdkmcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(&rpc.APIError{Code: rpc.CodeInternal, Message: "encoding result"})
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func errorResult(apiErr *rpc.APIError) *sdkmcp.CallToolResult {
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
