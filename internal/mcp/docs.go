package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `cotime is a group accountability ledger: Projects → Members → daily Check-ins.

Core concepts:
- Project: name, theme, duration in days and a member cap. Ids are sequential from 0.
- Member: an address that joined a project. The initiator is not a member until they join.
- Check-in: one signed proof per member per UTC day. Consecutive days extend the streak; a gap resets it to 1.
- Finished: a finished project rejects joins and check-ins forever.

Workflow:
1) Orient: count_projects / list_projects / get_project.
2) Mutate: create_project, join_project, check_in, finish_project. Every mutation is signed by the caller.
3) Follow along: list_events with after_seq set to the last seq you saw.

Errors carry a stable code (VALIDATION_ERROR, NOT_FOUND, ALREADY_FINISHED, DUPLICATE_MEMBERSHIP, CAPACITY,
UNAUTHORIZED, SIGNATURE_MISMATCH, REPLAY, TRANSIENT_CONFLICT). Only TRANSIENT_CONFLICT is worth retrying as is.

Docs:
- cotime://docs/signing (message formats)
- cotime://docs/errors (what each code means)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "cotime://docs/signing",
		Name:        "docs_signing",
		Title:       "cotime signing",
		Description: "How to build the signatures accepted by check_in and the signed mutations.",
		Content: `# Signing

All signatures are 65-byte secp256k1 signatures (r || s || v, v = 27/28 or 0/1) over the
EIP-191 personal message of a 32-byte digest, hex encoded with a 0x prefix.
High-S signatures are rejected.

## check_in

    digest = keccak256(abi.encodePacked(
        uint256 projectId,
        string  proofHash,
        uint256 timestamp,   // unix seconds
        address caller))

## create_project, join_project, finish_project

    digest = keccak256(abi.encodePacked(
        string  action,      // "create_project" | "join_project" | "finish_project"
        uint256 projectId,   // 0 for create_project
        uint256 timestamp,
        address caller))

## Timestamps

A timestamp is accepted when now - 10m <= timestamp <= now + 5m (server defaults).
The check-in day is floor(timestamp / 86400), so days roll over at UTC midnight.

The cotime CLI prints both kinds of signature: ` + "`cotime sign checkin`" + ` and ` + "`cotime sign action`" + `.
`,
	},
	{
		URI:         "cotime://docs/errors",
		Name:        "docs_errors",
		Title:       "cotime error codes",
		Description: "Meaning of each error code and what to do about it.",
		Content: `# Error codes

- VALIDATION_ERROR: a field is out of range; details name the field.
- NOT_FOUND: no project with that id, or the address never joined.
- ALREADY_FINISHED: the project no longer accepts joins or check-ins.
- DUPLICATE_MEMBERSHIP: the caller already joined.
- CAPACITY: the project has max_members members.
- UNAUTHORIZED: the caller is not a member, or may not finish the project yet.
- SIGNATURE_MISMATCH: the signature does not recover to the caller.
- REPLAY: the timestamp is outside the window, or the member already checked in that day.
- TRANSIENT_CONFLICT: the project changed concurrently too many times; retry.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
