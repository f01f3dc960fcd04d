// Package rpc maps external requests onto the domain services.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/domain/project"
)

// ProjectService defines project operations needed by the handler.
type ProjectService interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, id uint64) (project.Snapshot, error)
	List(ctx context.Context, offset, limit int) ([]project.Snapshot, error)
	Count(ctx context.Context) (uint64, error)
	Finish(ctx context.Context, id uint64, caller common.Address) error
}

// MembershipService defines membership operations needed by the handler.
type MembershipService interface {
	Join(ctx context.Context, projectID uint64, caller common.Address) (*membership.Membership, error)
	IsMember(ctx context.Context, projectID uint64, member common.Address) (bool, error)
	Membership(ctx context.Context, projectID uint64, member common.Address) (*membership.Membership, error)
	MyProjects(ctx context.Context, member common.Address, offset, limit int) ([]uint64, error)
	Roster(ctx context.Context, projectID uint64) ([]membership.Membership, error)
}

// CheckInService defines check-in operations needed by the handler.
type CheckInService interface {
	CheckIn(ctx context.Context, req checkin.Request) (uint32, error)
	History(ctx context.Context, projectID uint64, member common.Address, offset, limit int) ([]checkin.CheckIn, error)
}

// ActivityService defines event log operations needed by the handler.
type ActivityService interface {
	List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains the domain services the handler dispatches to.
type Services struct {
	Projects    ProjectService
	Memberships MembershipService
	CheckIns    CheckInService
	Activity    ActivityService
}

// DefaultPageSize applies when a paged request leaves Limit unset.
const DefaultPageSize = 50

// Methods lists every method Handle accepts.
var Methods = []string{
	"create_project",
	"join_project",
	"check_in",
	"finish_project",
	"get_project",
	"list_projects",
	"count_projects",
	"get_my_projects",
	"get_membership",
	"list_members",
	"list_checkins",
	"list_events",
}

// Handler dispatches requests to domain services.
type Handler struct {
	services Services
	auth     *Authenticator
	logger   *slog.Logger
}

// NewHandler creates a new handler. A nil auth trusts the caller field.
func NewHandler(services Services, auth *Authenticator, logger *slog.Logger) *Handler {
	if auth == nil {
		auth = NewAuthenticator(false, nil, nil, checkin.Window{})
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{services: services, auth: auth, logger: logger}
}

// Handle decodes params for method and dispatches it.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	h.logger.DebugContext(ctx, "dispatching request", "method", method)

	switch method {
	case "create_project":
		return dispatch(ctx, params, h.CreateProject)
	case "join_project":
		return dispatch(ctx, params, h.JoinProject)
	case "check_in":
		return dispatch(ctx, params, h.CheckIn)
	case "finish_project":
		return dispatch(ctx, params, h.FinishProject)
	case "get_project":
		return dispatch(ctx, params, h.GetProject)
	case "list_projects":
		return dispatch(ctx, params, h.ListProjects)
	case "count_projects":
		return dispatch(ctx, params, h.CountProjects)
	case "get_my_projects":
		return dispatch(ctx, params, h.GetMyProjects)
	case "get_membership":
		return dispatch(ctx, params, h.GetMembership)
	case "list_members":
		return dispatch(ctx, params, h.ListMembers)
	case "list_checkins":
		return dispatch(ctx, params, h.ListCheckIns)
	case "list_events":
		return dispatch(ctx, params, h.ListEvents)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func dispatch[P any, R any](ctx context.Context, params json.RawMessage, fn func(context.Context, P) (R, error)) (any, error) {
	var req P
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	return fn(ctx, req)
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// CreateProject registers a project on behalf of the signed caller.
func (h *Handler) CreateProject(ctx context.Context, p CreateProjectParams) (*project.Project, error) {
	caller, err := h.auth.Authenticate(ActionCreate, 0, p.signed())
	if err != nil {
		return nil, err
	}
	return h.services.Projects.Create(ctx, project.CreateRequest{
		Name:            p.Name,
		Theme:           p.Theme,
		TotalStreakDays: p.TotalStreakDays,
		MaxMembers:      p.MaxMembers,
		Initiator:       caller,
	})
}

// JoinProject adds the signed caller to a project.
func (h *Handler) JoinProject(ctx context.Context, p JoinProjectParams) (*membership.Membership, error) {
	caller, err := h.auth.Authenticate(ActionJoin, p.ProjectID, p.signed())
	if err != nil {
		return nil, err
	}
	return h.services.Memberships.Join(ctx, p.ProjectID, caller)
}

// CheckIn records a signed daily check-in.
func (h *Handler) CheckIn(ctx context.Context, p CheckInParams) (CheckInResponse, error) {
	caller, err := ParseAddress("caller", p.Caller)
	if err != nil {
		return CheckInResponse{}, err
	}
	sig, err := ParseSignature(p.Signature)
	if err != nil {
		return CheckInResponse{}, err
	}

	streak, err := h.services.CheckIns.CheckIn(ctx, checkin.Request{
		ProjectID: p.ProjectID,
		ProofHash: p.ProofHash,
		Timestamp: p.Timestamp,
		Signature: sig,
		Caller:    caller,
	})
	if err != nil {
		return CheckInResponse{}, err
	}
	return CheckInResponse{ProjectID: p.ProjectID, Member: caller.Hex(), Streak: streak}, nil
}

// FinishProject closes a project on behalf of the signed caller.
func (h *Handler) FinishProject(ctx context.Context, p FinishProjectParams) (FinishResponse, error) {
	caller, err := h.auth.Authenticate(ActionFinish, p.ProjectID, p.signed())
	if err != nil {
		return FinishResponse{}, err
	}
	if err := h.services.Projects.Finish(ctx, p.ProjectID, caller); err != nil {
		return FinishResponse{}, err
	}

	snap, err := h.services.Projects.Get(ctx, p.ProjectID)
	if err != nil {
		return FinishResponse{}, err
	}
	resp := FinishResponse{ProjectID: p.ProjectID}
	if snap.FinishedAt != nil {
		resp.FinishedAt = *snap.FinishedAt
	}
	return resp, nil
}

// GetProject returns a project snapshot.
func (h *Handler) GetProject(ctx context.Context, p GetProjectParams) (project.Snapshot, error) {
	return h.services.Projects.Get(ctx, p.ProjectID)
}

// ListProjects returns a page of projects in id order with the total count.
func (h *Handler) ListProjects(ctx context.Context, p ListProjectsParams) (ProjectListResponse, error) {
	projects, err := h.services.Projects.List(ctx, p.Offset, pageSize(p.Limit))
	if err != nil {
		return ProjectListResponse{}, err
	}
	total, err := h.services.Projects.Count(ctx)
	if err != nil {
		return ProjectListResponse{}, err
	}
	return ProjectListResponse{Projects: projects, Total: total}, nil
}

// CountProjects returns how many projects were ever created.
func (h *Handler) CountProjects(ctx context.Context, _ EmptyParams) (CountResponse, error) {
	n, err := h.services.Projects.Count(ctx)
	if err != nil {
		return CountResponse{}, err
	}
	return CountResponse{Count: n}, nil
}

// GetMyProjects pages through the projects a member joined.
func (h *Handler) GetMyProjects(ctx context.Context, p GetMyProjectsParams) (MyProjectsResponse, error) {
	member, err := ParseAddress("member", p.Member)
	if err != nil {
		return MyProjectsResponse{}, err
	}
	limit := DefaultPageSize
	if p.Limit != nil {
		limit = *p.Limit
	}
	ids, err := h.services.Memberships.MyProjects(ctx, member, p.Offset, limit)
	if err != nil {
		return MyProjectsResponse{}, err
	}
	return MyProjectsResponse{ProjectIDs: ids, Exhausted: len(ids) < limit}, nil
}

// GetMembership returns whether member joined and, if so, their streak state.
func (h *Handler) GetMembership(ctx context.Context, p GetMembershipParams) (MembershipStatusResponse, error) {
	member, err := ParseAddress("member", p.Member)
	if err != nil {
		return MembershipStatusResponse{}, err
	}
	ok, err := h.services.Memberships.IsMember(ctx, p.ProjectID, member)
	if err != nil || !ok {
		return MembershipStatusResponse{}, err
	}
	m, err := h.services.Memberships.Membership(ctx, p.ProjectID, member)
	if err != nil {
		return MembershipStatusResponse{}, err
	}
	return MembershipStatusResponse{IsMember: true, Membership: m}, nil
}

// ListMembers returns every membership of a project in join order.
func (h *Handler) ListMembers(ctx context.Context, p ListMembersParams) (MembersResponse, error) {
	roster, err := h.services.Memberships.Roster(ctx, p.ProjectID)
	if err != nil {
		return MembersResponse{}, err
	}
	return MembersResponse{ProjectID: p.ProjectID, Members: roster}, nil
}

// ListCheckIns returns a member's accepted check-ins, most recent first.
func (h *Handler) ListCheckIns(ctx context.Context, p ListCheckInsParams) (CheckInsResponse, error) {
	member, err := ParseAddress("member", p.Member)
	if err != nil {
		return CheckInsResponse{}, err
	}
	list, err := h.services.CheckIns.History(ctx, p.ProjectID, member, p.Offset, pageSize(p.Limit))
	if err != nil {
		return CheckInsResponse{}, err
	}
	return CheckInsResponse{CheckIns: list}, nil
}

// ListEvents reads the notification log after a sequence number.
func (h *Handler) ListEvents(ctx context.Context, p ListEventsParams) (EventsResponse, error) {
	opts := activity.ListActivityOptions{
		ProjectID: p.ProjectID,
		AfterSeq:  p.AfterSeq,
		Limit:     p.Limit,
	}
	if p.Member != nil {
		member, err := ParseAddress("member", *p.Member)
		if err != nil {
			return EventsResponse{}, err
		}
		hex := member.Hex()
		opts.Member = &hex
	}
	if p.Type != nil {
		typ := activity.ActivityType(*p.Type)
		opts.ActivityType = &typ
	}

	entries, err := h.services.Activity.List(ctx, opts)
	if err != nil {
		return EventsResponse{}, err
	}
	resp := EventsResponse{Events: entries, LastSeq: p.AfterSeq}
	if n := len(entries); n > 0 {
		resp.LastSeq = entries[n-1].Seq
	}
	return resp, nil
}

func pageSize(limit int) int {
	if limit == 0 {
		return DefaultPageSize
	}
	return limit
}
