package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	"wsdeck/internal/engine/auth"
	"wsdeck/internal/events"
	"wsdeck/internal/provisioner"
	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

const (
	// MinTTL is the shortest workspace TTL accepted.
	MinTTL = time.Minute
	// MinExtension is how far in the future an extended deadline must be.
	MinExtension = 30 * time.Minute
)

// ErrBuildActive is returned when a workspace already has a job running.
var ErrBuildActive = fmt.Errorf("a workspace build is already active: %w", repo.ErrConflict)

var weekdaysRE = regexp.MustCompile(`^(\*|[0-6](-[0-6])?(,[0-6](-[0-6])?)*)$`)

// ValidateSchedule checks a weekly autostart schedule such as
// "CRON_TZ=Europe/Paris 30 9 * * 1-5": a minute and an hour on some weekdays.
func ValidateSchedule(raw string) error {
	spec := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(spec, "CRON_TZ="); ok {
		tz, fields, _ := strings.Cut(rest, " ")
		if _, err := time.LoadLocation(tz); err != nil {
			return invalid("schedule", fmt.Sprintf("unknown time zone %q", tz))
		}
		spec = fields
	}
	fields := strings.Fields(spec)
	if len(fields) != 5 {
		return invalid("schedule", "must have five fields: minute hour * * weekdays")
	}
	minute, err := strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return invalid("schedule", "minute must be between 0 and 59")
	}
	hour, err := strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return invalid("schedule", "hour must be between 0 and 23")
	}
	if fields[2] != "*" || fields[3] != "*" {
		return invalid("schedule", "day of month and month must be *")
	}
	if !weekdaysRE.MatchString(fields[4]) {
		return invalid("schedule", "weekdays must be * or a list of 0-6 ranges")
	}
	return nil
}

func validWorkspaceTTL(ms *int64) error {
	if err := validTTL("ttl_ms", ms); err != nil {
		return err
	}
	if ms != nil && *ms != 0 && time.Duration(*ms)*time.Millisecond < MinTTL {
		return invalid("ttl_ms", fmt.Sprintf("must be at least %s", MinTTL))
	}
	return nil
}

// normalizeTTL treats a zero TTL as no TTL.
func normalizeTTL(ms *int64) *int64 {
	if ms == nil || *ms == 0 {
		return nil
	}
	return ms
}

// CreateWorkspace creates a workspace for owner and starts it.
func (e Engine) CreateWorkspace(ctx context.Context, actor wsdecksdk.User, orgID uuid.UUID, ownerRef string, req wsdecksdk.CreateWorkspaceRequest) (wsdecksdk.Workspace, error) {
	if err := validName("name", req.Name); err != nil {
		return wsdecksdk.Workspace{}, err
	}
	if err := validWorkspaceTTL(req.TTLMillis); err != nil {
		return wsdecksdk.Workspace{}, err
	}
	if req.AutostartSchedule != nil {
		if err := ValidateSchedule(*req.AutostartSchedule); err != nil {
			return wsdecksdk.Workspace{}, err
		}
	}
	owner, err := e.resolveUser(ctx, actor, ownerRef)
	if err != nil {
		return wsdecksdk.Workspace{}, err
	}
	if err := auth.RequireOwnerOr(actor, owner.ID, auth.PermWorkspacesWrite); err != nil {
		return wsdecksdk.Workspace{}, err
	}
	if err := e.requireMember(ctx, owner, orgID); err != nil {
		return wsdecksdk.Workspace{}, err
	}
	t, err := e.Repo.GetTemplate(ctx, req.TemplateID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && t.OrganizationID != orgID) {
		return wsdecksdk.Workspace{}, invalid("template_id", "template does not exist in this organization")
	}
	if err != nil {
		return wsdecksdk.Workspace{}, err
	}
	version, err := e.Repo.GetTemplateVersion(ctx, t.ActiveVersionID)
	if err != nil {
		return wsdecksdk.Workspace{}, fmt.Errorf("active version: %w", err)
	}
	now := e.now()
	ws := wsdecksdk.Workspace{
		ID:                  uuid.New(),
		CreatedAt:           now,
		UpdatedAt:           now,
		OwnerID:             owner.ID,
		OwnerName:           owner.Username,
		TemplateID:          t.ID,
		TemplateName:        t.Name,
		TemplateDisplayName: t.DisplayName,
		TemplateIcon:        t.Icon,
		Name:                req.Name,
		AutostartSchedule:   req.AutostartSchedule,
		TTLMillis:           normalizeTTL(req.TTLMillis),
		LastUsedAt:          now,
	}
	if ws.TTLMillis == nil && t.DefaultTTLMillis > 0 {
		ws.TTLMillis = wsdecksdk.Ptr(t.DefaultTTLMillis)
	}
	build, err := e.runBuild(ctx, ws, version, wsdecksdk.WorkspaceTransitionStart, wsdecksdk.BuildReasonInitiator, actor, 1)
	if err != nil {
		return wsdecksdk.Workspace{}, err
	}
	ws.LatestBuild = build
	err = e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertWorkspace(ctx, tx, ws); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return fmt.Errorf("workspace %q already exists for %s: %w", ws.Name, owner.Username, repo.ErrConflict)
			}
			return err
		}
		if err := e.Repo.InsertWorkspaceBuild(ctx, tx, build); err != nil {
			return err
		}
		if err := e.recordBuildTime(ctx, tx, t.ID, build.Transition, build.Job); err != nil {
			return err
		}
		return e.audit(ctx, tx, &actor, events.Entry{
			OrganizationID: orgID,
			ResourceType:   wsdecksdk.ResourceTypeWorkspace,
			ResourceID:     ws.ID,
			ResourceTarget: ws.Name,
			ResourceIcon:   ws.TemplateIcon,
			Action:         wsdecksdk.AuditActionCreate,
			StatusCode:     201,
		})
	})
	return ws, err
}

// runBuild provisions a build of ws at version. Nothing is stored.
func (e Engine) runBuild(ctx context.Context, ws wsdecksdk.Workspace, version wsdecksdk.TemplateVersion, transition wsdecksdk.WorkspaceTransition, reason wsdecksdk.BuildReason, initiator wsdecksdk.User, number int32) (wsdecksdk.WorkspaceBuild, error) {
	job, _, resources, err := e.provision(ctx, version.Job.FileID, transition)
	if err != nil {
		return wsdecksdk.WorkspaceBuild{}, err
	}
	now := e.now()
	b := wsdecksdk.WorkspaceBuild{
		ID:                 uuid.New(),
		CreatedAt:          now,
		UpdatedAt:          now,
		WorkspaceID:        ws.ID,
		WorkspaceName:      ws.Name,
		WorkspaceOwnerID:   ws.OwnerID,
		WorkspaceOwnerName: ws.OwnerName,
		TemplateVersionID:  version.ID,
		BuildNumber:        number,
		Transition:         transition,
		InitiatorID:        initiator.ID,
		InitiatorUsername:  initiator.Username,
		Job:                job,
		Reason:             reason,
		Resources:          resources,
		Status:             wsdecksdk.WorkspaceStatusFor(job.Status, transition),
		DailyCost:          provisioner.DailyCost(resources),
	}
	if b.Status == wsdecksdk.WorkspaceStatusRunning && ws.TTLMillis != nil {
		deadline := now.Add(time.Duration(*ws.TTLMillis) * time.Millisecond)
		b.Deadline = &deadline
	}
	return b, nil
}

// withOutdated sets Outdated when the template moved to a newer version.
func (e Engine) withOutdated(ctx context.Context, ws wsdecksdk.Workspace) wsdecksdk.Workspace {
	t, err := e.Repo.GetTemplate(ctx, ws.TemplateID)
	if err == nil {
		ws.Outdated = t.ActiveVersionID != ws.LatestBuild.TemplateVersionID
	}
	return ws
}

// Workspace returns a workspace its owner or a workspace reader may see.
func (e Engine) Workspace(ctx context.Context, actor wsdecksdk.User, id uuid.UUID, includeDeleted bool) (wsdecksdk.Workspace, error) {
	ws, err := e.Repo.GetWorkspace(ctx, nil, id, includeDeleted)
	if errors.Is(err, repo.ErrNotFound) {
		return ws, notFound("workspace", id)
	}
	if err != nil {
		return ws, err
	}
	if err := auth.RequireOwnerOr(actor, ws.OwnerID, auth.PermWorkspacesRead); err != nil {
		return wsdecksdk.Workspace{}, notFound("workspace", id)
	}
	return e.withOutdated(ctx, ws), nil
}

func (e Engine) WorkspaceByOwnerAndName(ctx context.Context, actor wsdecksdk.User, ownerRef, name string, includeDeleted bool) (wsdecksdk.Workspace, error) {
	owner, err := e.resolveUser(ctx, actor, ownerRef)
	if err != nil {
		return wsdecksdk.Workspace{}, err
	}
	if err := auth.RequireOwnerOr(actor, owner.ID, auth.PermWorkspacesRead); err != nil {
		return wsdecksdk.Workspace{}, notFound("workspace", ownerRef+"/"+name)
	}
	ws, err := e.Repo.GetWorkspaceByOwnerAndName(ctx, owner.ID, name, includeDeleted)
	if errors.Is(err, repo.ErrNotFound) {
		return ws, notFound("workspace", owner.Username+"/"+name)
	}
	if err != nil {
		return ws, err
	}
	return e.withOutdated(ctx, ws), nil
}

// Workspaces lists workspaces matching q. Callers without workspace read
// permission only ever see their own.
func (e Engine) Workspaces(ctx context.Context, actor wsdecksdk.User, q string, p wsdecksdk.Pagination) (wsdecksdk.WorkspacesResponse, error) {
	filter, err := ParseWorkspaceQuery(q)
	if err != nil {
		return wsdecksdk.WorkspacesResponse{}, err
	}
	if strings.EqualFold(filter.OwnerName, wsdecksdk.Me) {
		filter.OwnerName = ""
		filter.OwnerID = &actor.ID
	}
	if !auth.HasPermission(actor, auth.PermWorkspacesRead) {
		filter.OwnerID = &actor.ID
	}
	list, err := e.Repo.ListWorkspaces(ctx, filter, domain.PageFrom(p))
	if err != nil {
		return wsdecksdk.WorkspacesResponse{}, err
	}
	count, err := e.Repo.CountWorkspaces(ctx, filter)
	if err != nil {
		return wsdecksdk.WorkspacesResponse{}, err
	}
	for i := range list {
		list[i] = e.withOutdated(ctx, list[i])
	}
	return wsdecksdk.WorkspacesResponse{Workspaces: list, Count: int(count)}, nil
}

// writableWorkspace loads a live workspace the actor may change.
func (e Engine) writableWorkspace(ctx context.Context, actor wsdecksdk.User, id uuid.UUID) (wsdecksdk.Workspace, error) {
	ws, err := e.Workspace(ctx, actor, id, false)
	if err != nil {
		return ws, err
	}
	if err := auth.RequireOwnerOr(actor, ws.OwnerID, auth.PermWorkspacesWrite); err != nil {
		return wsdecksdk.Workspace{}, err
	}
	return ws, nil
}

// updateWorkspace stores ws and audits the change against before.
func (e Engine) updateWorkspace(ctx context.Context, actor wsdecksdk.User, before, ws wsdecksdk.Workspace) error {
	diff := events.Diff(workspaceFields(before), workspaceFields(ws))
	ws.UpdatedAt = e.now()
	return e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.UpdateWorkspace(ctx, tx, ws); err != nil {
			return err
		}
		if ws.LatestBuild.ID == before.LatestBuild.ID && !sameDeadline(before.LatestBuild.Deadline, ws.LatestBuild.Deadline) {
			if err := e.Repo.UpdateWorkspaceBuild(ctx, tx, ws.LatestBuild); err != nil {
				return err
			}
		}
		return e.audit(ctx, tx, &actor, events.Entry{
			ResourceType:   wsdecksdk.ResourceTypeWorkspace,
			ResourceID:     ws.ID,
			ResourceTarget: ws.Name,
			ResourceIcon:   ws.TemplateIcon,
			Action:         wsdecksdk.AuditActionWrite,
			Diff:           diff,
		})
	})
}

func sameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func workspaceFields(ws wsdecksdk.Workspace) map[string]any {
	return map[string]any{
		"name":               ws.Name,
		"ttl_ms":             ws.TTLMillis,
		"autostart_schedule": ws.AutostartSchedule,
		"deadline":           ws.LatestBuild.Deadline,
	}
}

// UpdateWorkspaceTTL sets or clears the TTL. It applies from the next start.
func (e Engine) UpdateWorkspaceTTL(ctx context.Context, actor wsdecksdk.User, id uuid.UUID, req wsdecksdk.UpdateWorkspaceTTLRequest) error {
	if err := validWorkspaceTTL(req.TTLMillis); err != nil {
		return err
	}
	before, err := e.writableWorkspace(ctx, actor, id)
	if err != nil {
		return err
	}
	ws := before
	ws.TTLMillis = normalizeTTL(req.TTLMillis)
	return e.updateWorkspace(ctx, actor, before, ws)
}

// UpdateWorkspaceAutostart sets or clears the autostart schedule.
func (e Engine) UpdateWorkspaceAutostart(ctx context.Context, actor wsdecksdk.User, id uuid.UUID, req wsdecksdk.UpdateWorkspaceAutostartRequest) error {
	if req.Schedule != nil && *req.Schedule == "" {
		req.Schedule = nil
	}
	if req.Schedule != nil {
		if err := ValidateSchedule(*req.Schedule); err != nil {
			return err
		}
	}
	before, err := e.writableWorkspace(ctx, actor, id)
	if err != nil {
		return err
	}
	ws := before
	ws.AutostartSchedule = req.Schedule
	return e.updateWorkspace(ctx, actor, before, ws)
}

// ExtendWorkspace moves the deadline of a running workspace.
func (e Engine) ExtendWorkspace(ctx context.Context, actor wsdecksdk.User, id uuid.UUID, req wsdecksdk.PutExtendWorkspaceRequest) (wsdecksdk.Response, error) {
	before, err := e.writableWorkspace(ctx, actor, id)
	if err != nil {
		return wsdecksdk.Response{}, err
	}
	if before.LatestBuild.Status != wsdecksdk.WorkspaceStatusRunning {
		return wsdecksdk.Response{}, invalidf("Workspace must be running, it is %s.", before.LatestBuild.Status)
	}
	if before.LatestBuild.Deadline == nil {
		return wsdecksdk.Response{}, invalidf("Workspace has no deadline to extend.")
	}
	now := e.now()
	deadline := req.Deadline.UTC()
	if deadline.Before(now.Add(MinExtension)) {
		return wsdecksdk.Response{}, invalid("deadline", fmt.Sprintf("must be at least %s in the future", MinExtension))
	}
	if deadline.After(now.Add(MaxTTL)) {
		return wsdecksdk.Response{}, invalid("deadline", fmt.Sprintf("must be at most %s in the future", MaxTTL))
	}
	ws := before
	ws.LatestBuild.Deadline = &deadline
	ws.LatestBuild.UpdatedAt = now
	if err := e.updateWorkspace(ctx, actor, before, ws); err != nil {
		return wsdecksdk.Response{}, err
	}
	return wsdecksdk.Response{Message: "Deadline updated to " + deadline.Format(time.RFC3339) + "."}, nil
}
