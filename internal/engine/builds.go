package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	"wsdeck/internal/events"
	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

var buildActions = map[wsdecksdk.WorkspaceTransition]wsdecksdk.AuditAction{
	wsdecksdk.WorkspaceTransitionStart:  wsdecksdk.AuditActionStart,
	wsdecksdk.WorkspaceTransitionStop:   wsdecksdk.AuditActionStop,
	wsdecksdk.WorkspaceTransitionDelete: wsdecksdk.AuditActionDelete,
}

// CreateWorkspaceBuild starts, stops or deletes a workspace.
func (e Engine) CreateWorkspaceBuild(ctx context.Context, actor wsdecksdk.User, workspaceID uuid.UUID, req wsdecksdk.CreateWorkspaceBuildRequest) (wsdecksdk.WorkspaceBuild, error) {
	if !req.Transition.Valid() {
		return wsdecksdk.WorkspaceBuild{}, invalid("transition", "must be start, stop or delete")
	}
	if req.Orphan != nil && *req.Orphan && req.Transition != wsdecksdk.WorkspaceTransitionDelete {
		return wsdecksdk.WorkspaceBuild{}, invalid("orphan", "only applies to delete")
	}
	ws, err := e.writableWorkspace(ctx, actor, workspaceID)
	if err != nil {
		return wsdecksdk.WorkspaceBuild{}, err
	}
	versionID := ws.LatestBuild.TemplateVersionID
	if req.TemplateVersionID != nil {
		versionID = *req.TemplateVersionID
	}
	version, err := e.Repo.GetTemplateVersion(ctx, versionID)
	if errors.Is(err, repo.ErrNotFound) {
		return wsdecksdk.WorkspaceBuild{}, invalid("template_version_id", "template version does not exist")
	}
	if err != nil {
		return wsdecksdk.WorkspaceBuild{}, err
	}
	if version.TemplateID == nil || *version.TemplateID != ws.TemplateID {
		return wsdecksdk.WorkspaceBuild{}, invalid("template_version_id", "template version belongs to another template")
	}
	if version.Job.Status != wsdecksdk.ProvisionerJobSucceeded {
		return wsdecksdk.WorkspaceBuild{}, invalid("template_version_id", "template version import has not succeeded")
	}
	build, err := e.runBuild(ctx, ws, version, req.Transition, wsdecksdk.BuildReasonInitiator, actor, ws.LatestBuild.BuildNumber+1)
	if err != nil {
		return wsdecksdk.WorkspaceBuild{}, err
	}
	if req.Orphan != nil && *req.Orphan && build.Job.Status == wsdecksdk.ProvisionerJobFailed {
		// Orphaning deletes the workspace even if its resources could not
		// be torn down.
		build.Job.Status = wsdecksdk.ProvisionerJobSucceeded
		build.Job.Error = nil
		build.Status = wsdecksdk.WorkspaceStatusFor(build.Job.Status, build.Transition)
	}
	if req.DryRun != nil && *req.DryRun {
		return build, nil
	}
	return build, e.commitBuild(ctx, &actor, ws, build)
}

// commitBuild stores build as the latest build of ws.
func (e Engine) commitBuild(ctx context.Context, actor *wsdecksdk.User, ws wsdecksdk.Workspace, build wsdecksdk.WorkspaceBuild) error {
	return e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		current, err := e.Repo.GetWorkspace(ctx, tx, ws.ID, false)
		if err != nil {
			return err
		}
		if !current.LatestBuild.Job.Status.Terminal() {
			return ErrBuildActive
		}
		if current.LatestBuild.BuildNumber != build.BuildNumber-1 {
			return fmt.Errorf("workspace %s changed while building: %w", ws.Name, repo.ErrConflict)
		}
		current.LatestBuild = build
		current.UpdatedAt = build.CreatedAt
		if build.Transition == wsdecksdk.WorkspaceTransitionStart {
			current.LastUsedAt = build.CreatedAt
		}
		if err := e.Repo.InsertWorkspaceBuild(ctx, tx, build); err != nil {
			return err
		}
		if err := e.Repo.UpdateWorkspace(ctx, tx, current); err != nil {
			return err
		}
		if err := e.recordBuildTime(ctx, tx, ws.TemplateID, build.Transition, build.Job); err != nil {
			return err
		}
		fields := map[string]string{
			"build_number": fmt.Sprint(build.BuildNumber),
			"build_reason": string(build.Reason),
		}
		if build.Job.Error != nil {
			fields["error"] = *build.Job.Error
		}
		return e.audit(ctx, tx, actor, events.Entry{
			ResourceType:   wsdecksdk.ResourceTypeWorkspaceBuild,
			ResourceID:     ws.ID,
			ResourceTarget: ws.Name,
			ResourceIcon:   ws.TemplateIcon,
			Action:         buildActions[build.Transition],
			StatusCode:     201,
			Fields:         fields,
		})
	})
}

// WorkspaceBuilds lists builds of a workspace newest first.
func (e Engine) WorkspaceBuilds(ctx context.Context, actor wsdecksdk.User, workspaceID uuid.UUID, since time.Time, p wsdecksdk.Pagination) ([]wsdecksdk.WorkspaceBuild, error) {
	if _, err := e.Workspace(ctx, actor, workspaceID, true); err != nil {
		return nil, err
	}
	return e.Repo.ListWorkspaceBuilds(ctx, workspaceID, since, domain.PageFrom(p))
}

// Autostop stops every running workspace whose deadline has passed and
// returns how many were stopped.
func (e Engine) Autostop(ctx context.Context) (int, error) {
	running := wsdecksdk.WorkspaceStatusRunning
	list, err := e.Repo.ListWorkspaces(ctx, domain.WorkspaceFilter{Status: &running}, domain.Page{})
	if err != nil {
		return 0, err
	}
	now := e.now()
	stopped := 0
	var errs []error
	for _, ws := range list {
		deadline := ws.LatestBuild.Deadline
		if deadline == nil || now.Before(*deadline) {
			continue
		}
		if err := e.autostop(ctx, ws); err != nil {
			errs = append(errs, fmt.Errorf("autostop %s/%s: %w", ws.OwnerName, ws.Name, err))
			continue
		}
		stopped++
	}
	return stopped, errors.Join(errs...)
}

func (e Engine) autostop(ctx context.Context, ws wsdecksdk.Workspace) error {
	owner, err := e.Repo.GetUser(ctx, ws.OwnerID)
	if err != nil {
		return err
	}
	version, err := e.Repo.GetTemplateVersion(ctx, ws.LatestBuild.TemplateVersionID)
	if err != nil {
		return err
	}
	build, err := e.runBuild(ctx, ws, version, wsdecksdk.WorkspaceTransitionStop, wsdecksdk.BuildReasonAutostop, owner, ws.LatestBuild.BuildNumber+1)
	if err != nil {
		return err
	}
	return e.commitBuild(ctx, nil, ws, build)
}

// RunAutobuild calls Autostop every interval until ctx is done.
func (e Engine) RunAutobuild(ctx context.Context, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = log.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := e.Autostop(ctx)
			if err != nil {
				logger.Printf("autobuild: %v", err)
			}
			if n > 0 {
				logger.Printf("autobuild: stopped %d workspace(s)", n)
			}
		}
	}
}

