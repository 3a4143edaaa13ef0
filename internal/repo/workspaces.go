package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	wsdecksdk "wsdeck/sdk/go"
)

// workspaceDeleted reports whether the latest build finished deleting w.
func workspaceDeleted(w wsdecksdk.Workspace) bool {
	return w.LatestBuild.Status == wsdecksdk.WorkspaceStatusDeleted
}

func (r Repo) InsertWorkspace(ctx context.Context, tx *sql.Tx, w wsdecksdk.Workspace) error {
	doc, err := encodeDoc(w)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO workspaces(id,owner_id,owner_name,template_id,template_name,name,status,deleted,created_at,data)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		w.ID.String(), w.OwnerID.String(), w.OwnerName, w.TemplateID.String(), w.TemplateName, w.Name,
		string(w.LatestBuild.Status), boolInt(workspaceDeleted(w)), formatTime(w.CreatedAt), doc)
	return mapWriteErr(err)
}

func (r Repo) UpdateWorkspace(ctx context.Context, tx *sql.Tx, w wsdecksdk.Workspace) error {
	doc, err := encodeDoc(w)
	if err != nil {
		return err
	}
	return expectOne(r.q(tx).ExecContext(ctx, `UPDATE workspaces SET name=?,status=?,deleted=?,template_name=?,data=? WHERE id=?`,
		w.Name, string(w.LatestBuild.Status), boolInt(workspaceDeleted(w)), w.TemplateName, doc, w.ID.String()))
}

func (r Repo) GetWorkspace(ctx context.Context, tx *sql.Tx, id uuid.UUID, includeDeleted bool) (wsdecksdk.Workspace, error) {
	query := `SELECT data FROM workspaces WHERE id=?`
	if !includeDeleted {
		query += ` AND deleted=0`
	}
	return getDoc[wsdecksdk.Workspace](ctx, r.q(tx), query, id.String())
}

// GetWorkspaceByOwnerAndName prefers the live workspace; with includeDeleted
// the most recent deleted one is returned when no live one exists.
func (r Repo) GetWorkspaceByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string, includeDeleted bool) (wsdecksdk.Workspace, error) {
	query := `SELECT data FROM workspaces WHERE owner_id=? AND name=?`
	if !includeDeleted {
		query += ` AND deleted=0`
	}
	query += ` ORDER BY deleted ASC, created_at DESC LIMIT 1`
	return getDoc[wsdecksdk.Workspace](ctx, r.DB, query, ownerID.String(), name)
}

func workspaceQuery(f domain.WorkspaceFilter) listQuery {
	l := listQuery{table: "workspaces", order: "created_at"}
	if !f.IncludeDeleted {
		l.filter("deleted=0")
	}
	if f.OwnerID != nil {
		l.filter("owner_id=?", f.OwnerID.String())
	}
	if f.OwnerName != "" {
		l.filter("owner_name=?", f.OwnerName)
	}
	if f.Name != "" {
		l.filter(`name LIKE ? ESCAPE '\'`, "%"+escapeLike(f.Name)+"%")
	}
	if f.TemplateName != "" {
		l.filter("template_name=?", f.TemplateName)
	}
	if f.Status != nil {
		l.filter("status=?", string(*f.Status))
	}
	return l
}

func (r Repo) ListWorkspaces(ctx context.Context, f domain.WorkspaceFilter, page domain.Page) ([]wsdecksdk.Workspace, error) {
	return listDocs[wsdecksdk.Workspace](ctx, r.DB, workspaceQuery(f), page)
}

func (r Repo) CountWorkspaces(ctx context.Context, f domain.WorkspaceFilter) (int64, error) {
	return countRows(ctx, r.DB, workspaceQuery(f))
}

func (r Repo) InsertWorkspaceBuild(ctx context.Context, tx *sql.Tx, b wsdecksdk.WorkspaceBuild) error {
	doc, err := encodeDoc(b)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO workspace_builds(id,workspace_id,build_number,created_at,data) VALUES (?,?,?,?,?)`,
		b.ID.String(), b.WorkspaceID.String(), b.BuildNumber, formatTime(b.CreatedAt), doc)
	return mapWriteErr(err)
}

func (r Repo) UpdateWorkspaceBuild(ctx context.Context, tx *sql.Tx, b wsdecksdk.WorkspaceBuild) error {
	doc, err := encodeDoc(b)
	if err != nil {
		return err
	}
	return expectOne(r.q(tx).ExecContext(ctx, `UPDATE workspace_builds SET data=? WHERE id=?`, doc, b.ID.String()))
}

// ListWorkspaceBuilds returns builds newest first. A non-zero since drops
// builds created before it.
func (r Repo) ListWorkspaceBuilds(ctx context.Context, workspaceID uuid.UUID, since time.Time, page domain.Page) ([]wsdecksdk.WorkspaceBuild, error) {
	l := listQuery{table: "workspace_builds", order: "build_number", desc: true}
	l.filter("workspace_id=?", workspaceID.String())
	if !since.IsZero() {
		l.filter("created_at>=?", formatTime(since))
	}
	return listDocs[wsdecksdk.WorkspaceBuild](ctx, r.DB, l, page)
}
