package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	wsdecksdk "wsdeck/sdk/go"
)

func (r Repo) InsertTemplate(ctx context.Context, tx *sql.Tx, t wsdecksdk.Template) error {
	doc, err := encodeDoc(t)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO templates(id,organization_id,name,created_at,data) VALUES (?,?,?,?,?)`,
		t.ID.String(), t.OrganizationID.String(), t.Name, formatTime(t.CreatedAt), doc)
	return mapWriteErr(err)
}

func (r Repo) UpdateTemplate(ctx context.Context, tx *sql.Tx, t wsdecksdk.Template) error {
	doc, err := encodeDoc(t)
	if err != nil {
		return err
	}
	return expectOne(r.q(tx).ExecContext(ctx, `UPDATE templates SET name=?,data=? WHERE id=? AND deleted=0`, t.Name, doc, t.ID.String()))
}

func (r Repo) GetTemplate(ctx context.Context, id uuid.UUID) (wsdecksdk.Template, error) {
	return r.GetTemplateTx(ctx, nil, id)
}

func (r Repo) GetTemplateTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (wsdecksdk.Template, error) {
	return getDoc[wsdecksdk.Template](ctx, r.q(tx), `SELECT data FROM templates WHERE id=? AND deleted=0`, id.String())
}

func (r Repo) GetTemplateByName(ctx context.Context, orgID uuid.UUID, name string) (wsdecksdk.Template, error) {
	return getDoc[wsdecksdk.Template](ctx, r.DB, `SELECT data FROM templates WHERE organization_id=? AND name=? AND deleted=0`,
		orgID.String(), name)
}

// ListTemplates returns the live templates of an organization by name.
func (r Repo) ListTemplates(ctx context.Context, orgID uuid.UUID) ([]wsdecksdk.Template, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT data FROM templates WHERE organization_id=? AND deleted=0 ORDER BY name ASC`, orgID.String())
	if err != nil {
		return nil, err
	}
	return scanDocs[wsdecksdk.Template](rows)
}

// CountTemplateOwners counts distinct owners of live workspaces on a template.
func (r Repo) CountTemplateOwners(ctx context.Context, tx *sql.Tx, templateID uuid.UUID) (uint32, error) {
	var n uint32
	err := r.q(tx).QueryRowContext(ctx, `SELECT COUNT(DISTINCT owner_id) FROM workspaces WHERE template_id=? AND deleted=0`, templateID.String()).Scan(&n)
	return n, err
}

func (r Repo) InsertTemplateVersion(ctx context.Context, tx *sql.Tx, v wsdecksdk.TemplateVersion) error {
	doc, err := encodeDoc(v)
	if err != nil {
		return err
	}
	var orgID string
	if v.OrganizationID != nil {
		orgID = v.OrganizationID.String()
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO template_versions(id,organization_id,template_id,file_id,created_at,data) VALUES (?,?,?,?,?,?)`,
		v.ID.String(), orgID, templateIDArg(v.TemplateID), v.Job.FileID.String(), formatTime(v.CreatedAt), doc)
	return mapWriteErr(err)
}

func (r Repo) UpdateTemplateVersion(ctx context.Context, tx *sql.Tx, v wsdecksdk.TemplateVersion) error {
	doc, err := encodeDoc(v)
	if err != nil {
		return err
	}
	return expectOne(r.q(tx).ExecContext(ctx, `UPDATE template_versions SET template_id=?,data=? WHERE id=?`,
		templateIDArg(v.TemplateID), doc, v.ID.String()))
}

func (r Repo) GetTemplateVersion(ctx context.Context, id uuid.UUID) (wsdecksdk.TemplateVersion, error) {
	return getDoc[wsdecksdk.TemplateVersion](ctx, r.DB, `SELECT data FROM template_versions WHERE id=?`, id.String())
}

// ListTemplateVersions pages through the versions of a template, oldest first.
func (r Repo) ListTemplateVersions(ctx context.Context, templateID uuid.UUID, page domain.Page) ([]wsdecksdk.TemplateVersion, error) {
	l := listQuery{table: "template_versions", order: "created_at"}
	l.filter("template_id=?", templateID.String())
	return listDocs[wsdecksdk.TemplateVersion](ctx, r.DB, l, page)
}

func templateIDArg(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return nullableUUID(*id)
}
