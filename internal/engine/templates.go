package engine

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	"wsdeck/internal/engine/auth"
	"wsdeck/internal/events"
	"wsdeck/internal/provisioner"
	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

// MaxTTL bounds workspace and template TTLs.
const MaxTTL = 7 * 24 * time.Hour

// UploadFile stores a template source. Uploading the same content twice
// returns the first file.
func (e Engine) UploadFile(ctx context.Context, actor wsdecksdk.User, contentType string, content []byte) (wsdecksdk.UploadResponse, error) {
	if err := auth.Require(actor, auth.PermTemplatesWrite); err != nil {
		return wsdecksdk.UploadResponse{}, err
	}
	switch contentType {
	case wsdecksdk.ContentTypeTar, wsdecksdk.ContentTypeYAML:
	default:
		return wsdecksdk.UploadResponse{}, invalidf("Unsupported content type %q.", contentType)
	}
	if len(content) == 0 {
		return wsdecksdk.UploadResponse{}, invalidf("File is empty.")
	}
	if len(content) > provisioner.MaxSourceSize {
		return wsdecksdk.UploadResponse{}, invalidf("File is larger than %d bytes.", provisioner.MaxSourceSize)
	}
	sum := sha256.Sum256(content)
	f, err := e.Repo.InsertFile(ctx, domain.File{
		ID:          uuid.New(),
		Hash:        hex.EncodeToString(sum[:]),
		ContentType: contentType,
		CreatedBy:   actor.ID,
		CreatedAt:   e.now(),
		Content:     content,
	})
	if err != nil {
		return wsdecksdk.UploadResponse{}, err
	}
	return wsdecksdk.UploadResponse{ID: f.ID}, nil
}

// provision runs a job against a stored file. The job always completes; a
// bad source fails the job, not the call.
func (e Engine) provision(ctx context.Context, fileID uuid.UUID, transition wsdecksdk.WorkspaceTransition) (wsdecksdk.ProvisionerJob, provisioner.Manifest, []wsdecksdk.WorkspaceResource, error) {
	now := e.now()
	job := wsdecksdk.ProvisionerJob{
		ID:        uuid.New(),
		CreatedAt: now,
		StartedAt: &now,
		FileID:    fileID,
		Tags:      map[string]string{"scope": "organization"},
	}
	finish := func(err error) {
		done := e.now()
		job.CompletedAt = &done
		job.Status = wsdecksdk.ProvisionerJobSucceeded
		if err != nil {
			job.Status = wsdecksdk.ProvisionerJobFailed
			job.Error = wsdecksdk.Ptr(err.Error())
		}
	}
	f, err := e.Repo.GetFile(ctx, fileID)
	if errors.Is(err, repo.ErrNotFound) {
		return job, provisioner.Manifest{}, nil, invalid("file_id", "file does not exist")
	}
	if err != nil {
		return job, provisioner.Manifest{}, nil, err
	}
	manifest, err := provisioner.Parse(f.ContentType, f.Content)
	if err == nil && manifest.Fail != "" {
		err = errors.New(manifest.Fail)
	}
	finish(err)
	if err != nil {
		return job, manifest, []wsdecksdk.WorkspaceResource{}, nil
	}
	return job, manifest, manifest.Plan(job.ID, transition, e.now()), nil
}

// CreateTemplateVersion imports an uploaded source into an organization,
// optionally under an existing template.
func (e Engine) CreateTemplateVersion(ctx context.Context, actor wsdecksdk.User, orgID uuid.UUID, req wsdecksdk.CreateTemplateVersionRequest) (wsdecksdk.TemplateVersion, error) {
	if err := auth.Require(actor, auth.PermTemplatesWrite); err != nil {
		return wsdecksdk.TemplateVersion{}, err
	}
	if _, err := e.Organization(ctx, actor, orgID); err != nil {
		return wsdecksdk.TemplateVersion{}, err
	}
	if req.TemplateID != nil {
		t, err := e.Repo.GetTemplate(ctx, *req.TemplateID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && t.OrganizationID != orgID) {
			return wsdecksdk.TemplateVersion{}, invalid("template_id", "template does not exist in this organization")
		}
		if err != nil {
			return wsdecksdk.TemplateVersion{}, err
		}
	}
	job, manifest, _, err := e.provision(ctx, req.FileID, wsdecksdk.WorkspaceTransitionStart)
	if err != nil {
		return wsdecksdk.TemplateVersion{}, err
	}
	if req.Provisioner == wsdecksdk.ProvisionerTypeTerraform {
		job.Status = wsdecksdk.ProvisionerJobFailed
		job.Error = wsdecksdk.Ptr("no terraform provisioner daemon is available")
	}
	if len(req.ProvisionerTags) > 0 {
		for k, v := range req.ProvisionerTags {
			job.Tags[k] = v
		}
	}
	now := e.now()
	id := uuid.New()
	name := id.String()[:8]
	if req.Name != nil && *req.Name != "" {
		name = *req.Name
	}
	v := wsdecksdk.TemplateVersion{
		ID:             id,
		TemplateID:     req.TemplateID,
		OrganizationID: &orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Name:           name,
		Job:            job,
		Readme:         manifest.Readme,
		CreatedBy:      actor,
	}
	err = e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertTemplateVersion(ctx, tx, v); err != nil {
			return err
		}
		return e.audit(ctx, tx, &actor, events.Entry{
			OrganizationID: orgID,
			ResourceType:   wsdecksdk.ResourceTypeTemplateVersion,
			ResourceID:     v.ID,
			ResourceTarget: v.Name,
			Action:         wsdecksdk.AuditActionCreate,
			StatusCode:     201,
		})
	})
	return v, err
}

func (e Engine) TemplateVersion(ctx context.Context, actor wsdecksdk.User, id uuid.UUID) (wsdecksdk.TemplateVersion, error) {
	if err := auth.Require(actor, auth.PermTemplatesRead); err != nil {
		return wsdecksdk.TemplateVersion{}, err
	}
	v, err := e.Repo.GetTemplateVersion(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return v, notFound("template version", id)
	}
	return v, err
}

func (e Engine) TemplateVersionsByTemplate(ctx context.Context, actor wsdecksdk.User, templateID uuid.UUID, p wsdecksdk.Pagination) ([]wsdecksdk.TemplateVersion, error) {
	if _, err := e.Template(ctx, actor, templateID); err != nil {
		return nil, err
	}
	return e.Repo.ListTemplateVersions(ctx, templateID, domain.PageFrom(p))
}

func validTTL(field string, ms *int64) error {
	if ms == nil {
		return nil
	}
	ttl := time.Duration(*ms) * time.Millisecond
	if ttl < 0 {
		return invalid(field, "must not be negative")
	}
	if ttl > MaxTTL {
		return invalid(field, fmt.Sprintf("must be at most %s", MaxTTL))
	}
	return nil
}

// CreateTemplate publishes a successfully imported version as a new template.
func (e Engine) CreateTemplate(ctx context.Context, actor wsdecksdk.User, orgID uuid.UUID, req wsdecksdk.CreateTemplateRequest) (wsdecksdk.Template, error) {
	if err := auth.Require(actor, auth.PermTemplatesWrite); err != nil {
		return wsdecksdk.Template{}, err
	}
	if err := validName("name", req.Name); err != nil {
		return wsdecksdk.Template{}, err
	}
	if err := validTTL("default_ttl_ms", req.DefaultTTLMillis); err != nil {
		return wsdecksdk.Template{}, err
	}
	if _, err := e.Organization(ctx, actor, orgID); err != nil {
		return wsdecksdk.Template{}, err
	}
	v, err := e.Repo.GetTemplateVersion(ctx, req.VersionID)
	if errors.Is(err, repo.ErrNotFound) {
		return wsdecksdk.Template{}, invalid("template_version_id", "template version does not exist")
	}
	if err != nil {
		return wsdecksdk.Template{}, err
	}
	switch {
	case v.OrganizationID == nil || *v.OrganizationID != orgID:
		return wsdecksdk.Template{}, invalid("template_version_id", "template version belongs to another organization")
	case v.TemplateID != nil:
		return wsdecksdk.Template{}, invalid("template_version_id", "template version is already used by a template")
	case v.Job.Status != wsdecksdk.ProvisionerJobSucceeded:
		return wsdecksdk.Template{}, invalid("template_version_id", "template version import has not succeeded")
	}
	now := e.now()
	t := wsdecksdk.Template{
		ID:              uuid.New(),
		CreatedAt:       now,
		UpdatedAt:       now,
		OrganizationID:  orgID,
		Name:            req.Name,
		Provisioner:     wsdecksdk.ProvisionerTypeEcho,
		ActiveVersionID: v.ID,
		CreatedByID:     actor.ID,
		CreatedByName:   actor.Username,
	}
	if req.DisplayName != nil {
		t.DisplayName = *req.DisplayName
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Icon != nil {
		t.Icon = *req.Icon
	}
	if req.DefaultTTLMillis != nil {
		t.DefaultTTLMillis = *req.DefaultTTLMillis
	}
	v.TemplateID = &t.ID
	v.UpdatedAt = now
	err = e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertTemplate(ctx, tx, t); err != nil {
			return err
		}
		if err := e.Repo.UpdateTemplateVersion(ctx, tx, v); err != nil {
			return err
		}
		return e.audit(ctx, tx, &actor, events.Entry{
			OrganizationID: orgID,
			ResourceType:   wsdecksdk.ResourceTypeTemplate,
			ResourceID:     t.ID,
			ResourceTarget: t.Name,
			ResourceIcon:   t.Icon,
			Action:         wsdecksdk.AuditActionCreate,
			StatusCode:     201,
		})
	})
	return t, err
}

// withOwnerCount refreshes the derived owner count of t.
func (e Engine) withOwnerCount(ctx context.Context, t wsdecksdk.Template) (wsdecksdk.Template, error) {
	n, err := e.Repo.CountTemplateOwners(ctx, nil, t.ID)
	if err != nil {
		return t, err
	}
	t.WorkspaceOwnerCount = n
	return t, nil
}

func (e Engine) Template(ctx context.Context, actor wsdecksdk.User, id uuid.UUID) (wsdecksdk.Template, error) {
	if err := auth.Require(actor, auth.PermTemplatesRead); err != nil {
		return wsdecksdk.Template{}, err
	}
	t, err := e.Repo.GetTemplate(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return t, notFound("template", id)
	}
	if err != nil {
		return t, err
	}
	return e.withOwnerCount(ctx, t)
}

func (e Engine) TemplateByName(ctx context.Context, actor wsdecksdk.User, orgID uuid.UUID, name string) (wsdecksdk.Template, error) {
	if err := auth.Require(actor, auth.PermTemplatesRead); err != nil {
		return wsdecksdk.Template{}, err
	}
	if err := e.requireMember(ctx, actor, orgID); err != nil {
		return wsdecksdk.Template{}, err
	}
	t, err := e.Repo.GetTemplateByName(ctx, orgID, name)
	if errors.Is(err, repo.ErrNotFound) {
		return t, notFound("template", name)
	}
	if err != nil {
		return t, err
	}
	return e.withOwnerCount(ctx, t)
}

func (e Engine) TemplatesByOrganization(ctx context.Context, actor wsdecksdk.User, orgID uuid.UUID) ([]wsdecksdk.Template, error) {
	if err := auth.Require(actor, auth.PermTemplatesRead); err != nil {
		return nil, err
	}
	if err := e.requireMember(ctx, actor, orgID); err != nil {
		return nil, err
	}
	templates, err := e.Repo.ListTemplates(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i], err = e.withOwnerCount(ctx, templates[i]); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// UpdateTemplateMeta changes the fields set in req and leaves the rest.
func (e Engine) UpdateTemplateMeta(ctx context.Context, actor wsdecksdk.User, id uuid.UUID, req wsdecksdk.UpdateTemplateMeta) (wsdecksdk.Template, error) {
	if err := auth.Require(actor, auth.PermTemplatesWrite); err != nil {
		return wsdecksdk.Template{}, err
	}
	if req.Name != nil {
		if err := validName("name", *req.Name); err != nil {
			return wsdecksdk.Template{}, err
		}
	}
	if err := validTTL("default_ttl_ms", req.DefaultTTLMillis); err != nil {
		return wsdecksdk.Template{}, err
	}
	before, err := e.Template(ctx, actor, id)
	if err != nil {
		return before, err
	}
	t := before
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.DisplayName != nil {
		t.DisplayName = *req.DisplayName
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Icon != nil {
		t.Icon = *req.Icon
	}
	if req.DefaultTTLMillis != nil {
		t.DefaultTTLMillis = *req.DefaultTTLMillis
	}
	diff := events.Diff(templateFields(before), templateFields(t))
	if len(diff) == 0 {
		return t, nil
	}
	t.UpdatedAt = e.now()
	err = e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.UpdateTemplate(ctx, tx, t); err != nil {
			return err
		}
		return e.audit(ctx, tx, &actor, events.Entry{
			OrganizationID: t.OrganizationID,
			ResourceType:   wsdecksdk.ResourceTypeTemplate,
			ResourceID:     t.ID,
			ResourceTarget: t.Name,
			ResourceIcon:   t.Icon,
			Action:         wsdecksdk.AuditActionWrite,
			Diff:           diff,
		})
	})
	return t, err
}

func templateFields(t wsdecksdk.Template) map[string]any {
	return map[string]any{
		"name":           t.Name,
		"display_name":   t.DisplayName,
		"description":    t.Description,
		"icon":           t.Icon,
		"default_ttl_ms": t.DefaultTTLMillis,
	}
}

// recordBuildTime keeps the latest job duration per transition on the
// template.
func (e Engine) recordBuildTime(ctx context.Context, tx *sql.Tx, templateID uuid.UUID, transition wsdecksdk.WorkspaceTransition, job wsdecksdk.ProvisionerJob) error {
	if job.StartedAt == nil || job.CompletedAt == nil || job.Status != wsdecksdk.ProvisionerJobSucceeded {
		return nil
	}
	t, err := e.Repo.GetTemplateTx(ctx, tx, templateID)
	if err != nil {
		return err
	}
	ms := wsdecksdk.Ptr(job.CompletedAt.Sub(*job.StartedAt).Milliseconds())
	switch transition {
	case wsdecksdk.WorkspaceTransitionStart:
		t.BuildTimeStats.StartMillis = ms
	case wsdecksdk.WorkspaceTransitionStop:
		t.BuildTimeStats.StopMillis = ms
	case wsdecksdk.WorkspaceTransitionDelete:
		t.BuildTimeStats.DeleteMillis = ms
	}
	return e.Repo.UpdateTemplate(ctx, tx, t)
}
