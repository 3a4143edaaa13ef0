package repo

import (
	"context"

	"wsdeck/internal/domain"
	wsdecksdk "wsdeck/sdk/go"
)

func auditQuery(f domain.AuditFilter) listQuery {
	l := listQuery{table: "audit_logs", order: "time", desc: true}
	if f.ResourceType != nil {
		l.filter("resource_type=?", string(*f.ResourceType))
	}
	if f.ResourceID != nil {
		l.filter("resource_id=?", f.ResourceID.String())
	}
	if f.Action != nil {
		l.filter("action=?", string(*f.Action))
	}
	return l
}

// ListAuditLogs returns matching entries newest first.
func (r Repo) ListAuditLogs(ctx context.Context, f domain.AuditFilter, page domain.Page) ([]wsdecksdk.AuditLog, error) {
	return listDocs[wsdecksdk.AuditLog](ctx, r.DB, auditQuery(f), page)
}

func (r Repo) CountAuditLogs(ctx context.Context, f domain.AuditFilter) (int64, error) {
	return countRows(ctx, r.DB, auditQuery(f))
}
