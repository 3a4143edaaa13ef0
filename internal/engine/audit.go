package engine

import (
	"context"

	"wsdeck/internal/domain"
	"wsdeck/internal/engine/auth"
	wsdecksdk "wsdeck/sdk/go"
)

// AuditLogs lists audit entries newest first.
func (e Engine) AuditLogs(ctx context.Context, actor wsdecksdk.User, q string, p wsdecksdk.Pagination) (wsdecksdk.AuditLogResponse, error) {
	if err := auth.Require(actor, auth.PermAuditRead); err != nil {
		return wsdecksdk.AuditLogResponse{}, err
	}
	filter, err := ParseAuditQuery(q)
	if err != nil {
		return wsdecksdk.AuditLogResponse{}, err
	}
	logs, err := e.Repo.ListAuditLogs(ctx, filter, domain.PageFrom(p))
	if err != nil {
		return wsdecksdk.AuditLogResponse{}, err
	}
	return wsdecksdk.AuditLogResponse{AuditLogs: logs}, nil
}

func (e Engine) AuditLogCount(ctx context.Context, actor wsdecksdk.User, q string) (wsdecksdk.AuditLogCountResponse, error) {
	if err := auth.Require(actor, auth.PermAuditRead); err != nil {
		return wsdecksdk.AuditLogCountResponse{}, err
	}
	filter, err := ParseAuditQuery(q)
	if err != nil {
		return wsdecksdk.AuditLogCountResponse{}, err
	}
	n, err := e.Repo.CountAuditLogs(ctx, filter)
	if err != nil {
		return wsdecksdk.AuditLogCountResponse{}, err
	}
	return wsdecksdk.AuditLogCountResponse{Count: n}, nil
}
