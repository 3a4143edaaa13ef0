// Package engine implements the workspace service behind the HTTP API: users
// and sessions, templates, workspaces and their builds, audit and licensing.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/config"
	"wsdeck/internal/engine/auth"
	"wsdeck/internal/events"
	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

// Version is stamped at build time.
var Version = "v0.0.0-devel"

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db, Disabled: !cfg.Server.AuditLogging},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// InvalidError is a request that is well formed but not acceptable.
type InvalidError struct {
	Message     string
	Validations []wsdecksdk.ValidationError
}

func (e *InvalidError) Error() string {
	if len(e.Validations) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Validations))
	for _, v := range e.Validations {
		parts = append(parts, v.Field+": "+v.Detail)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func invalid(field, detail string) error {
	return &InvalidError{
		Message:     "Invalid request.",
		Validations: []wsdecksdk.ValidationError{{Field: field, Detail: detail}},
	}
}

func invalidf(format string, args ...any) error {
	return &InvalidError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnauthorized means the caller could not be identified.
var ErrUnauthorized = errors.New("unauthorized")

func notFound(kind string, ref any) error {
	return fmt.Errorf("%s %v: %w", kind, ref, repo.ErrNotFound)
}

// RequestInfo describes the HTTP request driving an engine call. It ends up
// in audit logs.
type RequestInfo struct {
	ID        uuid.UUID
	IP        string
	UserAgent string
}

type requestInfoKey struct{}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func requestInfo(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// audit appends an entry stamped with the request driving ctx.
func (e Engine) audit(ctx context.Context, tx *sql.Tx, actor *wsdecksdk.User, entry events.Entry) error {
	info := requestInfo(ctx)
	entry.RequestID = info.ID
	entry.IP = info.IP
	entry.UserAgent = info.UserAgent
	entry.User = actor
	e.Events.Now = e.now
	_, err := e.Events.Append(ctx, tx, entry)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

func (e Engine) BuildInfo() wsdecksdk.BuildInfoResponse {
	return wsdecksdk.BuildInfoResponse{
		ExternalURL: "https://github.com/wsdeck/wsdeck",
		Version:     Version,
	}
}

// DeploymentConfig describes the running server's options.
func (e Engine) DeploymentConfig(actor wsdecksdk.User) (wsdecksdk.DeploymentConfig, error) {
	if err := auth.Require(actor, auth.PermDeploymentRead); err != nil {
		return wsdecksdk.DeploymentConfig{}, err
	}
	return e.Config.DeploymentConfig()
}
