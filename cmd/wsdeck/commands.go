package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wsdeck/internal/config"
	wsdecksdk "wsdeck/sdk/go"
)

// pageFlags binds the pagination envelope to a command.
type pageFlags struct {
	afterID string
	limit   int
	offset  int
}

func (p *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.afterID, "after-id", "", "resume after this id")
	cmd.Flags().IntVar(&p.limit, "limit", 0, "maximum number of rows")
	cmd.Flags().IntVar(&p.offset, "offset", 0, "rows to skip")
}

func (p pageFlags) pagination(cmd *cobra.Command) (wsdecksdk.Pagination, error) {
	var out wsdecksdk.Pagination
	if p.afterID != "" {
		id, err := uuid.Parse(p.afterID)
		if err != nil {
			return out, fmt.Errorf("--after-id: %w", err)
		}
		out.AfterID = &id
	}
	if cmd.Flags().Changed("limit") {
		out.Limit = wsdecksdk.Ptr(p.limit)
	}
	if cmd.Flags().Changed("offset") {
		out.Offset = wsdecksdk.Ptr(p.offset)
	}
	return out, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func usersCmd() *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Inspect users"}
	var page pageFlags
	var q string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := page.pagination(cmd)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				res, err := c.Users(ctx, wsdecksdk.UsersRequest{Pagination: p, SearchQuery: optionalString(q)})
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(res.Users))
				for _, u := range res.Users {
					rows = append(rows, table.Row{u.ID, u.Username, u.Email, u.Status, formatTime(u.LastSeenAt)})
				}
				if err := printTable(res, table.Row{"ID", "Username", "Email", "Status", "Last Seen"}, rows); err != nil {
					return err
				}
				return footer("%d of %d users", len(res.Users), res.Count)
			})
		},
	}
	page.bind(list)
	list.Flags().StringVarP(&q, "search", "q", "", "search query, e.g. 'status:active ada'")
	users.AddCommand(list)
	users.AddCommand(&cobra.Command{
		Use:   "show <user>",
		Short: "Show a user by id, username or 'me'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				u, err := c.User(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(u)
			})
		},
	})
	return users
}

func templatesCmd() *cobra.Command {
	tpl := &cobra.Command{Use: "templates", Short: "Manage templates"}
	tpl.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates of the organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrganization(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ wsdecksdk.User, org uuid.UUID) error {
				items, err := c.TemplatesByOrganization(ctx, org)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(items))
				for _, t := range items {
					rows = append(rows, table.Row{t.ID, t.Name, t.DisplayName, t.WorkspaceOwnerCount, time.Duration(t.DefaultTTLMillis) * time.Millisecond})
				}
				return printTable(items, table.Row{"ID", "Name", "Display Name", "Owners", "Default TTL"}, rows)
			})
		},
	})
	tpl.AddCommand(&cobra.Command{
		Use:   "show <name|id>",
		Short: "Show a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrganization(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ wsdecksdk.User, org uuid.UUID) error {
				t, err := resolveTemplate(ctx, c, org, args[0])
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	})
	tpl.AddCommand(templateCreateCmd())
	tpl.AddCommand(templateVersionsCmd())
	tpl.AddCommand(templateEditCmd())
	return tpl
}

func templateCreateCmd() *cobra.Command {
	var displayName, description, icon string
	var defaultTTL time.Duration
	cmd := &cobra.Command{
		Use:   "create <name> <manifest.yaml|source.tar>",
		Short: "Upload a source, import it and create a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			contentType := wsdecksdk.ContentTypeYAML
			if strings.EqualFold(filepath.Ext(args[1]), ".tar") {
				contentType = wsdecksdk.ContentTypeTar
			}
			return withOrganization(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ wsdecksdk.User, org uuid.UUID) error {
				file, err := c.Upload(ctx, contentType, strings.NewReader(string(content)))
				if err != nil {
					return err
				}
				version, err := c.CreateTemplateVersion(ctx, org, wsdecksdk.CreateTemplateVersionRequest{
					StorageMethod:   wsdecksdk.ProvisionerStorageMethodFile,
					FileID:          file.ID,
					Provisioner:     wsdecksdk.ProvisionerTypeEcho,
					ProvisionerTags: map[string]string{},
				})
				if err != nil {
					return err
				}
				if version.Job.Status != wsdecksdk.ProvisionerJobSucceeded {
					return fmt.Errorf("template import %s: %s", version.Job.Status, formatOptional(version.Job.Error, func(s string) string { return s }))
				}
				req := wsdecksdk.CreateTemplateRequest{
					Name:        args[0],
					DisplayName: optionalString(displayName),
					Description: optionalString(description),
					Icon:        optionalString(icon),
					VersionID:   version.ID,
				}
				if cmd.Flags().Changed("default-ttl") {
					req.DefaultTTLMillis = wsdecksdk.Ptr(defaultTTL.Milliseconds())
				}
				t, err := c.CreateTemplate(ctx, org, req)
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&icon, "icon", "", "icon URL")
	cmd.Flags().DurationVar(&defaultTTL, "default-ttl", 0, "default workspace TTL")
	return cmd
}

func templateEditCmd() *cobra.Command {
	var name, displayName, description, icon string
	var defaultTTL time.Duration
	cmd := &cobra.Command{
		Use:   "edit <name|id>",
		Short: "Update template metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req wsdecksdk.UpdateTemplateMeta
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("display-name") {
				req.DisplayName = &displayName
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("icon") {
				req.Icon = &icon
			}
			if cmd.Flags().Changed("default-ttl") {
				req.DefaultTTLMillis = wsdecksdk.Ptr(defaultTTL.Milliseconds())
			}
			return withOrganization(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ wsdecksdk.User, org uuid.UUID) error {
				t, err := resolveTemplate(ctx, c, org, args[0])
				if err != nil {
					return err
				}
				updated, err := c.UpdateTemplateMeta(ctx, t.ID, req)
				if err != nil {
					return err
				}
				return printJSON(updated)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&icon, "icon", "", "icon URL")
	cmd.Flags().DurationVar(&defaultTTL, "default-ttl", 0, "default workspace TTL")
	return cmd
}

func templateVersionsCmd() *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "versions <name|id>",
		Short: "List versions of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := page.pagination(cmd)
			if err != nil {
				return err
			}
			return withOrganization(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ wsdecksdk.User, org uuid.UUID) error {
				t, err := resolveTemplate(ctx, c, org, args[0])
				if err != nil {
					return err
				}
				items, err := c.TemplateVersionsByTemplate(ctx, wsdecksdk.TemplateVersionsByTemplateRequest{Pagination: p, TemplateID: t.ID})
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(items))
				for _, v := range items {
					active := ""
					if v.ID == t.ActiveVersionID {
						active = "*"
					}
					rows = append(rows, table.Row{v.ID, v.Name, v.Job.Status, v.CreatedBy.Username, formatTime(v.CreatedAt), active})
				}
				return printTable(items, table.Row{"ID", "Name", "Job", "Created By", "Created", "Active"}, rows)
			})
		},
	}
	page.bind(cmd)
	return cmd
}

func resolveTemplate(ctx context.Context, c *wsdecksdk.Client, org uuid.UUID, ref string) (wsdecksdk.Template, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return c.Template(ctx, id)
	}
	return c.TemplateByName(ctx, org, ref)
}

// resolveWorkspace accepts an id, "owner/name" or a name owned by the caller.
func resolveWorkspace(ctx context.Context, c *wsdecksdk.Client, ref string, opts wsdecksdk.WorkspaceOptions) (wsdecksdk.Workspace, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return c.Workspace(ctx, id, opts)
	}
	owner, name, ok := strings.Cut(ref, "/")
	if !ok {
		owner, name = wsdecksdk.Me, ref
	}
	return c.WorkspaceByOwnerAndName(ctx, owner, name, opts)
}

func workspacesCmd() *cobra.Command {
	ws := &cobra.Command{Use: "workspaces", Aliases: []string{"ws"}, Short: "Manage workspaces"}
	ws.AddCommand(workspaceListCmd())
	ws.AddCommand(workspaceShowCmd())
	ws.AddCommand(workspaceCreateCmd())
	for _, transition := range []wsdecksdk.WorkspaceTransition{
		wsdecksdk.WorkspaceTransitionStart,
		wsdecksdk.WorkspaceTransitionStop,
		wsdecksdk.WorkspaceTransitionDelete,
	} {
		ws.AddCommand(workspaceTransitionCmd(transition))
	}
	ws.AddCommand(workspaceTTLCmd())
	ws.AddCommand(workspaceAutostartCmd())
	ws.AddCommand(workspaceExtendCmd())
	return ws
}

func workspaceListCmd() *cobra.Command {
	var page pageFlags
	var q string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := page.pagination(cmd)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				res, err := c.Workspaces(ctx, wsdecksdk.WorkspacesRequest{Pagination: p, SearchQuery: optionalString(q)})
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(res.Workspaces))
				for _, w := range res.Workspaces {
					outdated := ""
					if w.Outdated {
						outdated = "yes"
					}
					rows = append(rows, table.Row{w.OwnerName + "/" + w.Name, w.TemplateName, w.LatestBuild.Status, outdated, formatOptional(w.LatestBuild.Deadline, formatTime)})
				}
				if err := printTable(res, table.Row{"Workspace", "Template", "Status", "Outdated", "Deadline"}, rows); err != nil {
					return err
				}
				return footer("%d of %d workspaces", len(res.Workspaces), res.Count)
			})
		},
	}
	page.bind(cmd)
	cmd.Flags().StringVarP(&q, "search", "q", "", "search query, e.g. 'owner:me status:running'")
	return cmd
}

func workspaceShowCmd() *cobra.Command {
	var includeDeleted bool
	cmd := &cobra.Command{
		Use:   "show <workspace>",
		Short: "Show a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts wsdecksdk.WorkspaceOptions
			if includeDeleted {
				opts.IncludeDeleted = wsdecksdk.Ptr(true)
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				w, err := resolveWorkspace(ctx, c, args[0], opts)
				if err != nil {
					return err
				}
				return printJSON(w)
			})
		},
	}
	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "also match deleted workspaces")
	return cmd
}

func workspaceCreateCmd() *cobra.Command {
	var owner, schedule string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "create <name> <template>",
		Short: "Create and start a workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrganization(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ wsdecksdk.User, org uuid.UUID) error {
				t, err := resolveTemplate(ctx, c, org, args[1])
				if err != nil {
					return err
				}
				req := wsdecksdk.CreateWorkspaceRequest{
					TemplateID:        t.ID,
					Name:              args[0],
					AutostartSchedule: optionalString(schedule),
				}
				if cmd.Flags().Changed("ttl") {
					req.TTLMillis = wsdecksdk.Ptr(ttl.Milliseconds())
				}
				w, err := c.CreateWorkspace(ctx, org, owner, req)
				if err != nil {
					return err
				}
				fmt.Printf("Workspace %s/%s is %s\n", w.OwnerName, w.Name, w.LatestBuild.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", wsdecksdk.Me, "owner of the workspace")
	cmd.Flags().StringVar(&schedule, "autostart", "", "autostart schedule, e.g. 'CRON_TZ=Europe/Paris 30 9 * * 1-5'")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "time until autostop")
	return cmd
}

func workspaceTransitionCmd(transition wsdecksdk.WorkspaceTransition) *cobra.Command {
	var dryRun, orphan bool
	var version string
	cmd := &cobra.Command{
		Use:   string(transition) + " <workspace>",
		Short: strings.ToUpper(string(transition[:1])) + string(transition[1:]) + " a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := wsdecksdk.CreateWorkspaceBuildRequest{Transition: transition}
			if dryRun {
				req.DryRun = wsdecksdk.Ptr(true)
			}
			if orphan {
				req.Orphan = wsdecksdk.Ptr(true)
			}
			if version != "" {
				id, err := uuid.Parse(version)
				if err != nil {
					return fmt.Errorf("--version: %w", err)
				}
				req.TemplateVersionID = &id
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				w, err := resolveWorkspace(ctx, c, args[0], wsdecksdk.WorkspaceOptions{})
				if err != nil {
					return err
				}
				b, err := c.CreateWorkspaceBuild(ctx, w.ID, req)
				if err != nil {
					return err
				}
				if dryRun {
					return printJSON(b)
				}
				fmt.Printf("Build #%d of %s: %s\n", b.BuildNumber, w.Name, b.Status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan the build without recording it")
	cmd.Flags().StringVar(&version, "version", "", "template version id (defaults to the current one)")
	if transition == wsdecksdk.WorkspaceTransitionDelete {
		cmd.Flags().BoolVar(&orphan, "orphan", false, "delete the workspace without tearing down its resources")
	}
	return cmd
}

func workspaceTTLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ttl <workspace> <duration|off>",
		Short: "Set the time until autostop",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req wsdecksdk.UpdateWorkspaceTTLRequest
			if args[1] != "off" {
				d, err := time.ParseDuration(args[1])
				if err != nil {
					return err
				}
				req.TTLMillis = wsdecksdk.Ptr(d.Milliseconds())
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				w, err := resolveWorkspace(ctx, c, args[0], wsdecksdk.WorkspaceOptions{})
				if err != nil {
					return err
				}
				return c.UpdateWorkspaceTTL(ctx, w.ID, req)
			})
		},
	}
}

func workspaceAutostartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "autostart <workspace> <schedule|off>",
		Short: "Set the autostart schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req wsdecksdk.UpdateWorkspaceAutostartRequest
			if args[1] != "off" {
				req.Schedule = &args[1]
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				w, err := resolveWorkspace(ctx, c, args[0], wsdecksdk.WorkspaceOptions{})
				if err != nil {
					return err
				}
				return c.UpdateWorkspaceAutostart(ctx, w.ID, req)
			})
		},
	}
}

func workspaceExtendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extend <workspace> <duration>",
		Short: "Move the deadline of a running workspace to now plus duration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[1])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				w, err := resolveWorkspace(ctx, c, args[0], wsdecksdk.WorkspaceOptions{})
				if err != nil {
					return err
				}
				deadline := time.Now().Add(d).UTC()
				if err := c.PutExtendWorkspace(ctx, w.ID, wsdecksdk.PutExtendWorkspaceRequest{Deadline: deadline}); err != nil {
					return err
				}
				fmt.Printf("Deadline of %s moved to %s\n", w.Name, formatTime(deadline))
				return nil
			})
		},
	}
}

func buildsCmd() *cobra.Command {
	builds := &cobra.Command{Use: "builds", Short: "Inspect workspace builds"}
	var page pageFlags
	var since time.Duration
	list := &cobra.Command{
		Use:   "list <workspace>",
		Short: "List builds of a workspace, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := page.pagination(cmd)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				w, err := resolveWorkspace(ctx, c, args[0], wsdecksdk.WorkspaceOptions{IncludeDeleted: wsdecksdk.Ptr(true)})
				if err != nil {
					return err
				}
				req := wsdecksdk.WorkspaceBuildsRequest{Pagination: p, WorkspaceID: w.ID}
				if since > 0 {
					req.Since = time.Now().Add(-since)
				}
				items, err := c.WorkspaceBuilds(ctx, req)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(items))
				for _, b := range items {
					rows = append(rows, table.Row{b.BuildNumber, b.Transition, b.Status, b.Reason, b.InitiatorUsername, len(b.Resources), b.DailyCost, formatTime(b.CreatedAt)})
				}
				return printTable(items, table.Row{"#", "Transition", "Status", "Reason", "Initiator", "Resources", "Cost", "Created"}, rows)
			})
		},
	}
	page.bind(list)
	list.Flags().DurationVar(&since, "since", 0, "only builds created within this duration")
	builds.AddCommand(list)
	return builds
}

func auditCmd() *cobra.Command {
	audit := &cobra.Command{Use: "audit", Short: "Search the audit log"}
	var page pageFlags
	var q string
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit logs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := page.pagination(cmd)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				res, err := c.AuditLogs(ctx, wsdecksdk.AuditLogsRequest{Pagination: p, SearchQuery: optionalString(q)})
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(res.AuditLogs))
				for _, l := range res.AuditLogs {
					rows = append(rows, table.Row{formatTime(l.Time), l.Description, l.Action, l.ResourceType, len(l.Diff)})
				}
				return printTable(res, table.Row{"Time", "Description", "Action", "Resource", "Changes"}, rows)
			})
		},
	}
	page.bind(list)
	list.Flags().StringVarP(&q, "search", "q", "", "search query, e.g. 'resource_type:workspace action:write'")
	audit.AddCommand(list)

	var countQ string
	count := &cobra.Command{
		Use:   "count",
		Short: "Count matching audit logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				res, err := c.AuditLogCount(ctx, wsdecksdk.AuditLogCountRequest{SearchQuery: optionalString(countQ)})
				if err != nil {
					return err
				}
				fmt.Println(res.Count)
				return nil
			})
		},
	}
	count.Flags().StringVarP(&countQ, "search", "q", "", "search query")
	audit.AddCommand(count)
	return audit
}

func licensesCmd() *cobra.Command {
	lic := &cobra.Command{Use: "licenses", Short: "Manage enterprise licenses"}
	lic.AddCommand(&cobra.Command{
		Use:   "add <file|->",
		Short: "Upload a license JWT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(os.Stdin)
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				l, err := c.AddLicense(ctx, wsdecksdk.AddLicenseRequest{License: strings.TrimSpace(string(raw))})
				if err != nil {
					return err
				}
				fmt.Printf("License #%d (%s) added\n", l.ID, l.UUID)
				return nil
			})
		},
	})
	lic.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List licenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				items, err := c.Licenses(ctx)
				if err != nil {
					return err
				}
				rows := make([]table.Row, 0, len(items))
				for _, l := range items {
					rows = append(rows, table.Row{l.ID, l.UUID, formatTime(l.UploadedAt), strings.Join(claimKeys(l), ",")})
				}
				return printTable(items, table.Row{"ID", "UUID", "Uploaded", "Claims"}, rows)
			})
		},
	})
	lic.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("license id: %w", err)
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				return c.DeleteLicense(ctx, int32(id))
			})
		},
	})
	return lic
}

func entitlementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entitlements",
		Short: "Show feature entitlements of the deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				ent, err := c.Entitlements(ctx)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(ent.Features))
				for name := range ent.Features {
					names = append(names, name)
				}
				sort.Strings(names)
				rows := make([]table.Row, 0, len(names))
				for _, name := range names {
					f := ent.Features[name]
					limit := formatOptional(f.Limit, func(n int64) string { return strconv.FormatInt(n, 10) })
					actual := formatOptional(f.Actual, func(n int64) string { return strconv.FormatInt(n, 10) })
					rows = append(rows, table.Row{name, f.Entitlement, f.Enabled, limit, actual})
				}
				if err := printTable(ent, table.Row{"Feature", "Entitlement", "Enabled", "Limit", "Actual"}, rows); err != nil {
					return err
				}
				for _, w := range ent.Warnings {
					fmt.Fprintln(os.Stderr, "warning:", w)
				}
				for _, e := range ent.Errors {
					fmt.Fprintln(os.Stderr, "error:", e)
				}
				return nil
			})
		},
	}
}

func claimKeys(l wsdecksdk.License) []string {
	keys := make([]string, 0, len(l.Claims))
	for k := range l.Claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
