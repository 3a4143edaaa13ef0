package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wsdeck/internal/app"
	"wsdeck/internal/config"
	"wsdeck/internal/db"
	"wsdeck/internal/engine"
	"wsdeck/internal/migrate"
	"wsdeck/internal/server"
	wsdecksdk "wsdeck/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "wsdeck",
	Short: "Workspace deck CLI",
	Long: `wsdeck runs and drives a self-hosted workspace service.
- Templates: uploaded YAML manifests (or tar archives with a README.md) that declare workspace resources and agents.
- Template versions: an imported source; a template points at its active version.
- Workspaces: per-user instances of a template, moved between start, stop and delete by builds.
- Builds: numbered transitions of a workspace; the latest one decides its status and deadline.
- Audit log: who changed what, searchable with resource_type:, resource_id: and action: terms.
- Licenses: signed JWTs that unlock enterprise features reported by 'wsdeck entitlements'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("WSDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory holding wsdeck.yml")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("url", "", "server URL (overrides client.url)")
	rootCmd.PersistentFlags().String("token", "", "session token (overrides client.session_token)")
	rootCmd.PersistentFlags().String("organization", "", "organization id (overrides client.organization_id)")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
	for _, name := range []string{"workspace", "json", "url", "token", "organization", "timeout"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(workspacesCmd())
	rootCmd.AddCommand(buildsCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(licensesCmd())
	rootCmd.AddCommand(entitlementsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(decodeCmd())
}

func serveCmd() *cobra.Command {
	var (
		addr, basePath string
		inMemory       bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("address") {
				cfg.Server.Address = addr
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Server.BasePath = basePath
			}
			if cmd.Flags().Changed("in-memory") {
				cfg.Server.InMemoryDatabase = inMemory
			}
			if secret := viper.GetString("jwt-secret"); secret != "" {
				cfg.Server.JWTSecret = secret
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := log.New(os.Stderr, "wsdeck: ", log.LstdFlags)
			conn, err := db.Open(db.Config{Workspace: workspace, InMemory: cfg.Server.InMemoryDatabase})
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			applied, err := migrate.Migrate(ctx, conn)
			if err != nil {
				return err
			}
			for _, name := range applied {
				logger.Printf("applied migration %s", name)
			}
			if version, err := migrate.Version(ctx, conn); err == nil {
				logger.Printf("database schema at version %d", version)
			}
			if cfg.Server.JWTSecret == "" {
				logger.Printf("no jwt secret configured; bearer JWTs are rejected")
			}

			e := engine.New(conn, cfg)
			handler, err := server.New(server.Config{
				Engine:   e,
				BasePath: cfg.Server.BasePath,
				Auth:     server.AuthConfig{JWTSecret: cfg.Server.JWTSecret, Logger: logger},
			})
			if err != nil {
				return err
			}
			go e.RunAutobuild(ctx, cfg.Server.AutobuildPollInterval, logger)

			srv := &http.Server{Addr: cfg.Server.Address, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			logger.Printf("serving on http://%s%s (OpenAPI at %s/openapi.json, docs at %s/docs)",
				cfg.Server.Address, cfg.Server.BasePath, cfg.Server.BasePath, cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "address", "", "listen address (overrides server.address)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides server.base_path)")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep all data in memory")
	cmd.Flags().String("jwt-secret", "", "HMAC secret for bearer JWTs")
	_ = viper.BindPFlag("jwt-secret", cmd.Flags().Lookup("jwt-secret"))
	return cmd
}

func loginCmd() *cobra.Command {
	var email, username string
	var firstUser, trial bool
	cmd := &cobra.Command{
		Use:   "login <url>",
		Short: "Log in and store the session in wsdeck.yml",
		Long:  "Log in with email and password. With --first-user the initial admin account is created first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(strings.TrimRight(args[0], "/"))
			if err != nil {
				return err
			}
			password := viper.GetString("password")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or WSDECK_PASSWORD) are required")
			}
			c := wsdecksdk.New(u)
			c.Timeout = viper.GetDuration("timeout")
			ctx := cmd.Context()
			if firstUser {
				if username == "" {
					username, _, _ = strings.Cut(email, "@")
				}
				if _, err := c.CreateFirstUser(ctx, wsdecksdk.CreateFirstUserRequest{
					Email:    email,
					Username: username,
					Password: password,
					Trial:    trial,
				}); err != nil {
					return err
				}
			}
			res, err := c.LoginWithPassword(ctx, wsdecksdk.LoginWithPasswordRequest{Email: email, Password: password})
			if err != nil {
				return err
			}
			c.SessionToken = res.SessionToken
			me, err := c.User(ctx, wsdecksdk.Me)
			if err != nil {
				return err
			}
			orgID := uuid.Nil
			if len(me.OrganizationIDs) > 0 {
				orgID = me.OrganizationIDs[0]
			}
			if err := app.SaveSession(viper.GetString("workspace"), u, res.SessionToken, orgID); err != nil {
				return err
			}
			fmt.Printf("Logged in to %s as %s\n", u, me.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	cmd.Flags().StringVar(&username, "username", "", "username for --first-user (defaults to the email local part)")
	cmd.Flags().BoolVar(&firstUser, "first-user", false, "create the initial admin account")
	cmd.Flags().BoolVar(&trial, "trial", false, "request a trial license with --first-user")
	_ = viper.BindPFlag("password", cmd.Flags().Lookup("password"))
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				me, err := c.User(ctx, wsdecksdk.Me)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(me)
				}
				roles := make([]string, 0, len(me.Roles))
				for _, r := range me.Roles {
					roles = append(roles, r.Name)
				}
				fmt.Printf("%s <%s> on %s\n", me.Username, me.Email, c.URL)
				fmt.Printf("Status: %s\nRoles: %s\n", me.Status, strings.Join(roles, ", "))
				return nil
			})
		},
	}
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default wsdeck.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate wsdeck.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(viper.GetString("workspace")); err != nil {
				return err
			}
			fmt.Println("Config is valid")
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the deployment config of the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *wsdecksdk.Client, _ *config.Config) error {
				dc, err := c.DeploymentConfig(ctx)
				if err != nil {
					return err
				}
				return printJSON(dc)
			})
		},
	})
	return cfg
}

func decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <entity> [file]",
		Short: "Check a JSON payload against an API entity",
		Long:  "Decode reads a payload from file (or stdin) and reports the first contract violation. Run 'wsdeck decode --list' for entity names.",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list, _ := cmd.Flags().GetBool("list"); list {
				for _, name := range wsdecksdk.EntityNames() {
					fmt.Println(name)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("entity name required")
			}
			decode, ok := wsdecksdk.LookupEntity(args[0])
			if !ok {
				return fmt.Errorf("unknown entity %q", args[0])
			}
			var in io.Reader = os.Stdin
			if len(args) == 2 {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			v, err := decode(data)
			if err != nil {
				return err
			}
			return printJSON(v)
		},
	}
	cmd.Flags().Bool("list", false, "list entity names")
	return cmd
}

// --- helpers ---

func withClient(ctx context.Context, fn func(context.Context, *wsdecksdk.Client, *config.Config) error) error {
	c, cfg, err := app.ResolveClient(viper.GetString("workspace"), app.Overrides{
		URL:          viper.GetString("url"),
		SessionToken: viper.GetString("token"),
		Organization: viper.GetString("organization"),
		Timeout:      viper.GetDuration("timeout"),
	})
	if err != nil {
		return err
	}
	return fn(ctx, c, cfg)
}

// withOrganization also resolves the organization commands act in.
func withOrganization(ctx context.Context, fn func(context.Context, *wsdecksdk.Client, wsdecksdk.User, uuid.UUID) error) error {
	return withClient(ctx, func(ctx context.Context, c *wsdecksdk.Client, cfg *config.Config) error {
		me, err := c.User(ctx, wsdecksdk.Me)
		if err != nil {
			return err
		}
		org, err := app.ResolveOrganization(cfg, me)
		if err != nil {
			return err
		}
		return fn(ctx, c, me, org)
	})
}

func printJSON(v any) error {
	data, err := wsdecksdk.Encode(v)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(os.Stdout)
	return err
}

// printTable prints v as JSON with --json, otherwise as a table.
func printTable(v any, header table.Row, rows []table.Row) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.Render()
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func formatOptional[T any](v *T, format func(T) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}

// footer prints a summary line below tables.
func footer(format string, args ...any) error {
	if viper.GetBool("json") {
		return nil
	}
	_, err := fmt.Printf(format+"\n", args...)
	return err
}
