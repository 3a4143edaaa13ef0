package events

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/db"
	"wsdeck/internal/domain"
	"wsdeck/internal/migrate"
	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

func TestDiff(t *testing.T) {
	diff := Diff(
		map[string]any{"name": "dev", "ttl_ms": int64(3600000), "icon": ""},
		map[string]any{"name": "dev", "ttl_ms": nil, "icon": "/icon/go.svg"},
	)
	if len(diff) != 2 {
		t.Fatalf("expected 2 changed fields, got %d: %+v", len(diff), diff)
	}
	if _, ok := diff["name"]; ok {
		t.Fatalf("unchanged field must be left out")
	}
	ttl := diff["ttl_ms"]
	if string(ttl.Old) != "3600000" || string(ttl.New) != "null" {
		t.Fatalf("unexpected ttl diff %s -> %s", ttl.Old, ttl.New)
	}
	if string(diff["icon"].New) != `"/icon/go.svg"` {
		t.Fatalf("unexpected icon diff %s", diff["icon"].New)
	}
}

func TestAppend(t *testing.T) {
	conn, err := db.Open(db.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()
	if _, err := migrate.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := time.Date(2022, 10, 1, 9, 0, 0, 0, time.UTC)
	w := Writer{DB: conn, Now: func() time.Time { return now }}
	r := repo.Repo{DB: conn}

	user := &wsdecksdk.User{ID: uuid.New(), Username: "ada", Status: wsdecksdk.UserStatusActive}
	workspaceID := uuid.New()
	var stored wsdecksdk.AuditLog
	err = r.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		stored, err = w.Append(ctx, tx, Entry{
			User:           user,
			IP:             "127.0.0.1",
			ResourceType:   wsdecksdk.ResourceTypeWorkspace,
			ResourceID:     workspaceID,
			ResourceTarget: "dev",
			Action:         wsdecksdk.AuditActionCreate,
		})
		return err
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if stored.Description != "ada created workspace dev" {
		t.Fatalf("unexpected description %q", stored.Description)
	}
	if stored.StatusCode != 200 || string(stored.IP) != `"127.0.0.1"` {
		t.Fatalf("unexpected defaults %+v", stored)
	}

	rt := wsdecksdk.ResourceTypeWorkspace
	logs, err := r.ListAuditLogs(ctx, domain.AuditFilter{ResourceType: &rt}, domain.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != stored.ID || !logs[0].Time.Equal(now) {
		t.Fatalf("unexpected logs %+v", logs)
	}
	if logs[0].User == nil || logs[0].User.Username != "ada" {
		t.Fatalf("expected the acting user on the log")
	}
}

func TestAppendDisabled(t *testing.T) {
	w := Writer{Disabled: true}
	log, err := w.Append(context.Background(), nil, Entry{Action: wsdecksdk.AuditActionWrite})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if log.ID != uuid.Nil {
		t.Fatalf("disabled writer must not record anything")
	}
}
