package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/db"
	"wsdeck/internal/domain"
	"wsdeck/internal/migrate"
	wsdecksdk "wsdeck/sdk/go"
)

var baseTime = time.Date(2022, 10, 1, 9, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) Repo {
	t.Helper()
	conn, err := db.Open(db.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Repo{DB: conn}
}

func seedUsers(t *testing.T, r Repo, names ...string) []wsdecksdk.User {
	t.Helper()
	var users []wsdecksdk.User
	for i, name := range names {
		u := wsdecksdk.User{
			ID:        uuid.New(),
			Username:  name,
			Email:     name + "@example.com",
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
			Status:    wsdecksdk.UserStatusActive,
			Roles:     []wsdecksdk.Role{},
		}
		if err := r.InsertUser(context.Background(), nil, domain.UserCredentials{User: u, HashedPassword: []byte("x")}); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
		users = append(users, u)
	}
	return users
}

func usernames(users []wsdecksdk.User) string {
	var out string
	for i, u := range users {
		if i > 0 {
			out += ","
		}
		out += u.Username
	}
	return out
}

func TestListPagination(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	users := seedUsers(t, r, "ada", "bob", "cy", "dee", "eve")

	cases := []struct {
		name string
		page domain.Page
		want string
	}{
		{"unlimited", domain.Page{}, "ada,bob,cy,dee,eve"},
		{"limit", domain.Page{Limit: 2}, "ada,bob"},
		{"offset", domain.Page{Offset: 3}, "dee,eve"},
		{"limit and offset", domain.Page{Limit: 2, Offset: 1}, "bob,cy"},
		{"cursor", domain.Page{AfterID: &users[1].ID}, "cy,dee,eve"},
		{"cursor and limit", domain.Page{AfterID: &users[1].ID, Limit: 1}, "cy"},
		{"cursor at end", domain.Page{AfterID: &users[4].ID}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.ListUsers(ctx, domain.UserFilter{}, tc.page)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if usernames(got) != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, usernames(got))
			}
		})
	}

	unknown := uuid.New()
	if _, err := r.ListUsers(ctx, domain.UserFilter{}, domain.Page{AfterID: &unknown}); !errors.Is(err, ErrBadCursor) {
		t.Fatalf("expected ErrBadCursor, got %v", err)
	}
}

func TestCursorBreaksTimestampTies(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		u := wsdecksdk.User{
			ID:        uuid.New(),
			Username:  fmt.Sprintf("user%d", i),
			Email:     fmt.Sprintf("user%d@example.com", i),
			CreatedAt: baseTime,
			Status:    wsdecksdk.UserStatusActive,
		}
		if err := r.InsertUser(ctx, nil, domain.UserCredentials{User: u, HashedPassword: []byte("x")}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := r.ListUsers(ctx, domain.UserFilter{}, domain.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	seen := map[uuid.UUID]bool{}
	var after *uuid.UUID
	for {
		page, err := r.ListUsers(ctx, domain.UserFilter{}, domain.Page{AfterID: after, Limit: 1})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if len(page) == 0 {
			break
		}
		if seen[page[0].ID] {
			t.Fatalf("user %s returned twice", page[0].Username)
		}
		seen[page[0].ID] = true
		after = &page[0].ID
	}
	if len(seen) != len(all) {
		t.Fatalf("expected to walk %d users, walked %d", len(all), len(seen))
	}
}

func TestUserSearchEscapesWildcards(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUsers(t, r, "dev_one", "devXone", "admin")

	got, err := r.ListUsers(ctx, domain.UserFilter{Search: "dev_"}, domain.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if usernames(got) != "dev_one" {
		t.Fatalf("expected only dev_one, got %q", usernames(got))
	}
	n, err := r.CountFilteredUsers(ctx, domain.UserFilter{Search: "dev"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 matches, got %d", n)
	}
}

func TestConflictAndNotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	users := seedUsers(t, r, "ada")

	dup := users[0]
	dup.ID = uuid.New()
	dup.Email = "other@example.com"
	err := r.InsertUser(ctx, nil, domain.UserCredentials{User: dup, HashedPassword: []byte("x")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	if _, err := r.GetUser(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ghost := users[0]
	ghost.ID = uuid.New()
	if err := r.UpdateUser(ctx, nil, ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	got, err := r.GetUserByUsername(ctx, "ADA")
	if err != nil {
		t.Fatalf("lookup is case insensitive: %v", err)
	}
	if got.ID != users[0].ID {
		t.Fatalf("unexpected user %s", got.ID)
	}
}

func TestInTxRollsBack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := r.InTx(ctx, func(tx *sql.Tx) error {
		u := wsdecksdk.User{ID: uuid.New(), Username: "ada", Email: "ada@example.com", CreatedAt: baseTime, Status: wsdecksdk.UserStatusActive}
		if err := r.InsertUser(ctx, tx, domain.UserCredentials{User: u, HashedPassword: []byte("x")}); err != nil {
			return err
		}
		n, err := r.CountUsers(ctx, tx)
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("expected the insert to be visible in tx, got %d", n)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	n, err := r.CountUsers(ctx, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rollback, found %d users", n)
	}
}

func TestStoredDocumentMustMatchContract(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	users := seedUsers(t, r, "ada")

	if _, err := r.DB.ExecContext(ctx, `UPDATE users SET data=? WHERE id=?`, `{"id":"`+users[0].ID.String()+`","status":"banned"}`, users[0].ID.String()); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	_, err := r.GetUser(ctx, users[0].ID)
	if !errors.Is(err, wsdecksdk.ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestInsertFileDeduplicates(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	users := seedUsers(t, r, "ada")

	f := domain.File{
		ID:          uuid.New(),
		Hash:        "abc",
		ContentType: wsdecksdk.ContentTypeYAML,
		CreatedBy:   users[0].ID,
		CreatedAt:   baseTime,
		Content:     []byte("resources: []\n"),
	}
	first, err := r.InsertFile(ctx, f)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	f.ID = uuid.New()
	second, err := r.InsertFile(ctx, f)
	if err != nil {
		t.Fatalf("insert again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the existing file, got %s", second.ID)
	}
	got, err := r.GetFile(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Content) != "resources: []\n" || !got.CreatedAt.Equal(baseTime) {
		t.Fatalf("unexpected file %+v", got)
	}
}

func TestLicenses(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	rec := domain.LicenseRecord{
		License: wsdecksdk.License{
			UUID:       uuid.NewString(),
			UploadedAt: baseTime,
			Claims:     map[string]json.RawMessage{"account_type": json.RawMessage(`"salesforce"`)},
		},
		JWT:       "a.b.c",
		ExpiresAt: baseTime.Add(30 * 24 * time.Hour),
	}
	stored, err := r.InsertLicense(ctx, nil, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if stored.License.ID == 0 {
		t.Fatalf("expected an assigned id")
	}
	if _, err := r.InsertLicense(ctx, nil, rec); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for the same jwt, got %v", err)
	}

	list, err := r.ListLicenses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || string(list[0].License.Claims["account_type"]) != `"salesforce"` {
		t.Fatalf("unexpected licenses %+v", list)
	}
	if !list[0].ExpiresAt.Equal(rec.ExpiresAt) {
		t.Fatalf("expected expiry %s, got %s", rec.ExpiresAt, list[0].ExpiresAt)
	}

	if err := r.DeleteLicense(ctx, nil, stored.License.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.DeleteLicense(ctx, nil, stored.License.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCursorMustMatchFilter(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	users := seedUsers(t, r, "ada", "bob", "cy")
	filter := domain.UserFilter{Search: "ada"}

	if _, err := r.ListUsers(ctx, filter, domain.Page{AfterID: &users[1].ID}); !errors.Is(err, ErrBadCursor) {
		t.Fatalf("expected ErrBadCursor for a row outside the filter, got %v", err)
	}
	got, err := r.ListUsers(ctx, filter, domain.Page{AfterID: &users[0].ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected nothing after the only match, got %q", usernames(got))
	}
	got, err = r.ListUsers(ctx, domain.UserFilter{}, domain.Page{AfterID: &users[1].ID})
	if err != nil {
		t.Fatalf("list unfiltered: %v", err)
	}
	if usernames(got) != "cy" {
		t.Fatalf("expected cy, got %q", usernames(got))
	}
}
