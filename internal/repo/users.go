package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	wsdecksdk "wsdeck/sdk/go"
)

func (r Repo) InsertUser(ctx context.Context, tx *sql.Tx, creds domain.UserCredentials) error {
	u := creds.User
	doc, err := encodeDoc(u)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO users(id,username,email,hashed_password,status,created_at,data) VALUES (?,?,?,?,?,?,?)`,
		u.ID.String(), u.Username, u.Email, creds.HashedPassword, string(u.Status), formatTime(u.CreatedAt), doc)
	return mapWriteErr(err)
}

// UpdateUser rewrites the stored user. The password hash is left alone.
func (r Repo) UpdateUser(ctx context.Context, tx *sql.Tx, u wsdecksdk.User) error {
	doc, err := encodeDoc(u)
	if err != nil {
		return err
	}
	return expectOne(r.q(tx).ExecContext(ctx, `UPDATE users SET username=?,email=?,status=?,data=? WHERE id=?`,
		u.Username, u.Email, string(u.Status), doc, u.ID.String()))
}

func (r Repo) GetUser(ctx context.Context, id uuid.UUID) (wsdecksdk.User, error) {
	return getDoc[wsdecksdk.User](ctx, r.DB, `SELECT data FROM users WHERE id=?`, id.String())
}

func (r Repo) GetUserByUsername(ctx context.Context, username string) (wsdecksdk.User, error) {
	return getDoc[wsdecksdk.User](ctx, r.DB, `SELECT data FROM users WHERE username=?`, username)
}

// GetUserCredentials looks a user up by email for password login.
func (r Repo) GetUserCredentials(ctx context.Context, email string) (domain.UserCredentials, error) {
	var (
		raw  string
		hash []byte
	)
	err := r.DB.QueryRowContext(ctx, `SELECT data, hashed_password FROM users WHERE email=?`, strings.TrimSpace(email)).Scan(&raw, &hash)
	if err == sql.ErrNoRows {
		return domain.UserCredentials{}, ErrNotFound
	}
	if err != nil {
		return domain.UserCredentials{}, err
	}
	u, err := decodeDoc[wsdecksdk.User](raw)
	if err != nil {
		return domain.UserCredentials{}, err
	}
	return domain.UserCredentials{User: u, HashedPassword: hash}, nil
}

func (r Repo) CountUsers(ctx context.Context, tx *sql.Tx) (int64, error) {
	return countRows(ctx, r.q(tx), listQuery{table: "users"})
}

func userQuery(f domain.UserFilter) listQuery {
	l := listQuery{table: "users", order: "created_at"}
	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		l.filter(`(username LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')`, like, like)
	}
	if f.Status != nil {
		l.filter("status=?", string(*f.Status))
	}
	return l
}

func (r Repo) ListUsers(ctx context.Context, f domain.UserFilter, page domain.Page) ([]wsdecksdk.User, error) {
	return listDocs[wsdecksdk.User](ctx, r.DB, userQuery(f), page)
}

func (r Repo) CountFilteredUsers(ctx context.Context, f domain.UserFilter) (int64, error) {
	return countRows(ctx, r.DB, userQuery(f))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
