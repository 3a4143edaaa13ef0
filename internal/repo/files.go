package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
)

// InsertFile stores f unless the same user already uploaded identical
// content, in which case the existing file is returned.
func (r Repo) InsertFile(ctx context.Context, f domain.File) (domain.File, error) {
	existing, err := r.getFile(ctx, `WHERE hash=? AND created_by=?`, f.Hash, f.CreatedBy.String())
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return domain.File{}, err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO files(id,hash,content_type,created_by,created_at,content) VALUES (?,?,?,?,?,?)`,
		f.ID.String(), f.Hash, f.ContentType, f.CreatedBy.String(), formatTime(f.CreatedAt), f.Content)
	if err != nil {
		return domain.File{}, mapWriteErr(err)
	}
	return f, nil
}

func (r Repo) GetFile(ctx context.Context, id uuid.UUID) (domain.File, error) {
	return r.getFile(ctx, `WHERE id=?`, id.String())
}

func (r Repo) getFile(ctx context.Context, where string, args ...any) (domain.File, error) {
	var (
		f                    domain.File
		id, createdBy, stamp string
	)
	err := r.DB.QueryRowContext(ctx, `SELECT id,hash,content_type,created_by,created_at,content FROM files `+where, args...).
		Scan(&id, &f.Hash, &f.ContentType, &createdBy, &stamp, &f.Content)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	if err != nil {
		return f, err
	}
	if f.ID, err = uuid.Parse(id); err != nil {
		return f, err
	}
	if f.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return f, err
	}
	f.CreatedAt, err = parseTime(stamp)
	return f, err
}
