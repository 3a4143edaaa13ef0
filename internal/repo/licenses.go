package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"wsdeck/internal/domain"
)

// InsertLicense stores rec and returns it with its assigned ID.
func (r Repo) InsertLicense(ctx context.Context, tx *sql.Tx, rec domain.LicenseRecord) (domain.LicenseRecord, error) {
	claims, err := encodeDoc(rec.License.Claims)
	if err != nil {
		return rec, err
	}
	res, err := r.q(tx).ExecContext(ctx, `INSERT INTO licenses(uuid,jwt,exp,uploaded_at,claims) VALUES (?,?,?,?,?)`,
		rec.License.UUID, rec.JWT, formatTime(rec.ExpiresAt), formatTime(rec.License.UploadedAt), claims)
	if err != nil {
		return rec, mapWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return rec, err
	}
	rec.License.ID = int32(id)
	return rec, nil
}

// ListLicenses returns every license by ID, expired ones included.
func (r Repo) ListLicenses(ctx context.Context) ([]domain.LicenseRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,uuid,jwt,exp,uploaded_at,claims FROM licenses ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.LicenseRecord{}
	for rows.Next() {
		rec, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (r Repo) DeleteLicense(ctx context.Context, tx *sql.Tx, id int32) error {
	return expectOne(r.q(tx).ExecContext(ctx, `DELETE FROM licenses WHERE id=?`, id))
}

func scanLicense(rows *sql.Rows) (domain.LicenseRecord, error) {
	var (
		rec                domain.LicenseRecord
		exp, uploaded, raw string
		err                error
	)
	if err = rows.Scan(&rec.License.ID, &rec.License.UUID, &rec.JWT, &exp, &uploaded, &raw); err != nil {
		return rec, err
	}
	if rec.ExpiresAt, err = parseTime(exp); err != nil {
		return rec, err
	}
	if rec.License.UploadedAt, err = parseTime(uploaded); err != nil {
		return rec, err
	}
	rec.License.Claims, err = decodeDoc[map[string]json.RawMessage](raw)
	return rec, err
}
