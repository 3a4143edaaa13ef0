package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	wsdecksdk "wsdeck/sdk/go"
)

func (r Repo) InsertOrganization(ctx context.Context, tx *sql.Tx, org wsdecksdk.Organization) error {
	doc, err := encodeDoc(org)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO organizations(id,name,created_at,data) VALUES (?,?,?,?)`,
		org.ID.String(), org.Name, formatTime(org.CreatedAt), doc)
	return mapWriteErr(err)
}

func (r Repo) GetOrganization(ctx context.Context, id uuid.UUID) (wsdecksdk.Organization, error) {
	return getDoc[wsdecksdk.Organization](ctx, r.DB, `SELECT data FROM organizations WHERE id=?`, id.String())
}

func (r Repo) InsertOrganizationMember(ctx context.Context, tx *sql.Tx, m wsdecksdk.OrganizationMember) error {
	doc, err := encodeDoc(m)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO organization_members(organization_id,user_id,created_at,data) VALUES (?,?,?,?)`,
		m.OrganizationID.String(), m.UserID.String(), formatTime(m.CreatedAt), doc)
	return mapWriteErr(err)
}

func (r Repo) GetOrganizationMember(ctx context.Context, orgID, userID uuid.UUID) (wsdecksdk.OrganizationMember, error) {
	return getDoc[wsdecksdk.OrganizationMember](ctx, r.DB, `SELECT data FROM organization_members WHERE organization_id=? AND user_id=?`,
		orgID.String(), userID.String())
}
