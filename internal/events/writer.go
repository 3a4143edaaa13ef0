// Package events records audit log entries alongside the change they
// describe.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
	// Disabled turns Append into a no-op.
	Disabled bool
}

// Entry is what a mutation knows about itself. The writer fills in the id,
// the timestamp and the defaults for the rest.
type Entry struct {
	RequestID      uuid.UUID
	OrganizationID uuid.UUID
	User           *wsdecksdk.User
	IP             string
	UserAgent      string
	ResourceType   wsdecksdk.ResourceType
	ResourceID     uuid.UUID
	ResourceTarget string
	ResourceIcon   string
	Action         wsdecksdk.AuditAction
	Diff           wsdecksdk.AuditDiff
	StatusCode     int32
	Fields         map[string]string
}

// Append writes e in tx and returns the stored log.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, e Entry) (wsdecksdk.AuditLog, error) {
	if w.Now == nil {
		w.Now = time.Now
	}
	if w.Disabled {
		return wsdecksdk.AuditLog{}, nil
	}
	if e.Diff == nil {
		e.Diff = wsdecksdk.AuditDiff{}
	}
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if e.StatusCode == 0 {
		e.StatusCode = 200
	}
	ip, err := json.Marshal(e.IP)
	if err != nil {
		return wsdecksdk.AuditLog{}, err
	}
	log := wsdecksdk.AuditLog{
		ID:               uuid.New(),
		RequestID:        e.RequestID,
		Time:             w.Now().UTC(),
		OrganizationID:   e.OrganizationID,
		IP:               ip,
		UserAgent:        e.UserAgent,
		ResourceType:     e.ResourceType,
		ResourceID:       e.ResourceID,
		ResourceTarget:   e.ResourceTarget,
		ResourceIcon:     e.ResourceIcon,
		Action:           e.Action,
		Diff:             e.Diff,
		StatusCode:       e.StatusCode,
		AdditionalFields: e.Fields,
		Description:      describe(e),
		User:             e.User,
	}
	data, err := wsdecksdk.Encode(log)
	if err != nil {
		return wsdecksdk.AuditLog{}, fmt.Errorf("encode audit log: %w", err)
	}
	var userID any
	if e.User != nil {
		userID = e.User.ID.String()
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO audit_logs(id,time,user_id,resource_type,resource_id,action,data) VALUES (?,?,?,?,?,?,?)`,
		log.ID.String(), log.Time.Format(repo.TimeLayout), userID, string(log.ResourceType), log.ResourceID.String(), string(log.Action), string(data))
	return log, err
}

func describe(e Entry) string {
	who := "{user}"
	if e.User != nil {
		who = e.User.Username
	}
	return fmt.Sprintf("%s %s %s %s", who, pastTense(e.Action), e.ResourceType, e.ResourceTarget)
}

func pastTense(a wsdecksdk.AuditAction) string {
	switch a {
	case wsdecksdk.AuditActionCreate:
		return "created"
	case wsdecksdk.AuditActionDelete:
		return "deleted"
	case wsdecksdk.AuditActionStart:
		return "started"
	case wsdecksdk.AuditActionStop:
		return "stopped"
	default:
		return "updated"
	}
}

// Diff builds an audit diff from before and after field values. Unchanged
// fields are left out.
func Diff(before, after map[string]any) wsdecksdk.AuditDiff {
	diff := wsdecksdk.AuditDiff{}
	for key, newValue := range after {
		oldValue := before[key]
		oldRaw, _ := json.Marshal(oldValue)
		newRaw, _ := json.Marshal(newValue)
		if string(oldRaw) == string(newRaw) {
			continue
		}
		diff[key] = wsdecksdk.AuditDiffField{Old: oldRaw, New: newRaw}
	}
	return diff
}
