package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wsdeck/internal/domain"
	"wsdeck/internal/engine/auth"
	"wsdeck/internal/events"
	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

// licenseClaims is the part of a license JWT the service interprets. The
// full claim set is kept on the License as issued.
type licenseClaims struct {
	jwt.RegisteredClaims
	LicenseExpires *jwt.NumericDate `json:"license_expires,omitempty"`
	Trial          bool             `json:"trial"`
	AllFeatures    bool             `json:"all_features"`
	Features       map[string]int64 `json:"features"`
	AccountType    string           `json:"account_type,omitempty"`
	AccountID      string           `json:"account_id,omitempty"`
}

// parseLicense reads a license JWT. Signatures are not checked: licenses are
// issued out of band and only gate features of this deployment. The raw
// claims are the payload's own JSON values, byte for byte.
func parseLicense(raw string) (licenseClaims, map[string]json.RawMessage, error) {
	var claims licenseClaims
	parser := jwt.NewParser()
	_, parts, err := parser.ParseUnverified(raw, &claims)
	if err != nil {
		return claims, nil, invalid("license", "must be a JWT: "+err.Error())
	}
	if claims.ExpiresAt == nil {
		return claims, nil, invalid("license", "missing exp claim")
	}
	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return claims, nil, invalid("license", err.Error())
	}
	var rawClaims map[string]json.RawMessage
	if err := json.Unmarshal(payload, &rawClaims); err != nil {
		return claims, nil, invalid("license", "claims must be a JSON object")
	}
	return claims, rawClaims, nil
}

// TrialDuration is how long a trial license issued at setup lasts.
const TrialDuration = 30 * 24 * time.Hour

// trialLicense issues a license unlocking every feature until now plus
// TrialDuration. It is signed with a throwaway key since signatures are
// never checked.
func trialLicense(now time.Time, accountID string) (domain.LicenseRecord, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return domain.LicenseRecord{}, err
	}
	id := uuid.NewString()
	exp := now.Add(TrialDuration)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":          id,
		"iat":          now.Unix(),
		"nbf":          now.Unix(),
		"exp":          exp.Unix(),
		"trial":        true,
		"all_features": true,
		"account_type": "trial",
		"account_id":   accountID,
	}).SignedString(key)
	if err != nil {
		return domain.LicenseRecord{}, fmt.Errorf("sign trial license: %w", err)
	}
	_, claims, err := parseLicense(raw)
	if err != nil {
		return domain.LicenseRecord{}, err
	}
	return domain.LicenseRecord{
		License:   wsdecksdk.License{UUID: id, UploadedAt: now, Claims: claims},
		JWT:       raw,
		ExpiresAt: time.Unix(exp.Unix(), 0).UTC(),
	}, nil
}

// graceAt is when the license stops being fully entitled. After it, and
// until exp, features are in their grace period.
func (c licenseClaims) graceAt() time.Time {
	if c.LicenseExpires != nil {
		return c.LicenseExpires.Time
	}
	return c.ExpiresAt.Time
}

// AddLicense stores an uploaded license.
func (e Engine) AddLicense(ctx context.Context, actor wsdecksdk.User, req wsdecksdk.AddLicenseRequest) (wsdecksdk.License, error) {
	if err := auth.Require(actor, auth.PermLicensesWrite); err != nil {
		return wsdecksdk.License{}, err
	}
	raw := strings.TrimSpace(req.License)
	claims, rawClaims, err := parseLicense(raw)
	if err != nil {
		return wsdecksdk.License{}, err
	}
	now := e.now()
	if !claims.ExpiresAt.After(now) {
		return wsdecksdk.License{}, invalid("license", "license has expired")
	}
	id := claims.ID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	var rec domain.LicenseRecord
	err = e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		rec, err = e.Repo.InsertLicense(ctx, tx, domain.LicenseRecord{
			License:   wsdecksdk.License{UUID: id, UploadedAt: now, Claims: rawClaims},
			JWT:       raw,
			ExpiresAt: claims.ExpiresAt.Time,
		})
		if errors.Is(err, repo.ErrConflict) {
			return fmt.Errorf("license was already uploaded: %w", repo.ErrConflict)
		}
		if err != nil {
			return err
		}
		return e.audit(ctx, tx, &actor, events.Entry{
			ResourceType:   wsdecksdk.ResourceTypeOrganization,
			ResourceTarget: "license " + id,
			Action:         wsdecksdk.AuditActionCreate,
			StatusCode:     201,
			Fields:         map[string]string{"license_id": fmt.Sprint(rec.License.ID)},
		})
	})
	if err != nil {
		return wsdecksdk.License{}, err
	}
	return rec.License, nil
}

func (e Engine) Licenses(ctx context.Context, actor wsdecksdk.User) ([]wsdecksdk.License, error) {
	if err := auth.Require(actor, auth.PermLicensesWrite); err != nil {
		return nil, err
	}
	recs, err := e.Repo.ListLicenses(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]wsdecksdk.License, 0, len(recs))
	for _, rec := range recs {
		res = append(res, rec.License)
	}
	return res, nil
}

func (e Engine) DeleteLicense(ctx context.Context, actor wsdecksdk.User, id int32) error {
	if err := auth.Require(actor, auth.PermLicensesWrite); err != nil {
		return err
	}
	return e.Repo.InTx(ctx, func(tx *sql.Tx) error {
		err := e.Repo.DeleteLicense(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("license", id)
		}
		if err != nil {
			return err
		}
		return e.audit(ctx, tx, &actor, events.Entry{
			ResourceType:   wsdecksdk.ResourceTypeOrganization,
			ResourceTarget: fmt.Sprintf("license %d", id),
			Action:         wsdecksdk.AuditActionDelete,
		})
	})
}

// Entitlements folds every unexpired license into per-feature entitlements.
// Any authenticated user may read them.
func (e Engine) Entitlements(ctx context.Context) (wsdecksdk.Entitlements, error) {
	ent := wsdecksdk.Entitlements{
		Features:     map[string]wsdecksdk.Feature{},
		Warnings:     []string{},
		Errors:       []string{},
		Experimental: e.Config.Server.Experimental,
	}
	for _, name := range wsdecksdk.FeatureNames {
		ent.Features[name] = wsdecksdk.Feature{Entitlement: wsdecksdk.EntitlementNotEntitled}
	}
	recs, err := e.Repo.ListLicenses(ctx)
	if err != nil {
		return ent, err
	}
	now := e.now()
	for _, rec := range recs {
		claims, _, err := parseLicense(rec.JWT)
		if err != nil || !now.Before(rec.ExpiresAt) {
			continue
		}
		ent.HasLicense = true
		ent.Trial = ent.Trial || claims.Trial
		level := wsdecksdk.EntitlementEntitled
		if !now.Before(claims.graceAt()) {
			level = wsdecksdk.EntitlementGracePeriod
		}
		for _, name := range wsdecksdk.FeatureNames {
			value, ok := claims.Features[name]
			if claims.AllFeatures && name != wsdecksdk.FeatureUserLimit {
				value, ok = 1, true
			}
			if !ok || value <= 0 {
				continue
			}
			f := ent.Features[name]
			if f.Entitlement == wsdecksdk.EntitlementEntitled && level == wsdecksdk.EntitlementGracePeriod {
				continue
			}
			f.Entitlement = level
			if name == wsdecksdk.FeatureUserLimit {
				limit := value
				if f.Limit != nil && *f.Limit > limit {
					limit = *f.Limit
				}
				f.Limit = &limit
			}
			ent.Features[name] = f
		}
	}
	users, err := e.Repo.CountUsers(ctx, nil)
	if err != nil {
		return ent, err
	}
	for name, f := range ent.Features {
		switch name {
		case wsdecksdk.FeatureUserLimit:
			if f.Limit != nil {
				f.Actual = &users
				f.Enabled = true
				if users > *f.Limit {
					ent.Warnings = append(ent.Warnings, fmt.Sprintf("Your deployment has %d active users but is only licensed for %d.", users, *f.Limit))
				}
			}
		case wsdecksdk.FeatureAuditLog:
			f.Enabled = f.Entitlement != wsdecksdk.EntitlementNotEntitled && e.Config.Server.AuditLogging
		case wsdecksdk.FeatureBrowserOnly:
			f.Enabled = f.Entitlement != wsdecksdk.EntitlementNotEntitled && e.Config.Server.BrowserOnly
		case wsdecksdk.FeatureSCIM:
			f.Enabled = f.Entitlement != wsdecksdk.EntitlementNotEntitled && e.Config.Server.SCIMAPIKey != ""
		default:
			f.Enabled = f.Entitlement != wsdecksdk.EntitlementNotEntitled
		}
		if f.Entitlement == wsdecksdk.EntitlementGracePeriod && f.Enabled {
			ent.Warnings = append(ent.Warnings, fmt.Sprintf("%s is enabled but your license for this feature is expired.", name))
		}
		ent.Features[name] = f
	}
	sort.Strings(ent.Warnings)
	return ent, nil
}
