package wsdecksdk

import "slices"

type Entitlement string

const (
	EntitlementEntitled    Entitlement = "entitled"
	EntitlementGracePeriod Entitlement = "grace_period"
	EntitlementNotEntitled Entitlement = "not_entitled"
)

// EntitlementLevels is the ordered Entitlement set. The plural name belongs to
// the Entitlements response.
var EntitlementLevels = []Entitlement{EntitlementEntitled, EntitlementGracePeriod, EntitlementNotEntitled}

func (e Entitlement) Valid() bool { return slices.Contains(EntitlementLevels, e) }

func (e Entitlement) MarshalText() ([]byte, error) {
	return marshalEnum("Entitlement", e, EntitlementLevels)
}

func (e *Entitlement) UnmarshalText(b []byte) error {
	return unmarshalEnum("Entitlement", b, EntitlementLevels, e)
}

const (
	FeatureUserLimit        = "user_limit"
	FeatureAuditLog         = "audit_log"
	FeatureBrowserOnly      = "browser_only"
	FeatureSCIM             = "scim"
	FeatureTemplateRBAC     = "template_rbac"
	FeatureHighAvailability = "high_availability"
)

// FeatureNames lists the features the service reports entitlements for.
var FeatureNames = []string{
	FeatureUserLimit,
	FeatureAuditLog,
	FeatureBrowserOnly,
	FeatureSCIM,
	FeatureTemplateRBAC,
	FeatureHighAvailability,
}

type Feature struct {
	Entitlement Entitlement `json:"entitlement"`
	Enabled     bool        `json:"enabled"`
	Limit       *int64      `json:"limit,omitempty"`
	Actual      *int64      `json:"actual,omitempty"`
}

type Entitlements struct {
	Features     map[string]Feature `json:"features"`
	Warnings     []string           `json:"warnings"`
	Errors       []string           `json:"errors"`
	HasLicense   bool               `json:"has_license"`
	Experimental bool               `json:"experimental"`
	Trial        bool               `json:"trial"`
}
