package wsdecksdk

// AuthorizationRequest batches permission checks under caller-chosen keys. The
// response answers each key with a boolean.
type AuthorizationRequest struct {
	Checks map[string]AuthorizationCheck `json:"checks"`
}

type AuthorizationResponse map[string]bool

type AuthorizationCheck struct {
	Object AuthorizationObject `json:"object"`
	Action string              `json:"action"`
}

// AuthorizationObject narrows a check. Unset ids widen it to every object of
// the resource type.
type AuthorizationObject struct {
	ResourceType   string  `json:"resource_type"`
	OwnerID        *string `json:"owner_id,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
	ResourceID     *string `json:"resource_id,omitempty"`
}
