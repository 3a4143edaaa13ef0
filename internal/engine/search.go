package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	wsdecksdk "wsdeck/sdk/go"
)

// searchTerms splits a query into key:value filters and bare words. Keys are
// case-insensitive; a repeated key keeps its last value.
func searchTerms(q string, allowed ...string) (map[string]string, []string, error) {
	terms := map[string]string{}
	var words []string
	for _, field := range strings.Fields(q) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			words = append(words, field)
			continue
		}
		key = strings.ToLower(key)
		known := false
		for _, a := range allowed {
			if a == key {
				known = true
				break
			}
		}
		if !known {
			return nil, nil, invalid("q", fmt.Sprintf("unknown search key %q", key))
		}
		if value == "" {
			return nil, nil, invalid("q", fmt.Sprintf("search key %q has no value", key))
		}
		terms[key] = value
	}
	return terms, words, nil
}

func parseEnumTerm[E ~string](key, raw string, set []E) (*E, error) {
	v, err := wsdecksdk.ParseEnum(key, strings.ToLower(raw), set)
	if err != nil {
		return nil, invalid("q", fmt.Sprintf("%s must be one of %v", key, set))
	}
	return &v, nil
}

// ParseWorkspaceQuery understands owner:, name:, template: and status:. A bare
// word matches workspace names. owner:me is resolved by the caller.
func ParseWorkspaceQuery(q string) (domain.WorkspaceFilter, error) {
	var f domain.WorkspaceFilter
	terms, words, err := searchTerms(q, "owner", "name", "template", "status")
	if err != nil {
		return f, err
	}
	f.OwnerName = terms["owner"]
	f.TemplateName = terms["template"]
	f.Name = terms["name"]
	if len(words) > 0 {
		f.Name = strings.Join(words, " ")
	}
	if raw, ok := terms["status"]; ok {
		if f.Status, err = parseEnumTerm("status", raw, wsdecksdk.WorkspaceStatuses); err != nil {
			return f, err
		}
	}
	return f, nil
}

// ParseUserQuery understands status:. Bare words match username or email.
func ParseUserQuery(q string) (domain.UserFilter, error) {
	var f domain.UserFilter
	terms, words, err := searchTerms(q, "status")
	if err != nil {
		return f, err
	}
	f.Search = strings.Join(words, " ")
	if raw, ok := terms["status"]; ok {
		if f.Status, err = parseEnumTerm("status", raw, wsdecksdk.UserStatuses); err != nil {
			return f, err
		}
	}
	return f, nil
}

// ParseAuditQuery understands resource_type:, resource_id: and action:.
func ParseAuditQuery(q string) (domain.AuditFilter, error) {
	var f domain.AuditFilter
	terms, words, err := searchTerms(q, "resource_type", "resource_id", "action")
	if err != nil {
		return f, err
	}
	if len(words) > 0 {
		return f, invalid("q", "audit search only accepts key:value terms")
	}
	if raw, ok := terms["resource_type"]; ok {
		if f.ResourceType, err = parseEnumTerm("resource_type", raw, wsdecksdk.ResourceTypes); err != nil {
			return f, err
		}
	}
	if raw, ok := terms["action"]; ok {
		if f.Action, err = parseEnumTerm("action", raw, wsdecksdk.AuditActions); err != nil {
			return f, err
		}
	}
	if raw, ok := terms["resource_id"]; ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, invalid("q", "resource_id must be a valid uuid")
		}
		f.ResourceID = &id
	}
	return f, nil
}
