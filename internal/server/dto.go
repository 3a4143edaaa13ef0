package server

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	wsdecksdk "wsdeck/sdk/go"
)

// Inputs shared by several operations. Bodies arrive raw and are decoded
// through the contract codec so violations come back as 400s with the
// offending path.

type rawBodyInput struct {
	RawBody []byte
}

type PaginationParams struct {
	AfterID string `query:"after_id" doc:"Resume after the row with this id"`
	Limit   string `query:"limit" doc:"Maximum number of rows, 0 for all"`
	Offset  string `query:"offset" doc:"Rows to skip"`
}

func (p PaginationParams) parse() (wsdecksdk.Pagination, error) {
	values := url.Values{}
	for key, value := range map[string]string{"after_id": p.AfterID, "limit": p.Limit, "offset": p.Offset} {
		if value != "" {
			values.Set(key, value)
		}
	}
	page, errs := wsdecksdk.ParsePagination(values)
	if len(errs) > 0 {
		return page, newValidationError("Invalid pagination.", errs...)
	}
	return page, nil
}

type SearchParams struct {
	Q string `query:"q" doc:"Search query of key:value terms"`
}

type IncludeDeletedParam struct {
	IncludeDeleted bool `query:"include_deleted" doc:"Also match deleted workspaces"`
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, newValidationError("Invalid "+field+".", wsdecksdk.ValidationError{Field: field, Detail: "must be a valid uuid"})
	}
	return id, nil
}

func decodeBody[T any](raw []byte) (T, error) {
	return wsdecksdk.Decode[T](raw)
}

func nonNilSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
