package wsdecksdk

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationQueryParams(t *testing.T) {
	assert.Empty(t, Pagination{}.QueryParams())
	assert.Equal(t, "limit=10", Pagination{Limit: Ptr(10)}.QueryParams().Encode())

	after := uuid.MustParse("5c3a5ddc-3c3a-4b9c-8c1a-2f6d1e7b9a10")
	p := Pagination{AfterID: &after, Limit: Ptr(0), Offset: Ptr(20)}
	assert.Equal(t, "after_id=5c3a5ddc-3c3a-4b9c-8c1a-2f6d1e7b9a10&limit=0&offset=20", p.QueryParams().Encode())
}

func TestRequestQueryParams(t *testing.T) {
	req := WorkspacesRequest{Pagination: Pagination{Offset: Ptr(5)}, SearchQuery: Ptr("owner:me status:running")}
	assert.Equal(t, "offset=5&q=owner%3Ame+status%3Arunning", req.QueryParams().Encode())

	since := time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC)
	builds := WorkspaceBuildsRequest{WorkspaceID: uuid.New(), Since: since}
	assert.Equal(t, "since=2022-10-01T00%3A00%3A00Z", builds.QueryParams().Encode())

	assert.Empty(t, WorkspaceOptions{}.QueryParams())
	assert.Equal(t, "include_deleted=true", WorkspaceOptions{IncludeDeleted: Ptr(true)}.QueryParams().Encode())
}

func TestParsePagination(t *testing.T) {
	p, errs := ParsePagination(url.Values{"limit": {"25"}})
	require.Empty(t, errs)
	require.NotNil(t, p.Limit)
	assert.Equal(t, 25, *p.Limit)
	assert.Nil(t, p.AfterID)
	assert.Nil(t, p.Offset)

	_, errs = ParsePagination(url.Values{"after_id": {"nope"}, "limit": {"-1"}, "offset": {"x"}})
	require.Len(t, errs, 3)
	assert.Equal(t, "after_id", errs[0].Field)
	assert.Equal(t, "limit", errs[1].Field)
	assert.Equal(t, "offset", errs[2].Field)
}

func TestPaginationRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("query params parse back to the same envelope", prop.ForAll(
		func(limit, offset int, withCursor bool) bool {
			p := Pagination{Limit: Ptr(limit), Offset: Ptr(offset)}
			if withCursor {
				id := uuid.New()
				p.AfterID = &id
			}
			got, errs := ParsePagination(p.QueryParams().Values())
			if len(errs) > 0 {
				return false
			}
			if (got.AfterID == nil) != (p.AfterID == nil) {
				return false
			}
			if p.AfterID != nil && *got.AfterID != *p.AfterID {
				return false
			}
			return *got.Limit == limit && *got.Offset == offset
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
