package wsdecksdk

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pagination is the envelope shared by every list request. All three options
// are optional; unset options are never sent.
//
// AfterID is cursor based, Limit and Offset are row based. They may be
// combined; the service decides what the combination means.
type Pagination struct {
	AfterID *uuid.UUID `json:"after_id,omitempty" format:"uuid"`
	Limit   *int       `json:"limit,omitempty"`
	Offset  *int       `json:"offset,omitempty"`
}

// QueryParam is a single outbound query parameter.
type QueryParam struct {
	Key   string
	Value string
}

// QueryParams is an ordered parameter list. The order is deterministic but
// carries no meaning for the service.
type QueryParams []QueryParam

// QueryParams returns the set options in the order after_id, limit, offset.
func (p Pagination) QueryParams() QueryParams {
	var params QueryParams
	if p.AfterID != nil {
		params = append(params, QueryParam{Key: "after_id", Value: p.AfterID.String()})
	}
	return params.addInt("limit", p.Limit).addInt("offset", p.Offset)
}

// Values converts the list into url.Values, keeping per-key order.
func (q QueryParams) Values() url.Values {
	values := url.Values{}
	for _, p := range q {
		values.Add(p.Key, p.Value)
	}
	return values
}

// Encode renders the list as a query string in list order.
func (q QueryParams) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func (q QueryParams) addString(key string, v *string) QueryParams {
	if v == nil {
		return q
	}
	return append(q, QueryParam{Key: key, Value: *v})
}

func (q QueryParams) addInt(key string, v *int) QueryParams {
	if v == nil {
		return q
	}
	return append(q, QueryParam{Key: key, Value: strconv.Itoa(*v)})
}

func (q QueryParams) addBool(key string, v *bool) QueryParams {
	if v == nil {
		return q
	}
	return append(q, QueryParam{Key: key, Value: strconv.FormatBool(*v)})
}

func (q QueryParams) addTime(key string, v time.Time) QueryParams {
	if v.IsZero() {
		return q
	}
	return append(q, QueryParam{Key: key, Value: v.UTC().Format(time.RFC3339Nano)})
}

// ParsePagination reads the envelope back out of a query string. Problems are
// reported per field so a server can return them as validations.
func ParsePagination(values url.Values) (Pagination, []ValidationError) {
	var (
		p    Pagination
		errs []ValidationError
	)
	if raw := values.Get("after_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: "after_id", Detail: "must be a valid uuid"})
		} else {
			p.AfterID = &id
		}
	}
	parseInt := func(key string) *int {
		raw := values.Get(key)
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: key, Detail: "must be an integer"})
			return nil
		}
		if n < 0 {
			errs = append(errs, ValidationError{Field: key, Detail: "must be zero or greater"})
			return nil
		}
		return &n
	}
	p.Limit = parseInt("limit")
	p.Offset = parseInt("offset")
	return p, errs
}

// Ptr returns a pointer to v. It keeps optional request fields short to write.
func Ptr[T any](v T) *T {
	return &v
}
