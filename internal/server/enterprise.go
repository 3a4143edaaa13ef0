package server

import (
	"context"
	"net/http"
	"path"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"wsdeck/internal/engine"
	wsdecksdk "wsdeck/sdk/go"
)

func registerAudit(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List audit logs, newest first",
		Tags:        []string{"Audit"},
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		SearchParams
		PaginationParams
	}) (*struct {
		Body wsdecksdk.AuditLogResponse `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		page, err := input.PaginationParams.parse()
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.AuditLogs(ctx, actor, input.Q, page)
		if err != nil {
			return nil, handleError(err)
		}
		res.AuditLogs = nonNilSlice(res.AuditLogs)
		return &struct {
			Body wsdecksdk.AuditLogResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "count-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit/count",
		Summary:     "Count audit logs",
		Tags:        []string{"Audit"},
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *SearchParams) (*struct {
		Body wsdecksdk.AuditLogCountResponse `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		res, err := e.AuditLogCount(ctx, actor, input.Q)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.AuditLogCountResponse `json:"body"`
		}{Body: res}, nil
	})
}

func registerLicenses(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-license",
		Method:        http.MethodPost,
		Path:          "/licenses",
		Summary:       "Add a license",
		Tags:          []string{"Enterprise"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusConflict},
	}, func(ctx context.Context, input *rawBodyInput) (*struct {
		Body wsdecksdk.License `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		req, err := decodeBody[wsdecksdk.AddLicenseRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		lic, err := e.AddLicense(ctx, actor, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.License `json:"body"`
		}{Body: lic}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-licenses",
		Method:      http.MethodGet,
		Path:        "/licenses",
		Summary:     "List licenses",
		Tags:        []string{"Enterprise"},
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body []wsdecksdk.License `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		licenses, err := e.Licenses(ctx, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []wsdecksdk.License `json:"body"`
		}{Body: nonNilSlice(licenses)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-license",
		Method:      http.MethodDelete,
		Path:        "/licenses/{id}",
		Summary:     "Delete a license",
		Tags:        []string{"Enterprise"},
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := strconv.ParseInt(input.ID, 10, 32)
		if err != nil {
			return nil, newValidationError("Invalid license id.", wsdecksdk.ValidationError{Field: "id", Detail: "must be an integer"})
		}
		if err := e.DeleteLicense(ctx, actor, int32(id)); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "entitlements",
		Method:      http.MethodGet,
		Path:        "/entitlements",
		Summary:     "Feature entitlements of the deployment",
		Tags:        []string{"Enterprise"},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body wsdecksdk.Entitlements `json:"body"`
	}, error) {
		if _, serr := actorFromContext(ctx); serr != nil {
			return nil, serr
		}
		ent, err := e.Entitlements(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Entitlements `json:"body"`
		}{Body: ent}, nil
	})
}

// The deployment config is served outside huma: its generic field types are
// encoded directly.
func registerDeploymentConfig(r chi.Router, basePath string, e engine.Engine) {
	r.Get(path.Join(basePath, "config/deployment"), func(w http.ResponseWriter, req *http.Request) {
		actor, serr := actorFromContext(req.Context())
		if serr != nil {
			respondStatusError(w, serr)
			return
		}
		cfg, err := e.DeploymentConfig(actor)
		if err != nil {
			respondStatusError(w, handleError(err))
			return
		}
		data, err := wsdecksdk.Encode(cfg)
		if err != nil {
			respondStatusError(w, handleError(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}
