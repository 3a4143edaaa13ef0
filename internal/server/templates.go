package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"wsdeck/internal/engine"
	"wsdeck/internal/provisioner"
	wsdecksdk "wsdeck/sdk/go"
)

func registerFiles(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "upload-file",
		Method:        http.MethodPost,
		Path:          "/files",
		Summary:       "Upload a template source archive",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  provisioner.MaxSourceSize,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ContentType string `header:"Content-Type"`
		RawBody     []byte
	}) (*struct {
		Body wsdecksdk.UploadResponse `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		res, err := e.UploadFile(ctx, actor, input.ContentType, input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.UploadResponse `json:"body"`
		}{Body: res}, nil
	})
}

func registerTemplates(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-template-version",
		Method:        http.MethodPost,
		Path:          "/organizations/{org}/templateversions",
		Summary:       "Create a template version from an uploaded file",
		Tags:          []string{"Templates"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Org     string `path:"org"`
		RawBody []byte
	}) (*struct {
		Body wsdecksdk.TemplateVersion `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		orgID, err := parseID("organization", input.Org)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := decodeBody[wsdecksdk.CreateTemplateVersionRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		v, err := e.CreateTemplateVersion(ctx, actor, orgID, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.TemplateVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template-version",
		Method:      http.MethodGet,
		Path:        "/templateversions/{id}",
		Summary:     "Get a template version",
		Tags:        []string{"Templates"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body wsdecksdk.TemplateVersion `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		v, err := e.TemplateVersion(ctx, actor, id)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.TemplateVersion `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-template-versions",
		Method:      http.MethodGet,
		Path:        "/templates/{id}/versions",
		Summary:     "List versions of a template",
		Tags:        []string{"Templates"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
		PaginationParams
	}) (*struct {
		Body []wsdecksdk.TemplateVersion `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		page, err := input.PaginationParams.parse()
		if err != nil {
			return nil, handleError(err)
		}
		versions, err := e.TemplateVersionsByTemplate(ctx, actor, id, page)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []wsdecksdk.TemplateVersion `json:"body"`
		}{Body: nonNilSlice(versions)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-template",
		Method:        http.MethodPost,
		Path:          "/organizations/{org}/templates",
		Summary:       "Create a template",
		Tags:          []string{"Templates"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Org     string `path:"org"`
		RawBody []byte
	}) (*struct {
		Body wsdecksdk.Template `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		orgID, err := parseID("organization", input.Org)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := decodeBody[wsdecksdk.CreateTemplateRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		t, err := e.CreateTemplate(ctx, actor, orgID, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Template `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-templates",
		Method:      http.MethodGet,
		Path:        "/organizations/{org}/templates",
		Summary:     "List templates of an organization",
		Tags:        []string{"Templates"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Org string `path:"org"`
	}) (*struct {
		Body []wsdecksdk.Template `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		orgID, err := parseID("organization", input.Org)
		if err != nil {
			return nil, handleError(err)
		}
		templates, err := e.TemplatesByOrganization(ctx, actor, orgID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []wsdecksdk.Template `json:"body"`
		}{Body: nonNilSlice(templates)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template-by-name",
		Method:      http.MethodGet,
		Path:        "/organizations/{org}/templates/{name}",
		Summary:     "Get a template by name",
		Tags:        []string{"Templates"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Org  string `path:"org"`
		Name string `path:"name"`
	}) (*struct {
		Body wsdecksdk.Template `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		orgID, err := parseID("organization", input.Org)
		if err != nil {
			return nil, handleError(err)
		}
		t, err := e.TemplateByName(ctx, actor, orgID, input.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Template `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template",
		Method:      http.MethodGet,
		Path:        "/templates/{id}",
		Summary:     "Get a template",
		Tags:        []string{"Templates"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body wsdecksdk.Template `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		t, err := e.Template(ctx, actor, id)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Template `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-template-meta",
		Method:      http.MethodPatch,
		Path:        "/templates/{id}",
		Summary:     "Update template metadata",
		Tags:        []string{"Templates"},
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		RawBody []byte
	}) (*struct {
		Body wsdecksdk.Template `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := decodeBody[wsdecksdk.UpdateTemplateMeta](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		t, err := e.UpdateTemplateMeta(ctx, actor, id, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Template `json:"body"`
		}{Body: t}, nil
	})
}
