package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"wsdeck/internal/engine"
	wsdecksdk "wsdeck/sdk/go"
)

func registerWorkspaces(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-workspace",
		Method:        http.MethodPost,
		Path:          "/organizations/{org}/members/{user}/workspaces",
		Summary:       "Create a workspace",
		Tags:          []string{"Workspaces"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Org     string `path:"org"`
		User    string `path:"user"`
		RawBody []byte
	}) (*struct {
		Body wsdecksdk.Workspace `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		orgID, err := parseID("organization", input.Org)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := decodeBody[wsdecksdk.CreateWorkspaceRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		ws, err := e.CreateWorkspace(ctx, actor, orgID, input.User, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Workspace `json:"body"`
		}{Body: ws}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workspaces",
		Method:      http.MethodGet,
		Path:        "/workspaces",
		Summary:     "List workspaces",
		Tags:        []string{"Workspaces"},
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		SearchParams
		PaginationParams
	}) (*struct {
		Body wsdecksdk.WorkspacesResponse `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		page, err := input.PaginationParams.parse()
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.Workspaces(ctx, actor, input.Q, page)
		if err != nil {
			return nil, handleError(err)
		}
		res.Workspaces = nonNilSlice(res.Workspaces)
		return &struct {
			Body wsdecksdk.WorkspacesResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-workspace",
		Method:      http.MethodGet,
		Path:        "/workspaces/{id}",
		Summary:     "Get a workspace",
		Tags:        []string{"Workspaces"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
		IncludeDeletedParam
	}) (*struct {
		Body wsdecksdk.Workspace `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		ws, err := e.Workspace(ctx, actor, id, input.IncludeDeleted)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Workspace `json:"body"`
		}{Body: ws}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-workspace-by-owner-and-name",
		Method:      http.MethodGet,
		Path:        "/users/{user}/workspace/{name}",
		Summary:     "Get a workspace by owner and name",
		Tags:        []string{"Workspaces"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		User string `path:"user"`
		Name string `path:"name"`
		IncludeDeletedParam
	}) (*struct {
		Body wsdecksdk.Workspace `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		ws, err := e.WorkspaceByOwnerAndName(ctx, actor, input.User, input.Name, input.IncludeDeleted)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Workspace `json:"body"`
		}{Body: ws}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "update-workspace-ttl",
		Method:        http.MethodPut,
		Path:          "/workspaces/{id}/ttl",
		Summary:       "Update the workspace TTL",
		Tags:          []string{"Workspaces"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		RawBody []byte
	}) (*struct{}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := decodeBody[wsdecksdk.UpdateWorkspaceTTLRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		if err := e.UpdateWorkspaceTTL(ctx, actor, id, req); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "update-workspace-autostart",
		Method:        http.MethodPut,
		Path:          "/workspaces/{id}/autostart",
		Summary:       "Update the workspace autostart schedule",
		Tags:          []string{"Workspaces"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		RawBody []byte
	}) (*struct{}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := decodeBody[wsdecksdk.UpdateWorkspaceAutostartRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		if err := e.UpdateWorkspaceAutostart(ctx, actor, id, req); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "extend-workspace",
		Method:      http.MethodPut,
		Path:        "/workspaces/{id}/extend",
		Summary:     "Extend the deadline of a running workspace",
		Tags:        []string{"Workspaces"},
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		RawBody []byte
	}) (*struct {
		Body wsdecksdk.Response `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := decodeBody[wsdecksdk.PutExtendWorkspaceRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.ExtendWorkspace(ctx, actor, id, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Response `json:"body"`
		}{Body: res}, nil
	})
}

func registerBuilds(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-workspace-build",
		Method:        http.MethodPost,
		Path:          "/workspaces/{id}/builds",
		Summary:       "Start, stop or delete a workspace",
		Tags:          []string{"Builds"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		RawBody []byte
	}) (*struct {
		Body wsdecksdk.WorkspaceBuild `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("id", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		req, err := decodeBody[wsdecksdk.CreateWorkspaceBuildRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		build, err := e.CreateWorkspaceBuild(ctx, actor, id, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.WorkspaceBuild `json:"body"`
		}{Body: build}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workspace-builds",
		Method:      http.MethodGet,
		Path:        "/workspaces/{id}/builds",
		Summary:     "List builds of a workspace, newest first",
		Tags:        []string{"Builds"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID    string `path:"id"`
		Since string `query:"since" doc:"Only builds created at or after this RFC 3339 time"`
		PaginationParams
	}) (*struct {
		Body []wsdecksdk.WorkspaceBuild `json:"body"`
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
		var since time.Time
		if input.Since != "" {
			since, err = time.Parse(time.RFC3339Nano, input.Since)
			if err != nil {
				return nil, newValidationError("Invalid since.", wsdecksdk.ValidationError{Field: "since", Detail: "must be an RFC 3339 time"})
			}
		}
		builds, err := e.WorkspaceBuilds(ctx, actor, id, since, page)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []wsdecksdk.WorkspaceBuild `json:"body"`
		}{Body: nonNilSlice(builds)}, nil
	})
}
