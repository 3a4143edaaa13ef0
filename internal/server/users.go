package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"wsdeck/internal/engine"
	wsdecksdk "wsdeck/sdk/go"
)

func registerBuildInfo(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "buildinfo",
		Method:      http.MethodGet,
		Path:        "/buildinfo",
		Summary:     "Build info",
		Tags:        []string{"General"},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body wsdecksdk.BuildInfoResponse `json:"body"`
	}, error) {
		return &struct {
			Body wsdecksdk.BuildInfoResponse `json:"body"`
		}{Body: e.BuildInfo()}, nil
	})
}

type loginOutput struct {
	SetCookie http.Cookie                         `header:"Set-Cookie"`
	Body      wsdecksdk.LoginWithPasswordResponse `json:"body"`
}

func registerUsers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-first-user",
		Method:        http.MethodPost,
		Path:          "/users/first",
		Summary:       "Create the first user",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *rawBodyInput) (*struct {
		Body wsdecksdk.CreateFirstUserResponse `json:"body"`
	}, error) {
		req, err := decodeBody[wsdecksdk.CreateFirstUserRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.CreateFirstUser(ctx, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.CreateFirstUserResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "login-with-password",
		Method:        http.MethodPost,
		Path:          "/users/login",
		Summary:       "Log in with email and password",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *rawBodyInput) (*loginOutput, error) {
		req, err := decodeBody[wsdecksdk.LoginWithPasswordRequest](input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.LoginWithPassword(ctx, req)
		if err != nil {
			return nil, handleError(err)
		}
		return &loginOutput{
			SetCookie: http.Cookie{Name: SessionCookie, Value: res.SessionToken, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode},
			Body:      res,
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Tags:        []string{"Users"},
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		SearchParams
		PaginationParams
	}) (*struct {
		Body wsdecksdk.GetUsersResponse `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		page, err := input.PaginationParams.parse()
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.Users(ctx, actor, input.Q, page)
		if err != nil {
			return nil, handleError(err)
		}
		res.Users = nonNilSlice(res.Users)
		return &struct {
			Body wsdecksdk.GetUsersResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{user}",
		Summary:     "Get a user by id, username or me",
		Tags:        []string{"Users"},
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		User string `path:"user"`
	}) (*struct {
		Body wsdecksdk.User `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		u, err := e.User(ctx, actor, input.User)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.User `json:"body"`
		}{Body: u}, nil
	})
}

func registerOrganizations(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-organization",
		Method:      http.MethodGet,
		Path:        "/organizations/{org}",
		Summary:     "Get an organization",
		Tags:        []string{"Organizations"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Org string `path:"org"`
	}) (*struct {
		Body wsdecksdk.Organization `json:"body"`
	}, error) {
		actor, serr := actorFromContext(ctx)
		if serr != nil {
			return nil, serr
		}
		id, err := parseID("organization", input.Org)
		if err != nil {
			return nil, handleError(err)
		}
		org, err := e.Organization(ctx, actor, id)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body wsdecksdk.Organization `json:"body"`
		}{Body: org}, nil
	})
}
