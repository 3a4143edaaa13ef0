package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"wsdeck/internal/engine"
	"wsdeck/internal/engine/auth"
	"wsdeck/internal/repo"
	wsdecksdk "wsdeck/sdk/go"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

// apiError is the wire error envelope with the status it is sent under.
type apiError struct {
	status int
	wsdecksdk.Response
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Message }

// New returns an HTTP handler exposing the workspace API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api/v2"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, msg, errs...)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newAPIError(status, msg, errs...)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: cfg.Auth.logger(), NoColor: true}))
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := engine.WithRequestInfo(r.Context(), engine.RequestInfo{
				ID:        uuid.New(),
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine))
	hcfg := huma.DefaultConfig("wsdeck API", engine.Version)
	hcfg.OpenAPIPath = ""
	hcfg.DocsPath = ""
	hcfg.SchemasPath = ""
	// Bodies are exactly the contract entities, without a $schema link.
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerBuildInfo(group, cfg.Engine)
	registerUsers(group, cfg.Engine)
	registerOrganizations(group, cfg.Engine)
	registerFiles(group, cfg.Engine)
	registerTemplates(group, cfg.Engine)
	registerWorkspaces(group, cfg.Engine)
	registerBuilds(group, cfg.Engine)
	registerAudit(group, cfg.Engine)
	registerLicenses(group, cfg.Engine)
	registerDeploymentConfig(router, basePath, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, msg string, errs ...error) huma.StatusError {
	e := &apiError{status: status, Response: wsdecksdk.Response{Message: msg}}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			e.Validations = append(e.Validations, wsdecksdk.ValidationError{
				Field:  strings.TrimPrefix(detail.Location, "body."),
				Detail: detail.Message,
			})
			continue
		}
		e.Detail = wsdecksdk.Ptr(err.Error())
	}
	return e
}

func newValidationError(msg string, validations ...wsdecksdk.ValidationError) huma.StatusError {
	return &apiError{status: http.StatusBadRequest, Response: wsdecksdk.Response{Message: msg, Validations: validations}}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	var cv *wsdecksdk.ContractViolation
	if errors.As(err, &cv) {
		return newValidationError("Request body does not match the API contract.", wsdecksdk.ValidationError{Field: cv.Path, Detail: cv.Reason})
	}
	var invalid *engine.InvalidError
	if errors.As(err, &invalid) {
		return newValidationError(invalid.Message, invalid.Validations...)
	}
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return &apiError{status: http.StatusForbidden, Response: wsdecksdk.Response{Message: "Forbidden.", Detail: wsdecksdk.Ptr(err.Error())}}
	}
	switch {
	case errors.Is(err, engine.ErrUnauthorized), errors.Is(err, engine.ErrBadCredentials):
		return newAPIError(http.StatusUnauthorized, capitalize(err.Error())+".")
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "Resource not found.", err)
	case errors.Is(err, repo.ErrConflict):
		return newAPIError(http.StatusConflict, capitalize(err.Error())+".")
	case errors.Is(err, repo.ErrBadCursor):
		return newValidationError("Invalid pagination.", wsdecksdk.ValidationError{Field: "after_id", Detail: err.Error()})
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, capitalize(msg)+".")
	default:
		return newAPIError(http.StatusInternalServerError, "Internal error.", err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func registerDocs(r chi.Router, basePath string) {
	r.Get(path.Join(basePath, "docs"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var (
		once sync.Once
		spec []byte
	)
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{
							Type: "object",
							Properties: map[string]*huma.Schema{
								"message":     {Type: "string"},
								"detail":      {Type: "string"},
								"validations": {Type: "array", Items: &huma.Schema{Type: "object"}},
							},
						},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["sessionToken"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: wsdecksdk.SessionTokenHeader,
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{
		{"sessionToken": {}},
		{"bearerAuth": {}},
	}
	oas.Security = security
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if isPublicPath(basePath, route) {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>wsdeck API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with the %s header or Authorization: Bearer &lt;jwt&gt;.
    </p>
  </body>
</html>`, specURL, wsdecksdk.SessionTokenHeader)
}

