package validator

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	apperrors "anime-character-catalog/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

//go:embed schema/openapi.yaml
var schemaDocument []byte

// Schema returns the raw OpenAPI document served at /api/docs/openapi.yaml.
func Schema() []byte {
	return schemaDocument
}

// OpenAPIValidator validates requests against the OpenAPI document
type OpenAPIValidator struct {
	swagger *openapi3.T
	router  routers.Router
}

// NewOpenAPIValidator builds a validator from the embedded document.
func NewOpenAPIValidator() (*OpenAPIValidator, error) {
	return NewOpenAPIValidatorFromData(schemaDocument)
}

// NewOpenAPIValidatorFromData builds a validator from a YAML or JSON document.
func NewOpenAPIValidatorFromData(data []byte) (*OpenAPIValidator, error) {
	swagger, router, err := load(data)
	if err != nil {
		return nil, err
	}
	return &OpenAPIValidator{swagger: swagger, router: router}, nil
}

func load(data []byte) (*openapi3.T, routers.Router, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load OpenAPI schema: %w", err)
	}

	if err := swagger.Validate(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}

	router, err := gorillamux.NewRouter(swagger)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}
	return swagger, router, nil
}

// Middleware returns a Gin middleware function that validates requests against the OpenAPI schema
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route, pathParams, err := v.router.FindRoute(c.Request)
		if err != nil {
			// Route not described by the document, continue without validation
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         true,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			_ = c.Error(apperrors.BadRequestWithDetails(
				apperrors.CodeInvalidRequest,
				"Request does not match the API schema",
				requestErrors(err),
			))
			c.Abort()
			return
		}

		c.Next()
	}
}

// ServeSchema writes the raw document.
func ServeSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", schemaDocument)
}

func requestErrors(err error) []string {
	if multi, ok := err.(openapi3.MultiError); ok {
		out := make([]string, 0, len(multi))
		for _, e := range multi {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
