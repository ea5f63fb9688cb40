package router

import (
	"anime-character-catalog/backend/pkg/validator"
)

// setupOpenAPI serves the API document and, when enabled, validates request
// bodies against it.
func (r *Router) setupOpenAPI() {
	r.Engine.GET("/api/docs/openapi.yaml", validator.ServeSchema)

	if !r.Config.OpenAPI.ValidateRequests {
		return
	}

	v, err := validator.NewOpenAPIValidator()
	if err != nil {
		r.Logger.Error("Failed to initialize OpenAPI validator", "error", err.Error())
		return
	}

	r.Engine.Use(v.Middleware())
	r.Logger.Info("OpenAPI validation enabled")
}
