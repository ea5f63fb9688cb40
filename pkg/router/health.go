package router

import (
	"anime-character-catalog/backend/internal/api"
)

// setupHealthRoutes registers health check endpoints
func (r *Router) setupHealthRoutes() {
	handler := api.NewHealthHandler(r.Container.Health, r.Config.Server.Version)

	// Register both health endpoint paths for compatibility
	handler.RegisterHealthRoutes(r.Engine)
	handler.RegisterHealthRoutes(r.Engine.Group("/api"))
}
