package http

import (
	"github.com/containerhub/containerhub/internal/auth"
	"github.com/containerhub/containerhub/internal/database"
	"github.com/containerhub/containerhub/internal/fetchproxy"
	"github.com/containerhub/containerhub/internal/importer"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces the long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database  *database.Database
	ItemStore ItemStore

	// Import pipeline
	ImportRunner   *importer.Runner
	ImportRegistry *importer.Registry

	// Fetch proxy
	Fetcher *fetchproxy.Fetcher

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	DefaultOrgID   uint

	// Application info
	Version string
}
