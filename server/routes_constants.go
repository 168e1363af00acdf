package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteSignIn    = "/auth/signin"
	RouteCallback  = "/auth/callback"
	RouteLogout    = "/auth/logout"
	RouteSignedOut = "/auth/signedout"

	// API Routes
	RouteMe          = "/api/me"
	RouteProxyPrefix = "/api/proxy/"

	// Operational Routes
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"

	// Default landing paths
	PathAdminHome = "/admin"
	PathRoot      = "/"
)
