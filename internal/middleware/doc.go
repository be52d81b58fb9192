// Package middleware provides HTTP middleware for the Ascend API.
//
// Middleware is composed with Chain, which applies them outermost first:
//
//	handler := middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Logger,
//		middleware.Recovery,
//		middleware.CORS(cfg.Server.AllowedOrigins),
//		middleware.Compress,
//		middleware.RateLimit(limiter),
//		middleware.Metrics(m),
//	)
//
// Metrics reads the matched ServeMux pattern from the request, so it must be
// the innermost middleware wrapping the mux.
//
// # Admin Access
//
// AdminKey guards the admin routes with a shared API key sent as a Bearer
// token. AdminKeyHash does the same against a bcrypt hash of the key.
// The acting administrator is taken from X-Admin-ID and is available
// to handlers through GetAdminID.
//
// # Rate Limiting
//
// RateLimiter keeps a token bucket per client IP and drops buckets that
// have been idle for a while. Refused requests receive 429 with Retry-After.
package middleware
