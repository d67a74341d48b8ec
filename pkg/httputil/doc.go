// Package httputil provides the HTTP plumbing shared by the admin API:
// JSON responses, request parsing, and the middleware chain.
//
// # Responses
//
// Handlers write JSON through the response helpers:
//
//	httputil.WriteSuccess(w, payload)
//	httputil.WriteSuccessMessage(w, "extension activated", data)
//	httputil.WriteNotFoundError(w, err.Error())
//	httputil.WriteConflict(w, "Circular dependency detected: ...")
//
// # Request Parsing
//
// Path and query extraction for gorilla/mux routes:
//
//	id, ok := httputil.ParsePathStringOrError(w, r, "id")
//	if !ok {
//		return
//	}
//	state := httputil.ParseQueryString(r, "state", "")
//
// # Middleware
//
// The admin API composes its chain with Chain; the first middleware is
// outermost:
//
//	handler := httputil.Chain(
//		httputil.RecoveryMiddleware,
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware,
//		httputil.CORSMiddleware([]string{"*"}),
//		httputil.MaxBytesMiddleware(1<<20),
//	)(router)
//
// # Related Packages
//
//   - pkg/api: The admin API server using these helpers
//   - pkg/observability: Request-scoped logging and request ids
package httputil
