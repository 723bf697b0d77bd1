// Package server provides HTTP routing, middleware, session handling and the JSON API of the learning platform.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Route-level middleware passed to [Router.Handle] runs inside the router-wide stack.
//
// The [BasicRouter] implementation uses [http.ServeMux] method and wildcard patterns internally.
//
// # Sessions
//
// [SessionMiddleware] turns an "Authorization: Bearer" HS256 token issued by [TokenIssuer] into an explicit
// [Session] stored on the request context. Browser pages carry the same token in the [SessionCookie] set by
// [SetSessionCookie]. Handlers read the session with [SessionFrom]; there is no global auth state.
//
// [RequireSession] and [RequireRole] are declarative guards evaluated before the handler. RequireRole asks a
// [RoleChecker] on every request, so role changes apply without reissuing tokens.
//
// # API
//
// [API] serves the course catalog and the learner progress endpoints. Each (learner, course) pair is backed
// by one progress.Tracker from a bounded progress.TrackerCache, so concurrent toggles from the same learner are serialized and every failed write is
// rolled back before the response is sent. [StatusFor] maps sentinel errors to status codes; persistence
// failures come back as 503 (or 409 for stale writes) with "retryable": true.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// The lesson page in internal/web is registered this way.
package server
