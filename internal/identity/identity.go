// Package identity carries the opaque tenant identity established by the
// external AuthN collaborator (C1 in the design). It is a plain value
// passed explicitly to every Store/engine call rather than threaded through
// context.Context, so that the dependency is visible in each signature.
package identity

// Context is the verified identity of the caller making a core request.
// TenantID is produced by the thin HTTP/JWT layer (out of core scope) and
// handed in unchanged; the core never parses or validates tokens itself.
type Context struct {
	TenantID string
}

// Public is the zero-value identity used for operations that are
// intentionally cross-tenant, such as looking up a session by room code.
var Public = Context{}
