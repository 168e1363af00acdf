// Package routing maps an inbound (host, path) pair to a canonical internal
// path. A single deployment serves the mother admin application and many kid
// tenant applications; which one a request belongs to is derived from the
// host's subdomain in production and from a /t/<tenant> path alias on preview
// and loopback hosts.
package routing

import (
	"path"
	"strings"
)

// Action is the routing decision for an inbound request.
type Action string

const (
	// ActionPassthrough leaves the request untouched.
	ActionPassthrough Action = "passthrough"
	// ActionRewrite rewrites the request path in place.
	ActionRewrite Action = "rewrite"
	// ActionRedirect sends the browser elsewhere. The resolver itself never
	// redirects; the gatekeeper uses this action for sign-in bounces.
	ActionRedirect Action = "redirect"
)

// RouteDecision is the resolved mapping for one request. Computed fresh per
// request and never persisted.
type RouteDecision struct {
	Action Action
	// Path is the canonical internal path. Equal to the inbound path unless
	// Action is ActionRewrite.
	Path string
	// Location is the redirect target when Action is ActionRedirect.
	Location string
}

// adminLabel is the host label reserved for the mother application.
const adminLabel = "admin"

// Resolver decides how inbound requests map onto internal paths. It is pure
// and deterministic; all state is read-only configuration.
type Resolver struct {
	previewDomain string
	skipPrefixes  []string
}

// NewResolver builds a resolver. previewDomain is the wildcard preview domain
// (hosts equal to it or ending in "."+previewDomain use path aliasing);
// skipPrefixes are path prefixes that are never rewritten.
func NewResolver(previewDomain string, skipPrefixes []string) *Resolver {
	return &Resolver{
		previewDomain: strings.ToLower(previewDomain),
		skipPrefixes:  skipPrefixes,
	}
}

// Resolve maps host and path to a routing decision. Rewrites are idempotent:
// resolving an already-rewritten path yields a passthrough.
func (r *Resolver) Resolve(host, reqPath string) RouteDecision {
	if r.isSkipped(reqPath) {
		return passthrough(reqPath)
	}

	hostname := stripPort(strings.ToLower(host))

	if r.isPreviewHost(hostname) {
		if tenantPath, ok := cutTenantAlias(reqPath); ok {
			return RouteDecision{Action: ActionRewrite, Path: tenantPath}
		}
		return passthrough(reqPath)
	}

	label := leadingLabel(hostname)
	switch {
	case label == adminLabel:
		return rewriteWithPrefix(reqPath, "/"+adminLabel)
	case label != "" && label != "www":
		return rewriteWithPrefix(reqPath, "/"+label)
	default:
		return passthrough(reqPath)
	}
}

func (r *Resolver) isSkipped(reqPath string) bool {
	for _, prefix := range r.skipPrefixes {
		if strings.HasPrefix(reqPath, prefix) {
			return true
		}
	}
	// Paths with a file extension are asset requests, never tenant pages.
	return path.Ext(reqPath) != ""
}

// isPreviewHost reports whether the hostname belongs to the preview wildcard
// domain or is a loopback development host.
func (r *Resolver) isPreviewHost(hostname string) bool {
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return true
	}
	if r.previewDomain == "" {
		return false
	}
	return hostname == r.previewDomain || strings.HasSuffix(hostname, "."+r.previewDomain)
}

// cutTenantAlias matches /t/<tenant>(/rest)? and returns /<tenant>(/rest)?.
func cutTenantAlias(reqPath string) (string, bool) {
	rest, ok := strings.CutPrefix(reqPath, "/t/")
	if !ok || rest == "" || strings.HasPrefix(rest, "/") {
		return "", false
	}
	return "/" + rest, true
}

// rewriteWithPrefix prefixes reqPath with prefix unless it already carries it.
// A root path collapses to the bare prefix.
func rewriteWithPrefix(reqPath, prefix string) RouteDecision {
	if reqPath == prefix || strings.HasPrefix(reqPath, prefix+"/") {
		return passthrough(reqPath)
	}
	if reqPath == "/" || reqPath == "" {
		return RouteDecision{Action: ActionRewrite, Path: prefix}
	}
	return RouteDecision{Action: ActionRewrite, Path: prefix + reqPath}
}

func passthrough(reqPath string) RouteDecision {
	return RouteDecision{Action: ActionPassthrough, Path: reqPath}
}

func stripPort(host string) string {
	// net.SplitHostPort rejects hosts without a port, so cut the port off by
	// hand the way the Host header carries it.
	if strings.HasPrefix(host, "[") {
		if i := strings.Index(host, "]"); i != -1 {
			return host[1:i]
		}
		return host
	}
	if i := strings.Index(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}

// leadingLabel returns the part of the hostname before the first dot, or ""
// when the hostname has no subdomain label.
func leadingLabel(hostname string) string {
	label, _, found := strings.Cut(hostname, ".")
	if !found {
		return ""
	}
	return label
}
